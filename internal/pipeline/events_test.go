package pipeline

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestSQLEventKeepsEmptyChunk(t *testing.T) {
	// The empty bracket chunks must survive serialization so consumers can
	// tell "no SQL yet" apart from "generation complete with no output".
	data, err := json.Marshal(sqlEvent(""))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(data), `"chunk":""`) {
		t.Errorf("empty chunk dropped: %s", data)
	}
}

func TestStepEventShape(t *testing.T) {
	ev := stepEvent(StageTableSelection, "Finding relevant tables", "desc", StatusInProgress, nil)
	data, err := json.Marshal(ev)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	s := string(data)
	for _, want := range []string{`"type":"step"`, `"stage":"table_selection"`, `"status":"in_progress"`} {
		if !strings.Contains(s, want) {
			t.Errorf("missing %s in %s", want, s)
		}
	}
	if strings.Contains(s, `"chunk"`) {
		t.Errorf("step event must not carry a chunk: %s", s)
	}
}

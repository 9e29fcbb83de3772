package pipeline

// Stage identifiers for the streaming progress protocol.
const (
	StageTableSelection = "table_selection"
	StageSchemaAssembly = "schema_assembly"
	StageSQLGeneration  = "sql_generation"
)

// Step statuses.
const (
	StatusInProgress = "in_progress"
	StatusDone       = "done"
)

// Event is one unit of streamed progress. Step events describe a stage
// starting or finishing; sql events carry model-delivered SQL text chunks,
// bracketed by one leading and one trailing empty chunk so consumers can tell
// "no SQL yet" apart from "generation finished with zero characters".
type Event struct {
	Type        string         `json:"type"` // "step" | "sql"
	Stage       string         `json:"stage,omitempty"`
	Title       string         `json:"title,omitempty"`
	Description string         `json:"description,omitempty"`
	Status      string         `json:"status,omitempty"`
	Data        map[string]any `json:"data,omitempty"`
	Chunk       *string        `json:"chunk,omitempty"`
}

// EmitFunc delivers one event to the streaming consumer. Returning an error
// aborts the stream (used for client disconnects).
type EmitFunc func(Event) error

func stepEvent(stage, title, description, status string, data map[string]any) Event {
	return Event{
		Type:        "step",
		Stage:       stage,
		Title:       title,
		Description: description,
		Status:      status,
		Data:        data,
	}
}

func sqlEvent(chunk string) Event {
	return Event{Type: "sql", Chunk: &chunk}
}

package executor

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"sync"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/queryloom/queryloom/internal/llm"
	"github.com/queryloom/queryloom/internal/models"
	"github.com/queryloom/queryloom/internal/resultcache"
)

type memLog struct {
	mu      sync.Mutex
	entries []models.QueryLogEntry
}

func (m *memLog) InsertQueryLog(ctx context.Context, e models.QueryLogEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, e)
	return nil
}

type stubLLM struct {
	reply string
	err   error
}

func (s *stubLLM) Complete(ctx context.Context, messages []llm.Message) (string, error) {
	return s.reply, s.err
}

func (s *stubLLM) Stream(ctx context.Context, messages []llm.Message, onChunk func(string) error) error {
	return onChunk(s.reply)
}

func newTestExecutor(t *testing.T, rows *sqlmock.Rows, queryErr error, client llm.Client) (*Executor, *memLog) {
	t.Helper()

	cache, err := resultcache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	logs := &memLog{}
	exec := New(cache, logs, client)
	exec.open = func(ctx context.Context, cfg models.DataSourceConfig) (*sql.DB, error) {
		db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
		if err != nil {
			return nil, err
		}
		q := mock.ExpectQuery("SELECT")
		if queryErr != nil {
			q.WillReturnError(queryErr)
		} else {
			q.WillReturnRows(rows)
		}
		mock.ExpectClose()
		return db, nil
	}
	return exec, logs
}

func execRequest(sqlText string) models.ExecuteRequest {
	return models.ExecuteRequest{
		DataSourceConfig: models.DataSourceConfig{Dialect: "postgres", Host: "db", Database: "app"},
		SQL:              sqlText,
		UserQuery:        "test question",
	}
}

func TestExecuteSuccess(t *testing.T) {
	rows := sqlmock.NewRows([]string{"id", "name"}).AddRow(1, "alice").AddRow(2, "bob")
	exec, logs := newTestExecutor(t, rows, nil, &stubLLM{reply: "Two users."})

	resp := exec.Execute(context.Background(), execRequest("SELECT id, name FROM users"))

	if resp.Status != "success" {
		t.Fatalf("status = %q (%s)", resp.Status, resp.Message)
	}
	if resp.Rows != 2 || len(resp.Data) != 2 {
		t.Errorf("rows = %d, data = %d, want 2", resp.Rows, len(resp.Data))
	}
	if resp.Summary != "Two users." {
		t.Errorf("summary = %q", resp.Summary)
	}
	if resp.QueryID == "" {
		t.Error("missing query id")
	}

	cached, err := exec.Result(resp.QueryID)
	if err != nil {
		t.Fatalf("Result: %v", err)
	}
	if cached.NumRows != 2 {
		t.Errorf("cached rows = %d, want 2", cached.NumRows)
	}

	if len(logs.entries) != 1 || logs.entries[0].Status != "success" {
		t.Errorf("log entries = %+v, want one success", logs.entries)
	}
}

func TestExecuteTruncatesLargeResults(t *testing.T) {
	rows := sqlmock.NewRows([]string{"n"})
	for i := 0; i < 600; i++ {
		rows.AddRow(i)
	}
	exec, _ := newTestExecutor(t, rows, nil, &stubLLM{reply: "600 rows."})

	resp := exec.Execute(context.Background(), execRequest("SELECT n FROM numbers"))

	if resp.Status != "success" {
		t.Fatalf("status = %q (%s)", resp.Status, resp.Message)
	}
	if resp.Rows != 600 {
		t.Errorf("total rows = %d, want 600", resp.Rows)
	}
	if len(resp.Data) != truncateTo {
		t.Errorf("response data = %d rows, want %d", len(resp.Data), truncateTo)
	}
	if resp.Message == "" {
		t.Error("expected truncation message")
	}

	// The cache must hold the full, untruncated set.
	cached, err := exec.Result(resp.QueryID)
	if err != nil {
		t.Fatalf("Result: %v", err)
	}
	if cached.NumRows != 600 || len(cached.Rows) != 600 {
		t.Errorf("cached rows = %d/%d, want 600", cached.NumRows, len(cached.Rows))
	}
}

func TestExecuteFailureIsLoggedNotPropagated(t *testing.T) {
	exec, logs := newTestExecutor(t, nil, fmt.Errorf("relation does not exist"), &stubLLM{})

	resp := exec.Execute(context.Background(), execRequest("SELECT * FROM ghost"))

	if resp.Status != "error" {
		t.Fatalf("status = %q, want error", resp.Status)
	}
	if resp.Message == "" {
		t.Error("expected error message in response")
	}
	if len(logs.entries) != 1 {
		t.Fatalf("log entries = %d, want 1", len(logs.entries))
	}
	if logs.entries[0].Status != "error" || logs.entries[0].ErrorMessage == "" {
		t.Errorf("log entry = %+v, want error with message", logs.entries[0])
	}
}

func TestExecuteRejectsWrites(t *testing.T) {
	exec, logs := newTestExecutor(t, nil, nil, &stubLLM{})

	resp := exec.Execute(context.Background(), execRequest("DROP TABLE users"))

	if resp.Status != "error" {
		t.Fatalf("status = %q, want error", resp.Status)
	}
	if len(logs.entries) != 1 || logs.entries[0].Status != "error" {
		t.Errorf("rejected statement must still be audited: %+v", logs.entries)
	}
}

func TestExecuteDistinctQueryIDs(t *testing.T) {
	ids := make(map[string]bool)
	for i := 0; i < 5; i++ {
		rows := sqlmock.NewRows([]string{"n"}).AddRow(1)
		exec, _ := newTestExecutor(t, rows, nil, &stubLLM{reply: "one row"})
		resp := exec.Execute(context.Background(), execRequest("SELECT 1"))
		if resp.QueryID == "" || ids[resp.QueryID] {
			t.Fatalf("query id %q not unique", resp.QueryID)
		}
		ids[resp.QueryID] = true
	}
}

func TestExecuteSummaryFallback(t *testing.T) {
	rows := sqlmock.NewRows([]string{"n"}).AddRow(1)
	exec, _ := newTestExecutor(t, rows, nil, &stubLLM{err: fmt.Errorf("model unavailable")})

	resp := exec.Execute(context.Background(), execRequest("SELECT 1"))
	if resp.Status != "success" {
		t.Fatalf("status = %q", resp.Status)
	}
	if resp.Summary != summaryFallback {
		t.Errorf("summary = %q, want fallback", resp.Summary)
	}
}

func TestSanitizeValue(t *testing.T) {
	tests := []struct {
		in   any
		want any
	}{
		{math.NaN(), nil},
		{math.Inf(1), nil},
		{math.Inf(-1), nil},
		{float64(3.5), float64(3.5)},
		{float32(math.NaN()), nil},
		{[]byte("hello"), "hello"},
		{"text", "text"},
		{int64(7), int64(7)},
		{nil, nil},
	}
	for _, tt := range tests {
		got := sanitizeValue(tt.in)
		if fmt.Sprintf("%v", got) != fmt.Sprintf("%v", tt.want) {
			t.Errorf("sanitizeValue(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

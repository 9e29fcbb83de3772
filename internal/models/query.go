package models

import "time"

// ContextTurn is one prior conversation message forwarded as LLM context.
type ContextTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// GenerationRequest for POST /api/v1/generate_sql and the streaming variant.
type GenerationRequest struct {
	Question     string        `json:"question"`
	DataSourceID int64         `json:"datasource_id"`
	Context      []ContextTurn `json:"context,omitempty"`
}

// GenerationResponse is the synchronous generation result.
type GenerationResponse struct {
	Status     string   `json:"status"`
	SQL        string   `json:"sql"`
	UsedTables []string `json:"used_tables"`
}

// FixSQLRequest for POST /api/v1/fix_sql
type FixSQLRequest struct {
	Question     string `json:"question"`
	BrokenSQL    string `json:"broken_sql"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// ExecuteRequest for POST /api/v1/execute_sql. The connection parameters come
// inline so the executor needs no registry lookup.
type ExecuteRequest struct {
	DataSourceConfig
	SQL       string `json:"sql"`
	UserQuery string `json:"user_query,omitempty"`
}

// QueryResult is the tabular outcome of one executed statement. Row values
// are null, number, string or boolean; non-finite numbers are normalized to
// null before the result is stored.
type QueryResult struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
	NumRows int      `json:"num_rows"`
}

// ExecuteResponse for POST /api/v1/execute_sql. Rows may be truncated; the
// cached result keyed by QueryID always holds the full set.
type ExecuteResponse struct {
	Status          string   `json:"status"`
	QueryID         string   `json:"query_id,omitempty"`
	ExecutionTimeMs int64    `json:"execution_time_ms"`
	Rows            int      `json:"rows"`
	Data            [][]any  `json:"data,omitempty"`
	Columns         []string `json:"columns,omitempty"`
	Summary         string   `json:"summary,omitempty"`
	Message         string   `json:"message,omitempty"`
}

// QueryLogEntry is the immutable audit record written once per execution
// attempt.
type QueryLogEntry struct {
	ID              int64     `json:"id"`
	QueryID         string    `json:"query_id"`
	UserQuery       string    `json:"user_query"`
	SQLQuery        string    `json:"sql_query"`
	Status          string    `json:"status"` // success | error
	ExecutionTimeMs int64     `json:"execution_time_ms"`
	ErrorMessage    string    `json:"error_message,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

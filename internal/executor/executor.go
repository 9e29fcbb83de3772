// Package executor runs generated SQL against a user's data source, caches
// the full result, summarizes it, and records an audit log entry for every
// attempt.
package executor

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/queryloom/queryloom/internal/connect"
	"github.com/queryloom/queryloom/internal/llm"
	"github.com/queryloom/queryloom/internal/models"
	"github.com/queryloom/queryloom/internal/resultcache"
	"github.com/queryloom/queryloom/internal/security"
)

// responses truncate to truncateTo rows once a result exceeds truncateAbove;
// the cached result always keeps every row.
const (
	truncateAbove = 500
	truncateTo    = 100
	previewRows   = 5
)

const summaryFallback = "Could not generate summary."

// LogStore records one audit entry per execution attempt.
type LogStore interface {
	InsertQueryLog(ctx context.Context, e models.QueryLogEntry) error
}

type Executor struct {
	cache resultcache.Cache
	logs  LogStore
	llm   llm.Client
	open  func(ctx context.Context, cfg models.DataSourceConfig) (*sql.DB, error)
}

func New(cache resultcache.Cache, logs LogStore, client llm.Client) *Executor {
	return &Executor{cache: cache, logs: logs, llm: client, open: connect.Open}
}

// Execute runs one statement and always returns a response: failures are
// reported in the response body, logged, and audited, never propagated as an
// error. Every attempt gets a fresh query ID so retries of the same SQL stay
// distinguishable in the log.
func (e *Executor) Execute(ctx context.Context, req models.ExecuteRequest) *models.ExecuteResponse {
	queryID := strings.ReplaceAll(uuid.NewString(), "-", "")

	if err := security.CheckReadOnly(req.SQL); err != nil {
		e.audit(ctx, queryID, req, "error", 0, err.Error())
		return &models.ExecuteResponse{
			Status:  "error",
			QueryID: queryID,
			Message: err.Error(),
		}
	}

	start := time.Now()
	result, err := e.run(ctx, req)
	elapsed := time.Since(start).Milliseconds()

	if err != nil {
		e.audit(ctx, queryID, req, "error", elapsed, err.Error())
		return &models.ExecuteResponse{
			Status:          "error",
			QueryID:         queryID,
			ExecutionTimeMs: elapsed,
			Message:         err.Error(),
		}
	}

	sanitize(result)

	if err := e.cache.Save(queryID, result); err != nil {
		log.Warn().Err(err).Str("query_id", queryID).Msg("failed to cache query result")
	}

	summary := e.summarize(ctx, req, result)

	resp := &models.ExecuteResponse{
		Status:          "success",
		QueryID:         queryID,
		ExecutionTimeMs: elapsed,
		Rows:            result.NumRows,
		Data:            result.Rows,
		Columns:         result.Columns,
		Summary:         summary,
	}
	if result.NumRows > truncateAbove {
		resp.Data = result.Rows[:truncateTo]
		resp.Message = fmt.Sprintf("Showing first %d of %d rows. Use the query ID to retrieve the full result.",
			truncateTo, result.NumRows)
	}

	e.audit(ctx, queryID, req, "success", elapsed, "")
	return resp
}

// Result returns the full cached result for a prior execution.
func (e *Executor) Result(queryID string) (*models.QueryResult, error) {
	return e.cache.Load(queryID)
}

func (e *Executor) run(ctx context.Context, req models.ExecuteRequest) (*models.QueryResult, error) {
	if req.Dialect == "bigquery" {
		return runBigQuery(ctx, req.DataSourceConfig, req.SQL)
	}

	db, err := e.open(ctx, req.DataSourceConfig)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	return queryRows(ctx, db, req.SQL)
}

func queryRows(ctx context.Context, db *sql.DB, sqlText string) (*models.QueryResult, error) {
	rows, err := db.QueryContext(ctx, sqlText)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	result := &models.QueryResult{Columns: cols, Rows: [][]any{}}
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		result.Rows = append(result.Rows, vals)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	result.NumRows = len(result.Rows)
	return result, nil
}

// sanitize normalizes values in place so the result is JSON-safe: byte
// slices become strings and non-finite floats become nulls.
func sanitize(result *models.QueryResult) {
	for _, row := range result.Rows {
		for i, v := range row {
			row[i] = sanitizeValue(v)
		}
	}
}

func sanitizeValue(v any) any {
	switch x := v.(type) {
	case []byte:
		return string(x)
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return nil
		}
	case float32:
		f := float64(x)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil
		}
		return f
	}
	return v
}

func (e *Executor) summarize(ctx context.Context, req models.ExecuteRequest, result *models.QueryResult) string {
	if e.llm == nil {
		return ""
	}

	preview := result.Rows
	if len(preview) > previewRows {
		preview = preview[:previewRows]
	}

	text, err := e.llm.Complete(ctx, []llm.Message{
		{Role: llm.RoleUser, Content: summaryPrompt(req.UserQuery, req.SQL, result.Columns, preview, result.NumRows)},
	})
	if err != nil || strings.TrimSpace(text) == "" {
		log.Warn().Err(err).Msg("result summary generation failed")
		return summaryFallback
	}
	return strings.TrimSpace(text)
}

func summaryPrompt(question, sqlText string, columns []string, preview [][]any, total int) string {
	sample, err := json.Marshal(preview)
	if err != nil {
		sample = []byte("[]")
	}
	cols, _ := json.Marshal(columns)

	return fmt.Sprintf(`You are a data analyst. Summarize the result of a SQL query in 1-2 plain sentences for a business user. Mention the overall row count. Do not repeat the SQL.

User question: %s

SQL query:
%s

Columns: %s
First rows (of %d total):
%s`, question, sqlText, cols, total, sample)
}

func (e *Executor) audit(ctx context.Context, queryID string, req models.ExecuteRequest, status string, elapsed int64, errMsg string) {
	entry := models.QueryLogEntry{
		QueryID:         queryID,
		UserQuery:       req.UserQuery,
		SQLQuery:        req.SQL,
		Status:          status,
		ExecutionTimeMs: elapsed,
		ErrorMessage:    errMsg,
	}
	if err := e.logs.InsertQueryLog(ctx, entry); err != nil {
		log.Error().Err(err).Str("query_id", queryID).Msg("failed to write query log")
	}

	evt := log.Info()
	if status == "error" {
		evt = log.Error()
	}
	evt.Str("query_id", queryID).
		Str("status", status).
		Str("dialect", req.Dialect).
		Int64("execution_time_ms", elapsed).
		Msg("sql execution")
}

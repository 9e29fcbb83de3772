// Package pipeline orchestrates natural-language-to-SQL generation: coarse
// table selection from curated descriptions, live schema resolution for the
// chosen tables, then SQL generation, synchronously or as a stream of
// progress events.
package pipeline

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/queryloom/queryloom/internal/llm"
	"github.com/queryloom/queryloom/internal/models"
	"github.com/queryloom/queryloom/internal/schema"
)

// ErrNoTablesSelected is returned when the model's table-selection answer
// contains no usable table names.
var ErrNoTablesSelected = errors.New("model selected no tables")

// ErrLLMUnavailable is returned when the pipeline was built without a model
// client (no API key configured). Generation degrades to a structured error
// instead of a panic.
var ErrLLMUnavailable = errors.New("llm client not configured")

const (
	descriptionsTTL = 5 * time.Minute

	// The suggestion prompt asks for four queries; anything extra the model
	// tacks on is dropped.
	maxSuggestions = 4
)

type descEntry struct {
	markdown  string
	fetchedAt time.Time
}

type Pipeline struct {
	resolver *schema.Resolver
	llm      llm.Client

	mu    sync.Mutex
	descs map[int64]descEntry
	group singleflight.Group
}

func New(resolver *schema.Resolver, client llm.Client) *Pipeline {
	return &Pipeline{
		resolver: resolver,
		llm:      client,
		descs:    make(map[int64]descEntry),
	}
}

// tableDescriptionsMarkdown returns the curated table-description document
// for one data source, cached with a TTL and deduplicated under concurrent
// misses so a burst of requests triggers one metadata read.
func (p *Pipeline) tableDescriptionsMarkdown(ctx context.Context, dataSourceID int64) (string, error) {
	p.mu.Lock()
	if e, ok := p.descs[dataSourceID]; ok && time.Since(e.fetchedAt) < descriptionsTTL {
		p.mu.Unlock()
		return e.markdown, nil
	}
	p.mu.Unlock()

	v, err, _ := p.group.Do(strconv.FormatInt(dataSourceID, 10), func() (any, error) {
		descs, err := p.resolver.DescribeTables(ctx, dataSourceID)
		if err != nil {
			return nil, err
		}
		md := schema.DescribeTablesMarkdown(descs)

		p.mu.Lock()
		p.descs[dataSourceID] = descEntry{markdown: md, fetchedAt: time.Now()}
		p.mu.Unlock()
		return md, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// InvalidateDescriptions drops the cached description document for one data
// source. Called after curated descriptions are rewritten.
func (p *Pipeline) InvalidateDescriptions(dataSourceID int64) {
	p.mu.Lock()
	delete(p.descs, dataSourceID)
	p.mu.Unlock()
}

func buildMessages(turns []models.ContextTurn, userPrompt string) []llm.Message {
	msgs := make([]llm.Message, 0, len(turns)+2)
	msgs = append(msgs, llm.Message{Role: llm.RoleSystem, Content: assistantSystemPrompt})
	for _, t := range turns {
		role := t.Role
		if role != llm.RoleAssistant {
			role = llm.RoleUser
		}
		msgs = append(msgs, llm.Message{Role: role, Content: t.Content})
	}
	return append(msgs, llm.Message{Role: llm.RoleUser, Content: userPrompt})
}

// parseTableList turns the model's free-form answer into a deduplicated,
// order-preserving list of table names.
func parseTableList(raw string) []string {
	raw = strings.ReplaceAll(raw, "\n", ",")
	seen := make(map[string]bool)
	var names []string
	for _, part := range strings.Split(raw, ",") {
		name := strings.Trim(strings.TrimSpace(part), "`'\".")
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names
}

// cleanSQL strips the code fences models sometimes emit despite instructions.
func cleanSQL(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```sql")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
		s = strings.TrimSpace(s)
	}
	return s
}

// selectTables asks the model for the relevant tables and validates its
// answer against the data source's live table list. Unknown names are logged
// and dropped; if nothing survives, every known table is used so generation
// can still proceed.
func (p *Pipeline) selectTables(ctx context.Context, req models.GenerationRequest) ([]string, error) {
	if p.llm == nil {
		return nil, ErrLLMUnavailable
	}

	md, err := p.tableDescriptionsMarkdown(ctx, req.DataSourceID)
	if err != nil {
		return nil, err
	}

	raw, err := p.llm.Complete(ctx, buildMessages(req.Context, tableSelectorPrompt(md, req.Question)))
	if err != nil {
		return nil, err
	}

	selected := parseTableList(raw)
	if len(selected) == 0 {
		return nil, ErrNoTablesSelected
	}

	known, err := p.resolver.ListTableNames(ctx, req.DataSourceID)
	if err != nil {
		return nil, err
	}
	knownSet := make(map[string]bool, len(known))
	for _, name := range known {
		knownSet[name] = true
	}

	valid := selected[:0:0]
	for _, name := range selected {
		if !knownSet[name] {
			log.Warn().Str("table", name).Int64("datasource_id", req.DataSourceID).
				Msg("model selected unknown table, skipping")
			continue
		}
		valid = append(valid, name)
	}
	if len(valid) == 0 {
		log.Warn().Int64("datasource_id", req.DataSourceID).
			Msg("no selected table exists, falling back to all tables")
		return known, nil
	}
	return valid, nil
}

// Generate runs the full pipeline synchronously and returns the generated
// SQL with the tables it was grounded on.
func (p *Pipeline) Generate(ctx context.Context, req models.GenerationRequest) (*models.GenerationResponse, error) {
	tables, err := p.selectTables(ctx, req)
	if err != nil {
		return nil, err
	}

	schemas, err := p.resolver.Resolve(ctx, req.DataSourceID, tables)
	if err != nil {
		return nil, err
	}

	raw, err := p.llm.Complete(ctx, buildMessages(req.Context, sqlPrompt(schema.ToMarkdown(schemas), req.Question)))
	if err != nil {
		return nil, err
	}

	return &models.GenerationResponse{
		Status:     "success",
		SQL:        cleanSQL(raw),
		UsedTables: tables,
	}, nil
}

// GenerateStream runs the pipeline while reporting progress through emit.
// Each stage emits a step event when it starts and again when it completes;
// the SQL text itself streams as sql events, bracketed by one empty chunk on
// each side. An error from emit (client gone) aborts the run.
func (p *Pipeline) GenerateStream(ctx context.Context, req models.GenerationRequest, emit EmitFunc) error {
	if err := emit(stepEvent(StageTableSelection, "Finding relevant tables",
		"Selecting the tables related to your question", StatusInProgress, nil)); err != nil {
		return err
	}
	tables, err := p.selectTables(ctx, req)
	if err != nil {
		return err
	}
	if err := emit(stepEvent(StageTableSelection, "Finding relevant tables",
		"Selected the tables related to your question", StatusDone,
		map[string]any{"tables": tables})); err != nil {
		return err
	}

	if err := emit(stepEvent(StageSchemaAssembly, "Organizing schema",
		"Reading the structure of the selected tables", StatusInProgress, nil)); err != nil {
		return err
	}
	schemas, err := p.resolver.Resolve(ctx, req.DataSourceID, tables)
	if err != nil {
		return err
	}
	if err := emit(stepEvent(StageSchemaAssembly, "Organizing schema",
		"Read the structure of the selected tables", StatusDone, nil)); err != nil {
		return err
	}

	if err := emit(stepEvent(StageSQLGeneration, "Generating SQL",
		"Writing a SQL query for your question", StatusInProgress, nil)); err != nil {
		return err
	}
	if err := emit(sqlEvent("")); err != nil {
		return err
	}

	messages := buildMessages(req.Context, sqlPrompt(schema.ToMarkdown(schemas), req.Question))
	err = p.llm.Stream(ctx, messages, func(chunk string) error {
		return emit(sqlEvent(chunk))
	})
	if err != nil {
		return err
	}

	if err := emit(sqlEvent("")); err != nil {
		return err
	}
	return emit(stepEvent(StageSQLGeneration, "Generating SQL",
		"Finished writing the SQL query", StatusDone, nil))
}

// Repair asks the model to rewrite a failing query given the error it
// produced.
func (p *Pipeline) Repair(ctx context.Context, req models.FixSQLRequest) (string, error) {
	if p.llm == nil {
		return "", ErrLLMUnavailable
	}

	raw, err := p.llm.Complete(ctx, []llm.Message{
		{Role: llm.RoleUser, Content: repairPrompt(req.Question, req.BrokenSQL, req.ErrorMessage)},
	})
	if err != nil {
		return "", err
	}
	return cleanSQL(raw), nil
}

// SuggestQueries proposes natural-language questions a user could ask of the
// data source, one per returned entry.
func (p *Pipeline) SuggestQueries(ctx context.Context, dataSourceID int64) ([]string, error) {
	if p.llm == nil {
		return nil, ErrLLMUnavailable
	}

	md, err := p.tableDescriptionsMarkdown(ctx, dataSourceID)
	if err != nil {
		return nil, err
	}

	raw, err := p.llm.Complete(ctx, []llm.Message{
		{Role: llm.RoleUser, Content: suggestPrompt(md)},
	})
	if err != nil {
		return nil, err
	}

	var suggestions []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "-*0123456789. "))
		if line == "" {
			continue
		}
		suggestions = append(suggestions, line)
		if len(suggestions) == maxSuggestions {
			break
		}
	}
	return suggestions, nil
}

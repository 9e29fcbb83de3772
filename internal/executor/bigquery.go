package executor

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/queryloom/queryloom/internal/models"
)

// runBigQuery executes a statement through the BigQuery SDK. The warehouse
// has no database/sql driver, so it bypasses the shared connection path.
func runBigQuery(ctx context.Context, cfg models.DataSourceConfig, sqlText string) (*models.QueryResult, error) {
	if cfg.ProjectID == "" {
		return nil, fmt.Errorf("bigquery: project_id is required")
	}

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := bigquery.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("bigquery.NewClient: %w", err)
	}
	defer client.Close()

	q := client.Query(sqlText)
	if cfg.Location != "" {
		q.Location = cfg.Location
	}

	job, err := q.Run(ctx)
	if err != nil {
		return nil, fmt.Errorf("query run: %w", err)
	}
	status, err := job.Wait(ctx)
	if err != nil {
		return nil, fmt.Errorf("job wait: %w", err)
	}
	if err := status.Err(); err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}

	it, err := job.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("job read: %w", err)
	}

	result := &models.QueryResult{Rows: [][]any{}}
	for {
		var row []bigquery.Value
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}

		if result.Columns == nil && it.Schema != nil {
			for _, f := range it.Schema {
				result.Columns = append(result.Columns, f.Name)
			}
		}

		vals := make([]any, len(row))
		for i, v := range row {
			vals[i] = v
		}
		result.Rows = append(result.Rows, vals)
	}
	if result.Columns == nil {
		result.Columns = []string{}
	}
	result.NumRows = len(result.Rows)
	return result, nil
}

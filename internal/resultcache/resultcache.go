// Package resultcache persists full query results keyed by query ID, so the
// execute response can truncate large row sets while retrieval endpoints
// still serve the complete data.
package resultcache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/queryloom/queryloom/internal/models"
)

// ErrNotFound is returned when no result exists for the given query ID.
var ErrNotFound = errors.New("query result not found")

// Cache stores and retrieves complete query results.
type Cache interface {
	Save(queryID string, result *models.QueryResult) error
	Load(queryID string) (*models.QueryResult, error)
}

// FileCache keeps one JSON document per query ID under a base directory.
type FileCache struct {
	dir string
}

func NewFileCache(dir string) (*FileCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating result cache dir: %w", err)
	}
	return &FileCache{dir: dir}, nil
}

// path maps a query ID to its file, rejecting anything that could escape the
// cache directory. IDs are hex strings; anything else is treated as unknown.
func (c *FileCache) path(queryID string) (string, error) {
	if queryID == "" || strings.ContainsAny(queryID, "/\\.") {
		return "", ErrNotFound
	}
	return filepath.Join(c.dir, queryID+".json"), nil
}

func (c *FileCache) Save(queryID string, result *models.QueryResult) error {
	path, err := c.path(queryID)
	if err != nil {
		return err
	}
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encoding query result: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing query result: %w", err)
	}
	return nil
}

func (c *FileCache) Load(queryID string) (*models.QueryResult, error) {
	path, err := c.path(queryID)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("reading query result: %w", err)
	}
	var result models.QueryResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("decoding query result: %w", err)
	}
	return &result, nil
}

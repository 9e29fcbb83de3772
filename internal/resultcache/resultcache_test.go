package resultcache

import (
	"errors"
	"reflect"
	"testing"

	"github.com/queryloom/queryloom/internal/models"
)

func TestFileCacheRoundTrip(t *testing.T) {
	cache, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}

	result := &models.QueryResult{
		Columns: []string{"id", "name"},
		Rows:    [][]any{{float64(1), "alice"}, {float64(2), nil}},
		NumRows: 2,
	}
	if err := cache.Save("abc123", result); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := cache.Load("abc123")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(loaded, result) {
		t.Errorf("loaded = %+v, want %+v", loaded, result)
	}
}

func TestFileCacheEmptyResult(t *testing.T) {
	cache, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}

	// An empty result is still a stored result, distinct from not-found.
	empty := &models.QueryResult{Columns: []string{"id"}, Rows: [][]any{}, NumRows: 0}
	if err := cache.Save("deadbeef", empty); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := cache.Load("deadbeef")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.NumRows != 0 || len(loaded.Rows) != 0 {
		t.Errorf("loaded = %+v, want empty result", loaded)
	}
}

func TestFileCacheNotFound(t *testing.T) {
	cache, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	if _, err := cache.Load("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Load(missing) = %v, want ErrNotFound", err)
	}
}

func TestFileCacheRejectsPathLikeIDs(t *testing.T) {
	cache, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	for _, id := range []string{"", "../escape", "a/b", `a\b`, "x.json"} {
		if _, err := cache.Load(id); !errors.Is(err, ErrNotFound) {
			t.Errorf("Load(%q) = %v, want ErrNotFound", id, err)
		}
		if err := cache.Save(id, &models.QueryResult{}); !errors.Is(err, ErrNotFound) {
			t.Errorf("Save(%q) = %v, want ErrNotFound", id, err)
		}
	}
}

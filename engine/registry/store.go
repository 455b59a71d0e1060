package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/wessley-labs/docsingest/engine/domain"
	"github.com/wessley-labs/docsingest/pkg/repo"
)

// JSONStore is a repo.Repository[domain.TaskRecord, string] backed by a
// single JSON file, rewritten in full after every mutation — the
// ".task_store.json" persistence mechanism from spec §6.2, adapted from
// cmd/ingest/main.go's loadState/saveState round-trip.
type JSONStore struct {
	mu     sync.Mutex
	path   string
	items  map[string]domain.TaskRecord
	logger *slog.Logger
}

var _ repo.Repository[domain.TaskRecord, string] = (*JSONStore)(nil)

// NewJSONStore loads path if present, else starts with an empty map.
func NewJSONStore(path string, logger *slog.Logger) (*JSONStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &JSONStore{path: path, items: map[string]domain.TaskRecord{}, logger: logger}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("load task store: %w", err)
	}
	if len(data) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(data, &s.items); err != nil {
		return nil, fmt.Errorf("parse task store: %w", err)
	}
	return s, nil
}

func (s *JSONStore) Get(_ context.Context, id string) (domain.TaskRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.items[id]
	if !ok {
		return domain.TaskRecord{}, domain.ErrTaskNotFound
	}
	return t, nil
}

// List returns tasks optionally filtered by a "prefix" entry in opts.Filter
// (matched against TaskID), sorted by TaskID for deterministic pagination.
func (s *JSONStore) List(_ context.Context, opts repo.ListOpts) ([]domain.TaskRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prefix, _ := opts.Filter["prefix"].(string)
	out := make([]domain.TaskRecord, 0, len(s.items))
	for _, t := range s.items {
		if prefix != "" && !strings.HasPrefix(t.TaskID, prefix) {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TaskID < out[j].TaskID })

	if opts.Offset > 0 {
		if opts.Offset >= len(out) {
			return nil, nil
		}
		out = out[opts.Offset:]
	}
	if opts.Limit > 0 && opts.Limit < len(out) {
		out = out[:opts.Limit]
	}
	return out, nil
}

func (s *JSONStore) Create(ctx context.Context, entity domain.TaskRecord) (domain.TaskRecord, error) {
	return s.upsert(ctx, entity)
}

func (s *JSONStore) Update(ctx context.Context, entity domain.TaskRecord) (domain.TaskRecord, error) {
	return s.upsert(ctx, entity)
}

func (s *JSONStore) upsert(_ context.Context, entity domain.TaskRecord) (domain.TaskRecord, error) {
	s.mu.Lock()
	s.items[entity.TaskID] = entity
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.persist(snapshot)
	return entity, nil
}

func (s *JSONStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	delete(s.items, id)
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.persist(snapshot)
	return nil
}

func (s *JSONStore) snapshotLocked() map[string]domain.TaskRecord {
	snap := make(map[string]domain.TaskRecord, len(s.items))
	for k, v := range s.items {
		snap[k] = v
	}
	return snap
}

// persist writes the full map to disk. Write failures are logged, not
// raised, per spec §4.1: "Write failures are logged but do not fail the
// operation."
func (s *JSONStore) persist(snapshot map[string]domain.TaskRecord) {
	data, err := json.Marshal(snapshot)
	if err != nil {
		s.logger.Error("marshal task store", "error", err)
		return
	}
	dir := filepath.Dir(s.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			s.logger.Error("create task store dir", "path", dir, "error", err)
			return
		}
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		s.logger.Error("write task store", "path", s.path, "error", err)
		return
	}
	if err := os.Rename(tmp, s.path); err != nil {
		s.logger.Error("rename task store", "path", s.path, "error", err)
	}
}

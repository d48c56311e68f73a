package keystore

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nerrad567/homestar-hub/internal/infrastructure/config"
	"github.com/nerrad567/homestar-hub/internal/infrastructure/database"
)

// RunnerKey is the document holding the hub's persisted settings.
const RunnerKey = "/homestar/runner"

const pathSeparator = "/"

// Store reads and writes keystore documents.
type Store struct {
	db *database.DB
}

// New creates a Store on a migrated database.
func New(db *database.DB) *Store {
	return &Store{db: db}
}

// Get returns the document at key, or an empty mapping if none is stored.
func (s *Store) Get(ctx context.Context, key string) (map[string]any, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM keystore WHERE key = ?", key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return map[string]any{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading keystore %q: %w", key, err)
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.UseNumber()

	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding keystore %q: %w", key, err)
	}
	if doc == nil {
		doc = map[string]any{}
	}
	return doc, nil
}

// Put replaces the document at key.
func (s *Store) Put(ctx context.Context, key string, doc map[string]any) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encoding keystore %q: %w", key, err)
	}

	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO keystore (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, string(data), time.Now().UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("writing keystore %q: %w", key, err)
	}
	return nil
}

// Tree returns the document at key as a configuration tree.
func (s *Store) Tree(ctx context.Context, key string) (config.Tree, error) {
	doc, err := s.Get(ctx, key)
	if err != nil {
		return config.Tree{}, err
	}
	return config.NewTree(doc), nil
}

// Set stores value at the slash-separated leaf path inside the document at
// key, creating intermediate mappings as needed.
//
// Parameters:
//   - ctx: Context for cancellation
//   - key: Document key, usually RunnerKey
//   - path: Leaf path such as "secrets/session"
//   - value: JSON-encodable value
//
// Returns:
//   - error: ErrEmptyPath, ErrNotMapping or a storage error
func (s *Store) Set(ctx context.Context, key, path string, value any) error {
	segs := splitPath(path)
	if len(segs) == 0 {
		return ErrEmptyPath
	}

	doc, err := s.Get(ctx, key)
	if err != nil {
		return err
	}

	d := doc
	for _, seg := range segs[:len(segs)-1] {
		switch next := d[seg].(type) {
		case map[string]any:
			d = next
		case nil:
			created := map[string]any{}
			d[seg] = created
			d = created
		default:
			return fmt.Errorf("%w: %s", ErrNotMapping, path)
		}
	}
	d[segs[len(segs)-1]] = value

	return s.Put(ctx, key, doc)
}

// Lookup returns the value at the leaf path inside the document at key.
func (s *Store) Lookup(ctx context.Context, key, path string) (any, bool, error) {
	tree, err := s.Tree(ctx, key)
	if err != nil {
		return nil, false, err
	}
	v, ok := tree.Get(strings.Join(splitPath(path), pathSeparator))
	return v, ok, nil
}

func splitPath(path string) []string {
	var segs []string
	for _, seg := range strings.Split(path, pathSeparator) {
		if seg != "" {
			segs = append(segs, seg)
		}
	}
	return segs
}

// Package datalog is the staging list of drawn map features waiting for an
// explicit save.
//
// The whole log is one JSON array stored under a fixed key of a KV store,
// the same shape the browser kept in local storage. The backend knows nothing
// about an entry until it is saved.
package datalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/paulmach/orb/geojson"
	"go.uber.org/zap"

	"github.com/joeblew999/plat-mapdraw/internal/feature"
)

// DefaultKey is the storage key holding the log.
const DefaultKey = "mapDataLog"

// ErrEntryNotFound is returned when an id is not in the log.
var ErrEntryNotFound = errors.New("data log entry not found")

// Entry is one staged feature.
type Entry struct {
	ID        string           `json:"id"`
	Feature   *geojson.Feature `json:"feature"`
	Label     *string          `json:"label"`
	Timestamp int64            `json:"timestamp"`
}

// Type returns the feature type of the entry.
func (e Entry) Type() (feature.Type, error) {
	return feature.TypeOf(e.Feature)
}

// LabelString returns the label or "".
func (e Entry) LabelString() string {
	if e.Label == nil {
		return ""
	}
	return *e.Label
}

// Change describes a successful mutation of the log.
type Change struct {
	Action string   // "added", "removed", "cleared"
	IDs    []string // affected entry ids
	Count  int      // entries left in the log
}

// Option configures a Log.
type Option func(*Log)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(l *Log) { l.logger = logger }
}

// OnChange registers a callback run after every successful mutation.
func OnChange(fn func(Change)) Option {
	return func(l *Log) { l.onChange = fn }
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(l *Log) { l.now = now }
}

// Log is the data log. It serialises read-modify-write cycles on its KV, so
// it must be the only writer of its key.
type Log struct {
	kv       KV
	key      string
	mu       sync.Mutex
	logger   *zap.Logger
	onChange func(Change)
	now      func() time.Time
}

// New creates a data log on kv.
func New(kv KV, opts ...Option) *Log {
	l := &Log{
		kv:     kv,
		key:    DefaultKey,
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// List returns the entries in insertion order.
func (l *Log) List(ctx context.Context) ([]Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.load(ctx)
}

// Get returns one entry by id.
func (l *Log) Get(ctx context.Context, id string) (Entry, error) {
	entries, err := l.List(ctx)
	if err != nil {
		return Entry{}, err
	}
	for _, e := range entries {
		if e.ID == id {
			return e, nil
		}
	}
	return Entry{}, fmt.Errorf("%w: %s", ErrEntryNotFound, id)
}

// Add validates f and appends it to the log. If the log cannot be written
// the entry is not added.
func (l *Log) Add(ctx context.Context, f *geojson.Feature, label string) (Entry, error) {
	if err := feature.Validate(f); err != nil {
		return Entry{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	entries, err := l.load(ctx)
	if err != nil {
		return Entry{}, err
	}

	e := Entry{
		ID:        uuid.NewString(),
		Feature:   f,
		Timestamp: l.now().UnixMilli(),
	}
	if label != "" {
		e.Label = &label
	}

	if err := l.store(ctx, append(entries, e)); err != nil {
		return Entry{}, err
	}

	l.logger.Debug("data log entry added", zap.String("id", e.ID), zap.Int("count", len(entries)+1))
	l.notify(Change{Action: "added", IDs: []string{e.ID}, Count: len(entries) + 1})
	return e, nil
}

// Remove deletes one entry.
func (l *Log) Remove(ctx context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	entries, err := l.load(ctx)
	if err != nil {
		return err
	}

	kept := entries[:0]
	found := false
	for _, e := range entries {
		if e.ID == id {
			found = true
			continue
		}
		kept = append(kept, e)
	}
	if !found {
		return fmt.Errorf("%w: %s", ErrEntryNotFound, id)
	}

	if err := l.store(ctx, kept); err != nil {
		return err
	}
	l.notify(Change{Action: "removed", IDs: []string{id}, Count: len(kept)})
	return nil
}

// RemoveMany deletes every listed entry still present and reports how many
// were removed. Unknown ids are ignored.
func (l *Log) RemoveMany(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	entries, err := l.load(ctx)
	if err != nil {
		return 0, err
	}

	kept := entries[:0]
	var removed []string
	for _, e := range entries {
		if _, ok := drop[e.ID]; ok {
			removed = append(removed, e.ID)
			continue
		}
		kept = append(kept, e)
	}
	if len(removed) == 0 {
		return 0, nil
	}

	if err := l.store(ctx, kept); err != nil {
		return 0, err
	}
	l.notify(Change{Action: "removed", IDs: removed, Count: len(kept)})
	return len(removed), nil
}

// Clear empties the log.
func (l *Log) Clear(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.kv.Delete(ctx, l.key); err != nil {
		return fmt.Errorf("failed to clear data log: %w", err)
	}
	l.notify(Change{Action: "cleared"})
	return nil
}

// load reads the stored array. A missing key is an empty log. Data that no
// longer decodes is logged and treated as empty. Entries whose feature no
// longer validates are logged and skipped; the next write drops them.
func (l *Log) load(ctx context.Context) ([]Entry, error) {
	data, err := l.kv.Get(ctx, l.key)
	if errors.Is(err, ErrNotFound) {
		return []Entry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read data log: %w", err)
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		l.logger.Warn("discarding undecodable data log", zap.String("key", l.key), zap.Error(err))
		return []Entry{}, nil
	}
	valid := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if err := feature.Validate(e.Feature); err != nil {
			l.logger.Warn("skipping invalid data log entry", zap.String("id", e.ID), zap.Error(err))
			continue
		}
		valid = append(valid, e)
	}
	return valid, nil
}

func (l *Log) store(ctx context.Context, entries []Entry) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("failed to encode data log: %w", err)
	}
	if err := l.kv.Set(ctx, l.key, data); err != nil {
		return fmt.Errorf("failed to write data log: %w", err)
	}
	return nil
}

func (l *Log) notify(c Change) {
	if l.onChange != nil {
		l.onChange(c)
	}
}

// Collection builds the FeatureCollection of the given entries.
func Collection(entries []Entry) *geojson.FeatureCollection {
	items := make([]feature.Item, len(entries))
	for i, e := range entries {
		items[i] = feature.Item{
			ID:        e.ID,
			Label:     e.LabelString(),
			Timestamp: e.Timestamp,
			Feature:   e.Feature,
		}
	}
	return feature.Collection(items)
}

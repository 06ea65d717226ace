// Package save implements Save & Complete: submit every data log entry to
// the backend and drop only the ones the backend accepted.
//
// There is no transaction across entries. A rejected entry stays in the log
// so the user can retry or delete it.
package save

import (
	"context"
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/joeblew999/plat-mapdraw/internal/datalog"
)

// DefaultConcurrency is the number of entries submitted at once.
const DefaultConcurrency = 4

// Submitter writes one entry to the backend and returns the created row id.
type Submitter interface {
	Submit(ctx context.Context, e datalog.Entry) (string, error)
}

// SubmitFunc adapts a function to Submitter.
type SubmitFunc func(ctx context.Context, e datalog.Entry) (string, error)

func (f SubmitFunc) Submit(ctx context.Context, e datalog.Entry) (string, error) {
	return f(ctx, e)
}

// Saved is an entry the backend accepted.
type Saved struct {
	EntryID string `json:"entryId" doc:"Data log entry id"`
	RowID   string `json:"rowId,omitempty" doc:"Id of the created backend row"`
}

// Failure is an entry the backend rejected.
type Failure struct {
	EntryID string `json:"entryId" doc:"Data log entry id"`
	Err     error  `json:"-"`
}

// Result reports what happened to each entry, in log order.
type Result struct {
	Saved  []Saved
	Failed []Failure
}

// Err combines the per-entry failures, or returns nil.
func (r Result) Err() error {
	var err error
	for _, f := range r.Failed {
		err = multierr.Append(err, fmt.Errorf("entry %s: %w", f.EntryID, f.Err))
	}
	return err
}

// Saver runs Save & Complete against a data log.
type Saver struct {
	log         *datalog.Log
	submitter   Submitter
	concurrency int
	logger      *zap.Logger
}

// New creates a Saver. concurrency <= 0 uses DefaultConcurrency.
func New(log *datalog.Log, submitter Submitter, concurrency int, logger *zap.Logger) *Saver {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Saver{log: log, submitter: submitter, concurrency: concurrency, logger: logger}
}

type outcome struct {
	rowID string
	err   error
}

// Complete submits every entry and removes the saved ones from the log. The
// error is non-nil only when the log itself could not be read or updated;
// backend rejections are reported in Result.Failed.
func (s *Saver) Complete(ctx context.Context) (Result, error) {
	entries, err := s.log.List(ctx)
	if err != nil {
		return Result{}, err
	}
	if len(entries) == 0 {
		return Result{}, nil
	}

	outcomes := make([]outcome, len(entries))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(s.concurrency)
	for i, e := range entries {
		eg.Go(func() error {
			rowID, err := s.submitter.Submit(egCtx, e)
			outcomes[i] = outcome{rowID: rowID, err: err}
			// A rejected entry must not cancel its siblings.
			return nil
		})
	}
	_ = eg.Wait()

	var res Result
	var savedIDs []string
	for i, e := range entries {
		o := outcomes[i]
		if o.err != nil {
			s.logger.Warn("entry not saved", zap.String("entry", e.ID), zap.Error(o.err))
			res.Failed = append(res.Failed, Failure{EntryID: e.ID, Err: o.err})
			continue
		}
		res.Saved = append(res.Saved, Saved{EntryID: e.ID, RowID: o.rowID})
		savedIDs = append(savedIDs, e.ID)
	}

	if _, err := s.log.RemoveMany(ctx, savedIDs); err != nil {
		return res, fmt.Errorf("saved %d entries but could not update the data log: %w", len(savedIDs), err)
	}

	s.logger.Info("save and complete finished",
		zap.Int("saved", len(res.Saved)), zap.Int("failed", len(res.Failed)))
	return res, nil
}

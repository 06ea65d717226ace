// Package service wires the drawing session, data log and save flow into
// the single workspace the API and CLI operate on.
package service

import (
	"context"
	"errors"
	"sync"

	"github.com/paulmach/orb"
	"go.uber.org/zap"

	"github.com/joeblew999/plat-mapdraw/internal/datalog"
	"github.com/joeblew999/plat-mapdraw/internal/drawing"
	"github.com/joeblew999/plat-mapdraw/internal/save"
)

// ErrSaveUnavailable is returned by Save when no backend is configured.
var ErrSaveUnavailable = errors.New("save is unavailable: no backend configured")

// Workspace owns one drawing session and the data log its shapes go to.
// It plays the part of the single browser tab: the only writer of the log.
type Workspace struct {
	mu      sync.Mutex
	session *drawing.Session
	log     *datalog.Log
	saver   *save.Saver
	logger  *zap.Logger
}

// NewWorkspace creates a workspace. surface and saver may be nil.
func NewWorkspace(log *datalog.Log, saver *save.Saver, surface drawing.Surface, logger *zap.Logger) *Workspace {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Workspace{
		session: drawing.NewSession(surface),
		log:     log,
		saver:   saver,
		logger:  logger,
	}
}

// Log returns the data log.
func (w *Workspace) Log() *datalog.Log {
	return w.log
}

// CanSave reports whether Save & Complete is available.
func (w *Workspace) CanSave() bool {
	return w.saver != nil
}

// State returns the drawing session state.
func (w *Workspace) State() drawing.State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.session.State()
}

// Start selects a drawing tool, discarding any unfinished shape.
func (w *Workspace) Start(mode drawing.Mode) (drawing.State, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	discarded, err := w.session.Start(mode)
	if err != nil {
		return w.session.State(), err
	}
	if discarded > 0 {
		w.logger.Debug("discarded unfinished shape", zap.Int("vertices", discarded), zap.String("mode", string(mode)))
	}
	return w.session.State(), nil
}

// Stop leaves drawing mode, discarding any unfinished shape.
func (w *Workspace) Stop() drawing.State {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.session.Stop()
	return w.session.State()
}

// Undo removes the last area vertex.
func (w *Workspace) Undo() (drawing.State, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	err := w.session.Undo()
	return w.session.State(), err
}

// Click handles a map click. When it completes a pin, the pin is added to
// the data log with label and the new entry returned. If the log cannot
// store it the session stays in pin mode.
func (w *Workspace) Click(ctx context.Context, p orb.Point, label string) (drawing.State, *datalog.Entry, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	f, err := w.session.Click(p)
	if err != nil || f == nil {
		return w.session.State(), nil, err
	}
	e, err := w.log.Add(ctx, f, label)
	if err != nil {
		return w.session.State(), nil, err
	}
	w.session.Commit()
	return w.session.State(), &e, nil
}

// Finish completes the area being drawn and adds it to the data log. If the
// log cannot store it the vertices are kept so Finish can be retried.
func (w *Workspace) Finish(ctx context.Context, label string) (drawing.State, *datalog.Entry, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	f, err := w.session.Finish()
	if err != nil {
		return w.session.State(), nil, err
	}
	e, err := w.log.Add(ctx, f, label)
	if err != nil {
		return w.session.State(), nil, err
	}
	w.session.Commit()
	return w.session.State(), &e, nil
}

// Save runs Save & Complete.
func (w *Workspace) Save(ctx context.Context) (save.Result, error) {
	if w.saver == nil {
		return save.Result{}, ErrSaveUnavailable
	}
	return w.saver.Complete(ctx)
}

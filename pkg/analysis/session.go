package analysis

import (
	"context"
	"errors"
	"sync"

	"gelquant/internal/models"
	"gelquant/pkg/config"
	"gelquant/pkg/gelimage"
)

// ErrSuperseded is returned for a run that finished after a newer run was
// submitted to the same Session
var ErrSuperseded = errors.New("analysis: run superseded by a newer request")

// Session lets interactive callers fire a new run on every settings change.
// Each Submit takes a new generation and cancels the run before it; only
// the latest generation ever delivers a result.
type Session struct {
	proc *Processor

	mu         sync.Mutex
	generation uint64
	cancel     context.CancelFunc

	// afterRun is called between processing and the generation check
	afterRun func()
}

// NewSession wraps proc. A nil proc gets a single-core processor.
func NewSession(proc *Processor) *Session {
	if proc == nil {
		proc = NewProcessor(nil)
	}
	return &Session{proc: proc}
}

// Submit runs the pipeline as the newest generation. It returns
// ErrSuperseded when another Submit started before this one finished.
func (s *Session) Submit(ctx context.Context, img *gelimage.ImageBuffer, settings config.GelSettings, overrides models.ManualOverrides) (*Result, error) {
	gen, runCtx := s.next(ctx)
	defer s.release(gen)

	res, err := s.proc.Process(runCtx, img, settings, overrides)
	if s.afterRun != nil {
		s.afterRun()
	}
	if !s.IsCurrent(gen) {
		return nil, ErrSuperseded
	}
	if err != nil {
		return nil, err
	}
	res.Generation = gen
	return res, nil
}

// Generation returns the latest generation handed out
func (s *Session) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// IsCurrent reports whether gen is still the latest generation
func (s *Session) IsCurrent(gen uint64) bool {
	return s.Generation() == gen
}

// next cancels the running generation and starts a new one
func (s *Session) next(ctx context.Context) (uint64, context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
	s.generation++
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	return s.generation, runCtx
}

// release drops the cancel func of gen once it is done. A newer generation
// keeps its own.
func (s *Session) release(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation == gen && s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

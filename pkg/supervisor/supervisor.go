// Package supervisor contains pane render failures and the engine's timed
// recovery mode. A failing pane degrades to a fallback render; a
// catastrophic failure degrades the shell, never crashes it.
package supervisor

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/paneshell/paneshell/pkg/model"
)

// maxErrors bounds the retained error history.
const maxErrors = 100

// Supervisor isolates render failures and manages recovery mode.
type Supervisor struct {
	cooldown time.Duration

	mu         sync.Mutex
	errors     []model.LayoutError
	recovering bool
	timer      *time.Timer
	seq        uint64
	onRecovery func(recovering bool)
}

// New creates a supervisor. cooldown is how long recovery mode persists
// after the last critical error.
func New(cooldown time.Duration) *Supervisor {
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}
	return &Supervisor{cooldown: cooldown}
}

// OnRecoveryChange registers a hook fired when recovery mode toggles, so
// the shell can show a degraded-state indicator.
func (s *Supervisor) OnRecoveryChange(fn func(recovering bool)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onRecovery = fn
}

// RenderPane runs one pane's render in isolation. A panic is contained:
// the pane gets a fallback string and a render-category error is recorded;
// the rest of the shell is unaffected.
func (s *Supervisor) RenderPane(viewID string, render func() string) (out string, failed bool) {
	defer func() {
		if r := recover(); r != nil {
			s.Record(model.CategoryRender, model.SeverityError,
				fmt.Sprintf("pane %s render panicked: %v", viewID, r), viewID)
			out = fmt.Sprintf("pane %s failed to render", viewID)
			failed = true
		}
	}()
	return render(), false
}

// Guard wraps orchestrator-level work. A panic is recorded as critical and
// enters recovery mode; an error return is recorded but does not.
func (s *Supervisor) Guard(context string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			s.Record(model.CategoryInternal, model.SeverityCritical,
				fmt.Sprintf("%s panicked: %v", context, r), context)
			err = fmt.Errorf("%s: recovered from panic: %v", context, r)
		}
	}()
	if err := fn(); err != nil {
		s.Record(model.CategoryInternal, model.SeverityError, err.Error(), context)
		return err
	}
	return nil
}

// Record appends a layout error. Critical errors enter (or extend)
// recovery mode; the mode auto-clears after the cooldown if no further
// critical errors occur.
func (s *Supervisor) Record(cat model.ErrorCategory, sev model.ErrorSeverity, msg, context string) model.LayoutError {
	le := model.LayoutError{
		ID:        uuid.NewString(),
		Category:  cat,
		Severity:  sev,
		Message:   msg,
		Context:   context,
		Timestamp: time.Now(),
	}

	s.mu.Lock()
	s.errors = append(s.errors, le)
	if len(s.errors) > maxErrors {
		s.errors = s.errors[len(s.errors)-maxErrors:]
	}
	var fire func(bool)
	if sev == model.SeverityCritical {
		entered := !s.recovering
		s.recovering = true
		s.seq++
		seq := s.seq
		if s.timer != nil {
			s.timer.Stop()
		}
		s.timer = time.AfterFunc(s.cooldown, func() {
			s.clearRecovery(seq)
		})
		if entered {
			fire = s.onRecovery
		}
	}
	s.mu.Unlock()

	if fire != nil {
		fire(true)
	}
	return le
}

func (s *Supervisor) clearRecovery(seq uint64) {
	s.mu.Lock()
	if seq != s.seq || !s.recovering {
		s.mu.Unlock()
		return
	}
	s.recovering = false
	s.timer = nil
	fire := s.onRecovery
	s.mu.Unlock()

	if fire != nil {
		fire(false)
	}
}

// Recovering reports whether the engine is in recovery mode.
func (s *Supervisor) Recovering() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recovering
}

// Errors returns a copy of the retained error history.
func (s *Supervisor) Errors() []model.LayoutError {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.LayoutError, len(s.errors))
	copy(out, s.errors)
	return out
}

// Resolve marks an error resolved by id.
func (s *Supervisor) Resolve(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.errors {
		if s.errors[i].ID == id {
			s.errors[i].Resolved = true
			return
		}
	}
}

// Close cancels the recovery timer.
func (s *Supervisor) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

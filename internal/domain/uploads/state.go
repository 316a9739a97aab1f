package uploads

import (
	"errors"
	"fmt"
	"sync"
)

// ErrAnalysisInFlight rejects a new selection while a call is outstanding;
// at most one analysis runs per session.
var ErrAnalysisInFlight = errors.New("an analysis is already in flight")

// State enum for one upload surface
type State string

const (
	StateIdle      State = "idle"
	StateSelected  State = "selected"
	StateAnalyzing State = "analyzing"
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
)

// transitions defines the legal moves; anything else is rejected, which rules
// out impossible combinations like "loading" and "error" at the same time.
var transitions = map[State][]State{
	StateIdle:      {StateSelected},
	StateSelected:  {StateSelected, StateAnalyzing, StateIdle},
	StateAnalyzing: {StateSucceeded, StateFailed},
	StateSucceeded: {StateSelected, StateIdle},
	StateFailed:    {StateSelected, StateIdle},
}

// CanTransition reports whether moving from s to next is legal.
func (s State) CanTransition(next State) bool {
	for _, t := range transitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// Session tracks a single upload surface. At most one analysis call is
// outstanding per session; the generation counter lets a stale response that
// arrives after the user moved on be discarded without effect.
type Session struct {
	mu    sync.Mutex
	state State
	gen   uint64
}

func NewSession() *Session {
	return &Session{state: StateIdle}
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Select records a chosen file. Selecting again replaces the previous choice;
// selecting while a call is outstanding fails with ErrAnalysisInFlight.
func (s *Session) Select() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateAnalyzing {
		return ErrAnalysisInFlight
	}
	return s.moveTo(StateSelected)
}

// Begin marks the analysis call as in flight and returns the generation the
// eventual result must present to be applied.
func (s *Session) Begin() (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.moveTo(StateAnalyzing); err != nil {
		return 0, err
	}
	return s.gen, nil
}

// Finish applies the outcome of the call started with gen. A result from a
// superseded generation is reported as not applied and changes nothing.
func (s *Session) Finish(gen uint64, succeeded bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen || s.state != StateAnalyzing {
		return false
	}
	next := StateFailed
	if succeeded {
		next = StateSucceeded
	}
	_ = s.moveTo(next)
	return true
}

// Reset abandons the session (navigation away). Any in-flight result becomes
// stale because the generation advances.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateIdle
	s.gen++
}

func (s *Session) moveTo(next State) error {
	if !s.state.CanTransition(next) {
		return fmt.Errorf("illegal upload transition %s -> %s", s.state, next)
	}
	if s.state == StateAnalyzing || next == StateAnalyzing {
		s.gen++
	}
	s.state = next
	return nil
}

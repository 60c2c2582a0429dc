package toggle

import "sync"

type (
	// State holds single control state.
	State struct {
		mu      sync.Mutex
		checked bool
		pending bool
	}

	// Option is either a fixed value or a resolver function,
	// unset options fall back to element attributes at use site.
	Option struct {
		value string
		fn    func() string
	}

	// ConfirmFunc yields a prompt for the prospective state,
	// ok == false means no confirmation needed for that transition.
	ConfirmFunc func(next bool) (msg string, ok bool)
)

// NewState creates state with initial checked value.
func NewState(checked bool) *State {
	return &State{checked: checked}
}

// Checked returns current displayed value.
func (s *State) Checked() (rv bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.checked
}

// Pending reports request-in-flight.
func (s *State) Pending() (rv bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.pending
}

// Acquire marks state pending for the whole transition, it fails
// (ok == false) if another transition is already in flight.
func (s *State) Acquire() (prev, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pending {
		return s.checked, false
	}

	s.pending = true

	return s.checked, true
}

// Set updates displayed value mid-transition (optimistic guess).
func (s *State) Set(checked bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.checked = checked
}

// Finish clears pending and sets the authoritative value.
func (s *State) Finish(checked bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.checked, s.pending = checked, false
}

// Static creates a fixed-value option.
func Static(v string) Option {
	return Option{value: v}
}

// Resolver creates an option resolved on every use.
func Resolver(fn func() string) Option {
	return Option{fn: fn}
}

// Value resolves the option, ok == false for unset options.
func (o Option) Value() (rv string, ok bool) {
	switch {
	case o.fn != nil:
		return o.fn(), true
	case o.value != "":
		return o.value, true
	}

	return "", false
}

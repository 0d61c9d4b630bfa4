package supervisor

import "sync"

// Phase is one frame of the progress indicator.
type Phase int

const (
	Tick0 Phase = iota
	Tick1
	Tick2
	Tick3

	phaseCount = 4
)

func (p Phase) Next() Phase { return (p + 1) % phaseCount }

func (p Phase) String() string {
	switch p {
	case Tick0:
		return "tick0"
	case Tick1:
		return "tick1"
	case Tick2:
		return "tick2"
	case Tick3:
		return "tick3"
	default:
		return "unknown"
	}
}

// State tracks whether a run is outstanding, the progress phase and the last
// published outcome. It is shared by the launcher and the run worker.
type State struct {
	mu      sync.Mutex
	idle    *sync.Cond
	running bool
	phase   Phase
	last    *Outcome
}

func newState() *State {
	s := &State{}
	s.idle = sync.NewCond(&s.mu)
	return s
}

// acquire flips idle -> running; false if a run is already outstanding.
func (s *State) acquire() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return false
	}
	s.running = true
	s.phase = Tick0
	return true
}

func (s *State) advance() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phase = s.phase.Next()
	return s.phase
}

// publish stores the outcome and returns to idle in one critical section.
func (s *State) publish(o Outcome) {
	s.mu.Lock()
	s.last = &o
	s.running = false
	s.phase = Tick0
	s.mu.Unlock()
	s.idle.Broadcast()
}

func (s *State) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *State) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Last returns the most recently published outcome.
func (s *State) Last() (Outcome, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return Outcome{}, false
	}
	return *s.last, true
}

func (s *State) waitIdle() {
	s.mu.Lock()
	for s.running {
		s.idle.Wait()
	}
	s.mu.Unlock()
}

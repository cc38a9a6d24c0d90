package core

// Timer represents a scheduled event
type Timer struct {
	WakeTime uint32
	Handler  func(*Timer) uint8
	Next     *Timer
}

const (
	SF_DONE       = 0
	SF_RESCHEDULE = 1
)

// Scheduler runs timers in wake time order against a 32-bit tick clock.
// Comparisons are wrap safe as long as pending timers lie within half the
// clock range of the current time.
type Scheduler struct {
	list *Timer
	now  uint32
}

// NewScheduler creates a scheduler with the clock at zero.
func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// timeBefore reports whether a is earlier than b.
func timeBefore(a, b uint32) bool {
	return int32(a-b) < 0
}

// Now returns the scheduler clock.
func (s *Scheduler) Now() uint32 { return s.now }

// SetTime moves the clock without dispatching.
func (s *Scheduler) SetTime(now uint32) { s.now = now }

// Schedule adds a timer to the schedule
func (s *Scheduler) Schedule(t *Timer) {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	s.insert(t)
}

// Cancel removes a pending timer. It reports whether the timer was found.
func (s *Scheduler) Cancel(t *Timer) bool {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	for p := &s.list; *p != nil; p = &(*p).Next {
		if *p == t {
			*p = t.Next
			t.Next = nil
			return true
		}
	}
	return false
}

// NextWake returns the wake time of the earliest pending timer.
func (s *Scheduler) NextWake() (uint32, bool) {
	if s.list == nil {
		return 0, false
	}
	return s.list.WakeTime, true
}

// insert keeps the list sorted by WakeTime. Equal wake times run in
// insertion order.
func (s *Scheduler) insert(t *Timer) {
	if s.list == nil || timeBefore(t.WakeTime, s.list.WakeTime) {
		t.Next = s.list
		s.list = t
		return
	}

	current := s.list
	for current.Next != nil && !timeBefore(t.WakeTime, current.Next.WakeTime) {
		current = current.Next
	}

	t.Next = current.Next
	current.Next = t
}

// Dispatch runs every timer due at the current time.
func (s *Scheduler) Dispatch() {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	for s.list != nil && !timeBefore(s.now, s.list.WakeTime) {
		s.fire()
	}
}

// RunUntil advances the clock to until, stepping through every timer due
// on the way so each handler observes its own wake time.
func (s *Scheduler) RunUntil(until uint32) {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	for s.list != nil && !timeBefore(until, s.list.WakeTime) {
		if timeBefore(s.now, s.list.WakeTime) {
			s.now = s.list.WakeTime
		}
		s.fire()
	}
	s.now = until
}

func (s *Scheduler) fire() {
	timer := s.list
	s.list = timer.Next
	timer.Next = nil

	if timer.Handler(timer) == SF_RESCHEDULE {
		s.insert(timer)
	}
}

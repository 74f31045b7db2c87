package connectivity

// Static is a Monitor whose status only changes through Set. It backs the
// --offline flag and tests.
type Static struct {
	b *broadcaster
}

func NewStatic(connected bool) *Static {
	s := Unavailable
	if connected {
		s = Available
	}
	return &Static{b: newBroadcaster(s)}
}

func (s *Static) Connected() bool {
	return s.b.current() == Available
}

func (s *Static) Subscribe(fn func(Status)) func() {
	return s.b.subscribe(fn)
}

// Set publishes a new status; subscribers are only notified on change.
func (s *Static) Set(status Status) {
	s.b.publish(status)
}

// SetConnected is Set(Available) or Set(Lost).
func (s *Static) SetConnected(connected bool) {
	if connected {
		s.Set(Available)
		return
	}
	s.Set(Lost)
}

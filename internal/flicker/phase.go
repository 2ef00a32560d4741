package flicker

// Phase is the activity state of a simulator.
type Phase int

const (
	Idle Phase = iota
	Running
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Running:
		return "running"
	default:
		return "unknown"
	}
}

func nextPhase(startImmediately, visible bool) Phase {
	if startImmediately || visible {
		return Running
	}
	return Idle
}

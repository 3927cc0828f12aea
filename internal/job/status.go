package job

// Status represents the lifecycle state of a playlist job.
type Status string

const (
	StatusQueued  Status = "queued"
	StatusRunning Status = "running"
	StatusDone    Status = "done"
	StatusFailed  Status = "failed"
)

// validTransitions defines the allowed state machine transitions. Jobs are
// never retried as a whole; both done and failed are terminal.
var validTransitions = map[Status][]Status{
	StatusQueued:  {StatusRunning, StatusFailed},
	StatusRunning: {StatusDone, StatusFailed},
	StatusDone:    {},
	StatusFailed:  {},
}

// CanTransitionTo returns true if transitioning from s to target is valid.
func (s Status) CanTransitionTo(target Status) bool {
	valid, ok := validTransitions[s]
	if !ok {
		return false
	}
	for _, v := range valid {
		if v == target {
			return true
		}
	}
	return false
}

// IsTerminal returns true if this status has no valid outgoing transitions.
func (s Status) IsTerminal() bool {
	return s == StatusDone || s == StatusFailed
}

func (s Status) String() string {
	return string(s)
}

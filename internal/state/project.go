package state

// Project is a storage project. Jobs belong to the project named by the
// first segment of their key.
type Project struct {
	ID   string
	Name string
}

type JobState int

const (
	StatePending JobState = iota
	StateRunning
	StateFinished
	StateDeleted
)

func (s JobState) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateRunning:
		return "running"
	case StateFinished:
		return "finished"
	case StateDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// ParseJobState maps a state name back to a JobState. Unknown names are pending.
func ParseJobState(s string) JobState {
	switch s {
	case "running":
		return StateRunning
	case "finished":
		return StateFinished
	case "deleted":
		return StateDeleted
	default:
		return StatePending
	}
}

// Job is a single job record.
type Job struct {
	// Key is "<projectid>/<spiderid>/<jobcounter>".
	Key      string
	Spider   string
	Secret   string
	State    JobState
	Metadata map[string]any
}

// ProjectID extracts the project id from the job key.
func (j *Job) ProjectID() string {
	return parseFirstSegment(j.Key)
}

package executor

type State int

const (
	NotStarted State = iota
	Launched
	Polling
	Completed
	Failed
	TimedOut
	LaunchFailed
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "not_started"
	case Launched:
		return "launched"
	case Polling:
		return "polling"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	case TimedOut:
		return "timed_out"
	case LaunchFailed:
		return "launch_failed"
	}
	return "unknown"
}

func (s State) Terminal() bool {
	return s >= Completed
}

package domain

// Phase enumerates the session lifecycle states.
type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhaseLoading Phase = "loading"
	PhaseSuccess Phase = "success"
	PhaseError   Phase = "error"
)

// Status is the current session state. Message is only set in PhaseError.
type Status struct {
	Phase   Phase
	Message string
}

func IdleStatus() Status {
	return Status{Phase: PhaseIdle}
}

func ErrorStatus(message string) Status {
	return Status{Phase: PhaseError, Message: message}
}

// Loading reports whether a generation request is in flight.
func (s Status) Loading() bool {
	return s.Phase == PhaseLoading
}

// Affordances mirrors which user actions are currently enabled.
type Affordances struct {
	CanAddImage   bool `json:"can_add_image"`
	CanGenerate   bool `json:"can_generate"`
	CanDownload   bool `json:"can_download"`
	CanUseAsInput bool `json:"can_use_as_input"`
}

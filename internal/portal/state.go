package portal

import "taskgate/internal/session"

// Phase is a panel's position in the request state machine
type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhasePending Phase = "pending"
	PhaseSuccess Phase = "success"
	PhaseError   Phase = "error"
)

// StatusClass classifies a status message for presentation
type StatusClass string

const (
	ClassNeutral StatusClass = "neutral"
	ClassSuccess StatusClass = "success"
	ClassError   StatusClass = "error"
)

// Status is the text shown in a panel's status region
type Status struct {
	Text  string      `json:"text"`
	Class StatusClass `json:"class"`
}

// Panel is the state of one view's control and status region
type Panel struct {
	Phase   Phase  `json:"phase"`
	Enabled bool   `json:"enabled"`
	Status  Status `json:"status"`
}

// SubmissionPanel adds the submission form's field values
type SubmissionPanel struct {
	Panel
	Keyword string `json:"keyword"`
	Email   string `json:"email"`
}

// Snapshot is a copy of the whole view model. Version increases with every
// published transition.
type Snapshot struct {
	Version    uint64          `json:"version"`
	View       session.View    `json:"view"`
	Activation Panel           `json:"activation"`
	Submission SubmissionPanel `json:"submission"`
}

func idlePanel() Panel {
	return Panel{Phase: PhaseIdle, Enabled: true, Status: Status{Class: ClassNeutral}}
}

func pendingPanel(text string) Panel {
	return Panel{Phase: PhasePending, Enabled: false, Status: Status{Text: text, Class: ClassNeutral}}
}

package domain

// ApprovalStatus is the terminal state of one approval request.
type ApprovalStatus string

const (
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalDenied   ApprovalStatus = "denied"
	ApprovalTimeout  ApprovalStatus = "timeout"
)

// ApprovalRequest is the payload sent to the approval channel for a RED
// command. It lives only for the duration of one classification.
type ApprovalRequest struct {
	ID             string `json:"id"`
	Command        string `json:"command"`
	Reason         string `json:"reason"`
	TimeoutSeconds int    `json:"timeout_seconds"`
}

// ApprovalDecision is the correlated response resolving a pending request.
type ApprovalDecision struct {
	ID       string `json:"id"`
	Decision string `json:"decision"`
}

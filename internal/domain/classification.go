package domain

// Tier enumerates the risk classification of a command.
type Tier string

const (
	TierGreen       Tier = "green"
	TierYellow      Tier = "yellow"
	TierRed         Tier = "red"
	TierBlacklisted Tier = "blacklisted"
)

// ClassificationResult is the verdict for a single command string.
type ClassificationResult struct {
	Tier             Tier   `json:"tier"`
	Command          string `json:"command"`
	Reason           string `json:"reason"`
	MatchedPattern   string `json:"matched_pattern,omitempty"`
	RequiresApproval bool   `json:"requires_approval"`
	AutoExecute      bool   `json:"auto_execute"`
	NotifyBridge     bool   `json:"notify_bridge"`
}

// Blocked reports whether the verdict forbids execution outright.
func (r ClassificationResult) Blocked() bool {
	return r.Tier == TierBlacklisted
}

package domain

import "errors"

// Failure taxonomy. The guard converts all of these into a structured
// ExecutionReport; only ErrPolicyLoad and invalid-argument conditions reach
// callers as Go errors.
var (
	ErrPolicyLoad        = errors.New("policy load failed")
	ErrBlocked           = errors.New("command blocked by blacklist")
	ErrApprovalDenied    = errors.New("approval denied")
	ErrApprovalTimeout   = errors.New("approval timed out")
	ErrSubprocess        = errors.New("subprocess failed")
	ErrSubprocessTimeout = errors.New("subprocess timed out")
	ErrOutputOverflow    = errors.New("subprocess output exceeded limit")
)

// Package approval provides approval channel adapters.
package approval

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/aegisd/aegis-go/internal/domain"
	"github.com/aegisd/aegis-go/internal/ports"
)

// Memory is an in-process approval channel. Each pending request is a
// promise keyed by an opaque id and resolved through Resolve, or immediately
// through a fixed auto decision. The guard's wait is always bounded: an
// unresolved promise yields ApprovalTimeout.
type Memory struct {
	mu      sync.Mutex
	pending map[string]chan domain.ApprovalStatus
	auto    domain.ApprovalStatus // "" means wait for Resolve
	logger  *log.Logger
}

// NewMemory builds a channel whose requests must be resolved explicitly.
func NewMemory(logger *log.Logger) *Memory {
	return &Memory{
		pending: make(map[string]chan domain.ApprovalStatus),
		logger:  logger,
	}
}

// NewAuto builds a channel that resolves every request with the given
// decision as soon as it is awaited. Used for tests and non-interactive runs.
func NewAuto(decision domain.ApprovalStatus, logger *log.Logger) *Memory {
	m := NewMemory(logger)
	m.auto = decision
	return m
}

// RequestApproval implements ports.ApprovalChannel.
func (m *Memory) RequestApproval(_ context.Context, command, reason string, timeout time.Duration) (string, error) {
	id := uuid.NewString()
	ch := make(chan domain.ApprovalStatus, 1)

	m.mu.Lock()
	m.pending[id] = ch
	m.mu.Unlock()

	if m.auto != "" {
		ch <- m.auto
	}
	m.logger.Info("approval requested", "id", id, "command", command, "reason", reason, "timeout", timeout)
	return id, nil
}

// WaitForApproval implements ports.ApprovalChannel. It resolves to
// ApprovalTimeout when the timeout elapses or the context is cancelled.
func (m *Memory) WaitForApproval(ctx context.Context, id string, timeout time.Duration) (domain.ApprovalStatus, error) {
	m.mu.Lock()
	ch, ok := m.pending[id]
	m.mu.Unlock()
	if !ok {
		return "", fmt.Errorf("unknown approval id %q", id)
	}
	defer m.discard(id)

	select {
	case status := <-ch:
		return status, nil
	case <-time.After(timeout):
		return domain.ApprovalTimeout, nil
	case <-ctx.Done():
		return domain.ApprovalTimeout, nil
	}
}

// Resolve completes a pending request. Resolving an unknown or already
// resolved id is a no-op so that late human decisions cannot fail the caller.
func (m *Memory) Resolve(id string, status domain.ApprovalStatus) {
	m.mu.Lock()
	ch, ok := m.pending[id]
	m.mu.Unlock()
	if !ok {
		return
	}
	select {
	case ch <- status:
	default:
	}
}

// NotifyBlocked implements ports.ApprovalChannel.
func (m *Memory) NotifyBlocked(command, reason string) {
	m.logger.Warn("command blocked", "command", command, "reason", reason)
}

// LogCommand implements ports.ApprovalChannel.
func (m *Memory) LogCommand(command string, tier domain.Tier, excerpt string) {
	m.logger.Info("command", "tier", tier, "command", command, "excerpt", excerpt)
}

func (m *Memory) discard(id string) {
	m.mu.Lock()
	delete(m.pending, id)
	m.mu.Unlock()
}

var _ ports.ApprovalChannel = (*Memory)(nil)

package approval

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/aegisd/aegis-go/internal/domain"
	"github.com/aegisd/aegis-go/internal/ports"
)

// NATS subjects used by the messaging bridge.
const (
	subjectRequest  = "aegis.approvals.request"
	subjectDecision = "aegis.approvals.decision." // + request id
	subjectBlocked  = "aegis.notify.blocked"
	subjectCommand  = "aegis.notify.command"
)

// Bridge is an approval channel backed by a NATS messaging bridge. Requests
// are published on a shared subject; the human side answers on a
// per-request decision subject correlated by id.
type Bridge struct {
	conn   *nats.Conn
	logger *log.Logger
}

// NewBridge connects to the bridge's NATS server.
func NewBridge(url string, logger *log.Logger) (*Bridge, error) {
	if url == "" {
		url = nats.DefaultURL
	}
	conn, err := nats.Connect(url,
		nats.Timeout(10*time.Second),
		nats.ReconnectWait(time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("bridge disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("bridge reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connecting to bridge: %w", err)
	}
	return &Bridge{conn: conn, logger: logger}, nil
}

// Close releases the NATS connection.
func (b *Bridge) Close() {
	b.conn.Close()
}

// RequestApproval implements ports.ApprovalChannel.
func (b *Bridge) RequestApproval(_ context.Context, command, reason string, timeout time.Duration) (string, error) {
	req := domain.ApprovalRequest{
		ID:             uuid.NewString(),
		Command:        command,
		Reason:         reason,
		TimeoutSeconds: int(timeout / time.Second),
	}
	data, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("encoding approval request: %w", err)
	}
	if err := b.conn.Publish(subjectRequest, data); err != nil {
		return "", fmt.Errorf("publishing approval request: %w", err)
	}
	b.logger.Info("approval requested via bridge", "id", req.ID, "command", command)
	return req.ID, nil
}

// WaitForApproval implements ports.ApprovalChannel. It subscribes to the
// per-request decision subject and waits up to timeout for a correlated
// decision, resolving to ApprovalTimeout otherwise.
func (b *Bridge) WaitForApproval(ctx context.Context, id string, timeout time.Duration) (domain.ApprovalStatus, error) {
	sub, err := b.conn.SubscribeSync(subjectDecision + id)
	if err != nil {
		return "", fmt.Errorf("subscribing for decision: %w", err)
	}
	defer func() { _ = sub.Unsubscribe() }()

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	for {
		msg, err := sub.NextMsgWithContext(ctx)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, nats.ErrTimeout) || errors.Is(err, context.Canceled) {
				return domain.ApprovalTimeout, nil
			}
			return "", fmt.Errorf("awaiting decision: %w", err)
		}

		var decision domain.ApprovalDecision
		if err := json.Unmarshal(msg.Data, &decision); err != nil {
			b.logger.Warn("malformed decision message", "error", err)
			continue
		}
		if decision.ID != "" && decision.ID != id {
			continue
		}
		switch strings.ToLower(decision.Decision) {
		case "approved", "approve", "yes":
			return domain.ApprovalApproved, nil
		case "denied", "deny", "reject", "no":
			return domain.ApprovalDenied, nil
		default:
			b.logger.Warn("unrecognized decision", "decision", decision.Decision)
		}
	}
}

// NotifyBlocked implements ports.ApprovalChannel. Best-effort.
func (b *Bridge) NotifyBlocked(command, reason string) {
	payload, _ := json.Marshal(map[string]string{"command": command, "reason": reason})
	if err := b.conn.Publish(subjectBlocked, payload); err != nil {
		b.logger.Warn("blocked notification failed", "error", err)
	}
}

// LogCommand implements ports.ApprovalChannel. Best-effort.
func (b *Bridge) LogCommand(command string, tier domain.Tier, excerpt string) {
	payload, _ := json.Marshal(map[string]string{
		"command": command,
		"tier":    string(tier),
		"excerpt": excerpt,
	})
	if err := b.conn.Publish(subjectCommand, payload); err != nil {
		b.logger.Warn("command notification failed", "error", err)
	}
}

var _ ports.ApprovalChannel = (*Bridge)(nil)

package approval

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/aegisd/aegis-go/internal/domain"
	"github.com/aegisd/aegis-go/internal/ports"
)

// Console asks a human on stdin/stdout to approve RED commands.
type Console struct {
	in     *bufio.Reader
	out    io.Writer
	logger *log.Logger

	mu      sync.Mutex
	pending map[string]domain.ApprovalRequest
}

// NewConsole constructs a console approver referencing stdio.
func NewConsole(in io.Reader, out io.Writer, logger *log.Logger) *Console {
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}
	return &Console{
		in:      bufio.NewReader(in),
		out:     out,
		logger:  logger,
		pending: make(map[string]domain.ApprovalRequest),
	}
}

// RequestApproval implements ports.ApprovalChannel. Registration is
// non-blocking; the prompt happens in WaitForApproval.
func (c *Console) RequestApproval(_ context.Context, command, reason string, timeout time.Duration) (string, error) {
	id := uuid.NewString()
	c.mu.Lock()
	c.pending[id] = domain.ApprovalRequest{
		ID:             id,
		Command:        command,
		Reason:         reason,
		TimeoutSeconds: int(timeout / time.Second),
	}
	c.mu.Unlock()
	return id, nil
}

// WaitForApproval implements ports.ApprovalChannel. The stdin read runs in a
// goroutine so the wait stays bounded by the timeout.
func (c *Console) WaitForApproval(ctx context.Context, id string, timeout time.Duration) (domain.ApprovalStatus, error) {
	c.mu.Lock()
	req, ok := c.pending[id]
	delete(c.pending, id)
	c.mu.Unlock()
	if !ok {
		return "", fmt.Errorf("unknown approval id %q", id)
	}

	fmt.Fprintf(c.out, "\n⚠️  HIGH-RISK command requires approval\n")
	fmt.Fprintf(c.out, " - %s\n", req.Reason)
	fmt.Fprintf(c.out, "Command:\n  %s\n", req.Command)
	fmt.Fprintf(c.out, "Approve? [y/N]: ")

	answers := make(chan string, 1)
	go func() {
		line, err := c.in.ReadString('\n')
		if err != nil {
			answers <- ""
			return
		}
		answers <- strings.ToLower(strings.TrimSpace(line))
	}()

	select {
	case answer := <-answers:
		if answer == "y" || answer == "yes" {
			return domain.ApprovalApproved, nil
		}
		return domain.ApprovalDenied, nil
	case <-time.After(timeout):
		fmt.Fprintln(c.out, "\napproval timed out")
		return domain.ApprovalTimeout, nil
	case <-ctx.Done():
		return domain.ApprovalTimeout, nil
	}
}

// NotifyBlocked implements ports.ApprovalChannel.
func (c *Console) NotifyBlocked(command, reason string) {
	fmt.Fprintf(c.out, "🚫 blocked: %s (%s)\n", command, reason)
}

// LogCommand implements ports.ApprovalChannel.
func (c *Console) LogCommand(command string, tier domain.Tier, excerpt string) {
	c.logger.Info("command", "tier", tier, "command", command, "excerpt", excerpt)
}

var _ ports.ApprovalChannel = (*Console)(nil)

// Package app wires application services with infrastructure adapters.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/aegisd/aegis-go/internal/domain"
	"github.com/aegisd/aegis-go/internal/infrastructure/approval"
	"github.com/aegisd/aegis-go/internal/infrastructure/audit"
	"github.com/aegisd/aegis-go/internal/infrastructure/classifier"
	"github.com/aegisd/aegis-go/internal/infrastructure/config"
	"github.com/aegisd/aegis-go/internal/infrastructure/executor"
	"github.com/aegisd/aegis-go/internal/infrastructure/guard"
	"github.com/aegisd/aegis-go/internal/infrastructure/knowledge"
	"github.com/aegisd/aegis-go/internal/infrastructure/planner"
	"github.com/aegisd/aegis-go/internal/infrastructure/policy"
	"github.com/aegisd/aegis-go/internal/pkg/logger"
	"github.com/aegisd/aegis-go/internal/ports"
)

// Container holds the dependency graph. One container is constructed per
// process (or per test) and passed explicitly to consumers.
type Container struct {
	Config     domain.Config
	Policy     domain.Policy
	Classifier *classifier.Classifier
	Knowledge  *knowledge.Store
	Audit      *audit.FileLog
	Executor   *executor.LocalExecutor
	Planner    *planner.Planner
	Logger     *log.Logger

	bridge *approval.Bridge
}

// BuildContainer constructs the dependency graph. Policy problems are fatal
// here: a process must not start with a malformed policy.
func BuildContainer(ctx context.Context, configPath string) (*Container, error) {
	logg := logger.FromEnv("aegis")

	cfgLoader := config.NewFileLoader(configPath)
	cfg, err := cfgLoader.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	pol, err := policy.Load(cfg.PolicyFile)
	if err != nil {
		return nil, err
	}
	cls, err := classifier.New(pol)
	if err != nil {
		return nil, err
	}

	store, err := knowledge.Open(cfg.Knowledge.Path)
	if err != nil {
		return nil, err
	}

	return &Container{
		Config:     cfg,
		Policy:     pol,
		Classifier: cls,
		Knowledge:  store,
		Audit:      audit.NewFileLog(cfg.Audit.Dir),
		Executor: executor.New(
			cfg.Execution.Shell,
			time.Duration(cfg.Execution.TimeoutSeconds)*time.Second,
			cfg.Execution.MaxOutputBytes,
		),
		Planner: planner.New(cfg.Plans.Dir, cls),
		Logger:  logg,
	}, nil
}

// NewGuard assembles a guard around the given approval channel.
func (c *Container) NewGuard(channel ports.ApprovalChannel) *guard.Guard {
	return &guard.Guard{
		Classifier: c.Classifier,
		Approvals:  channel,
		Executor:   c.Executor,
		Knowledge:  c.Knowledge,
		Audit:      c.Audit,
		Logger:     c.Logger,
	}
}

// ApprovalChannel builds the adapter named by mode (auto, deny, console,
// nats); empty mode falls back to the configured one.
func (c *Container) ApprovalChannel(mode string) (ports.ApprovalChannel, error) {
	if mode == "" {
		mode = c.Config.Approval.Mode
	}
	switch mode {
	case "auto":
		return approval.NewAuto(domain.ApprovalApproved, c.Logger), nil
	case "deny":
		return approval.NewAuto(domain.ApprovalDenied, c.Logger), nil
	case "console":
		return approval.NewConsole(nil, nil, c.Logger), nil
	case "nats":
		bridge, err := approval.NewBridge(c.Config.Approval.NatsURL, c.Logger)
		if err != nil {
			return nil, err
		}
		c.bridge = bridge
		return bridge, nil
	default:
		return nil, fmt.Errorf("unknown approval mode %q", mode)
	}
}

// Close releases held resources.
func (c *Container) Close() {
	if c.bridge != nil {
		c.bridge.Close()
	}
	if c.Knowledge != nil {
		_ = c.Knowledge.Close()
	}
}

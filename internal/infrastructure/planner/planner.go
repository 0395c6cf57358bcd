// Package planner records linear step plans as JSON documents on disk.
package planner

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aegisd/aegis-go/internal/domain"
	"github.com/aegisd/aegis-go/internal/infrastructure/classifier"
	"github.com/aegisd/aegis-go/internal/pkg/filesystem"
)

// ErrPlanNotFound is returned when a plan id does not exist on disk.
var ErrPlanNotFound = errors.New("plan not found")

// StepInput describes one step of a new plan.
type StepInput struct {
	Description string
	Command     string
}

// Planner stores plan documents under a directory, one JSON file per plan.
// Steps carrying commands receive a classifier safety review at creation;
// a plan containing a blacklisted step is rejected outright.
type Planner struct {
	dir        string
	classifier *classifier.Classifier
	mu         sync.Mutex
}

// New returns a planner rooted at dir (default ~/.aegis/plans).
func New(dir string, cls *classifier.Classifier) *Planner {
	if dir == "" {
		dir = filepath.Join(filesystem.UserHomeDir(), ".aegis", "plans")
	}
	return &Planner{dir: dir, classifier: cls}
}

// Create reviews and persists a new plan. The first step starts in progress.
func (p *Planner) Create(goal string, steps []StepInput) (domain.Plan, error) {
	if strings.TrimSpace(goal) == "" {
		return domain.Plan{}, errors.New("plan goal is required")
	}
	if len(steps) == 0 {
		return domain.Plan{}, errors.New("plan needs at least one step")
	}

	now := time.Now().UTC()
	plan := domain.Plan{
		ID:        uuid.NewString(),
		Goal:      goal,
		CreatedAt: now,
		UpdatedAt: now,
		Status:    domain.StepInProgress,
	}
	for i, input := range steps {
		step := domain.PlanStep{
			Index:       i,
			Description: input.Description,
			Command:     input.Command,
			Status:      domain.StepPending,
		}
		if i == 0 {
			step.Status = domain.StepInProgress
		}
		if input.Command != "" && p.classifier != nil {
			verdict := p.classifier.Classify(input.Command)
			if verdict.Blocked() {
				return domain.Plan{}, fmt.Errorf("%w: step %d: %s", domain.ErrBlocked, i, verdict.Reason)
			}
			step.Review = &domain.StepReview{Tier: verdict.Tier, Reason: verdict.Reason}
		}
		plan.Steps = append(plan.Steps, step)
	}

	if err := p.save(plan); err != nil {
		return domain.Plan{}, err
	}
	return plan, nil
}

// Load reads a plan document by id.
func (p *Planner) Load(id string) (domain.Plan, error) {
	data, err := os.ReadFile(p.pathFor(id))
	if err != nil {
		if os.IsNotExist(err) {
			return domain.Plan{}, fmt.Errorf("%w: %s", ErrPlanNotFound, id)
		}
		return domain.Plan{}, err
	}
	var plan domain.Plan
	if err := json.Unmarshal(data, &plan); err != nil {
		return domain.Plan{}, fmt.Errorf("parsing plan %s: %w", id, err)
	}
	return plan, nil
}

// List returns all stored plans, newest first.
func (p *Planner) List() ([]domain.Plan, error) {
	entries, err := os.ReadDir(p.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var plans []domain.Plan
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		plan, err := p.Load(strings.TrimSuffix(entry.Name(), ".json"))
		if err != nil {
			continue
		}
		plans = append(plans, plan)
	}
	sort.Slice(plans, func(i, j int) bool {
		return plans[i].CreatedAt.After(plans[j].CreatedAt)
	})
	return plans, nil
}

// Advance marks the current step completed or failed and moves to the next.
// A failed step finishes the plan as failed.
func (p *Planner) Advance(id string, success bool, note string) (domain.Plan, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	plan, err := p.Load(id)
	if err != nil {
		return domain.Plan{}, err
	}
	current := plan.CurrentStep()
	if current < 0 {
		return plan, fmt.Errorf("plan %s has no remaining steps", id)
	}

	step := &plan.Steps[current]
	step.Note = note
	if success {
		step.Status = domain.StepCompleted
	} else {
		step.Status = domain.StepFailed
	}

	plan.UpdatedAt = time.Now().UTC()
	switch {
	case !success:
		plan.Status = domain.StepFailed
		for i := current + 1; i < len(plan.Steps); i++ {
			plan.Steps[i].Status = domain.StepSkipped
		}
	case current+1 < len(plan.Steps):
		plan.Steps[current+1].Status = domain.StepInProgress
		plan.Status = domain.StepInProgress
	default:
		plan.Status = domain.StepCompleted
	}

	if err := p.save(plan); err != nil {
		return domain.Plan{}, err
	}
	return plan, nil
}

func (p *Planner) save(plan domain.Plan) error {
	if err := os.MkdirAll(p.dir, 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(plan, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(p.pathFor(plan.ID), data, 0o644)
}

func (p *Planner) pathFor(id string) string {
	return filepath.Join(p.dir, id+".json")
}

// Package provision implements the ordered provisioning pipeline: B2B
// policy, site creation, folder structure, user provisioning. Phases run
// strictly sequentially; every phase is factored into a decide step (the
// routing decision, identical in apply and simulate mode) and an apply
// step (the only branch that touches the gateway or the rollback ledger).
package provision

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Mindburn-Labs/tenantbridge/pkg/audit"
	"github.com/Mindburn-Labs/tenantbridge/pkg/config"
	"github.com/Mindburn-Labs/tenantbridge/pkg/contracts"
	"github.com/Mindburn-Labs/tenantbridge/pkg/gateway"
	"github.com/Mindburn-Labs/tenantbridge/pkg/rollback"
)

// State is the pipeline's run state.
type State string

const (
	StateNotStarted  State = "NOT_STARTED"
	StateB2B         State = "B2B"
	StateSite        State = "SITE"
	StateFolders     State = "FOLDERS"
	StateUsers       State = "USERS"
	StateCompleted   State = "COMPLETED"
	StateRollingBack State = "ROLLING_BACK"
	StateRolledBack  State = "ROLLED_BACK"
	StateFailed      State = "FAILED"
)

// ErrAborted is returned when the operator declines to reuse an existing
// site, which stops the phase chain.
var ErrAborted = errors.New("provisioning aborted by operator")

// Prompter answers the one interactive question the pipeline can ask.
// Simulate mode never prompts.
type Prompter interface {
	ConfirmSiteReuse(url string) (bool, error)
}

// Telemetry receives the pipeline's spans and counters.
// *observability.Provider satisfies it; tests substitute a stub.
type Telemetry interface {
	// TrackPhase brackets one phase: it returns the phase context and a
	// completion callback that records duration and any fatal fault.
	TrackPhase(ctx context.Context, phase string) (context.Context, func(error))
	// RecordCompensation counts one rollback compensation attempt.
	RecordCompensation(ctx context.Context, kind string, succeeded bool)
}

// Result is the outcome of one run.
type Result struct {
	Execution *contracts.ExecutionContext
	State     State
	Stats     Statistics
	Inventory Inventory
	Trace     *contracts.DecisionTrace
	Rollback  *contracts.RollbackReport
	Warnings  []string
}

// Pipeline owns one execution: its context, audit trail, and rollback
// ledger. A Pipeline is not reusable; build a new one per run.
type Pipeline struct {
	profile   *config.Profile
	gw        gateway.Gateway
	execution *contracts.ExecutionContext
	trail     *audit.Trail
	ledger    *rollback.Ledger
	rollbackx *rollback.Executor
	prompter  Prompter
	logger    *slog.Logger
	telemetry Telemetry

	state      State
	stats      Statistics
	inventory  Inventory
	trace      contracts.DecisionTrace
	warnings   []string
	siteURL    string
	siteUsable bool
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithPrompter sets the interactive prompter used in apply mode.
func WithPrompter(p Prompter) Option {
	return func(pl *Pipeline) { pl.prompter = p }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(pl *Pipeline) { pl.logger = l }
}

// WithTelemetry enables a span and counters per phase, plus per-attempt
// compensation counters on the rollback path.
func WithTelemetry(t Telemetry) Option {
	return func(pl *Pipeline) { pl.telemetry = t }
}

// NewPipeline builds a pipeline for one validated profile.
func NewPipeline(profile *config.Profile, gw gateway.Gateway, mode contracts.ExecutionMode, opts ...Option) *Pipeline {
	execution := contracts.NewExecutionContext(
		profile.HostTenantDomain, profile.GuestTenantDomain, profile.AdminPrincipal,
		mode, profile.EnableRollback,
	)
	p := &Pipeline{
		profile:   profile,
		gw:        gw,
		execution: execution,
		trail:     audit.NewTrail(execution),
		ledger:    rollback.NewLedger(profile.EnableRollback),
		logger:    slog.Default(),
		state:     StateNotStarted,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.rollbackx = rollback.NewExecutor(gw, p.trail, p.logger)
	if p.telemetry != nil {
		p.rollbackx = p.rollbackx.WithRecorder(p.telemetry.RecordCompensation)
	}
	return p
}

// Execution returns the run's execution context.
func (p *Pipeline) Execution() *contracts.ExecutionContext { return p.execution }

// Trail returns the run's audit trail, e.g. to attach partition sinks
// before Run.
func (p *Pipeline) Trail() *audit.Trail { return p.trail }

// Ledger exposes the rollback ledger for inspection.
func (p *Pipeline) Ledger() *rollback.Ledger { return p.ledger }

// Run executes the phase chain. On a fatal phase-level fault it triggers
// rollback (when enabled), and always returns the accumulated statistics
// alongside the error.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	if err := p.profile.Validate(); err != nil {
		return p.result(), err
	}

	phases := []struct {
		state State
		name  string
		fn    func(context.Context) error
	}{
		{StateB2B, "b2b_configuration", p.runB2BPhase},
		{StateSite, "site_creation", p.runSitePhase},
		{StateFolders, "folder_structure", p.runFoldersPhase},
		{StateUsers, "user_provisioning", p.runUsersPhase},
	}

	for _, phase := range phases {
		p.state = phase.state
		if err := p.runPhase(ctx, phase.name, phase.fn); err != nil {
			return p.fail(ctx, phase.name, err)
		}
	}

	p.state = StateCompleted
	p.auditCompletion(audit.StatusCompleted, "provisioning completed")
	return p.result(), nil
}

func (p *Pipeline) runPhase(ctx context.Context, name string, fn func(context.Context) error) error {
	done := func(error) {}
	if p.telemetry != nil {
		ctx, done = p.telemetry.TrackPhase(ctx, name)
	}
	p.logger.Info("phase started", "phase", name, "mode", p.execution.Mode)
	err := fn(ctx)
	done(err)
	return err
}

// fail handles a fatal phase-level fault: rolls back when enabled, audits
// the terminal marker after the rollback bracket so the trail stays in
// causal order, and surfaces the original fault. An empty ledger still
// gets the bracket (attempted=0); the branch depends only on the run's
// rollback flag.
func (p *Pipeline) fail(ctx context.Context, phase string, err error) (*Result, error) {
	p.logger.Error("fatal phase fault", "phase", phase, "error", err)

	if p.execution.RollbackEnabled && !p.execution.Simulated() {
		p.state = StateRollingBack
		report := p.rollbackx.ExecuteAll(ctx, p.ledger, fmt.Sprintf("fatal fault in %s", phase))
		p.state = StateRolledBack
		p.auditCompletion(audit.StatusFailed, fmt.Sprintf("fatal fault in %s: %v", phase, err))
		res := p.result()
		res.Rollback = &report
		return res, err
	}

	p.state = StateFailed
	p.auditCompletion(audit.StatusFailed, fmt.Sprintf("fatal fault in %s: %v", phase, err))
	return p.result(), err
}

func (p *Pipeline) auditCompletion(status audit.Status, detail string) {
	attrs := map[string]string{"mode": string(p.execution.Mode)}
	if _, aerr := p.trail.Append(contracts.OpScriptCompletion, status, detail, attrs); aerr != nil {
		p.logger.Error("failed to audit completion", "error", aerr)
	}
}

// applying reports whether gateway mutations and ledger pushes happen.
// It is the single branch point between apply and simulate; decisions are
// always computed before it is consulted.
func (p *Pipeline) applying() bool {
	return !p.execution.Simulated()
}

func (p *Pipeline) warn(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	p.warnings = append(p.warnings, msg)
	p.stats.Warnings++
	p.logger.Warn(msg)
}

func (p *Pipeline) decide(d contracts.Decision) {
	p.trace.Record(d)
}

// computedSiteURL is the deterministic site URL for the profile, used when
// site creation is skipped and for simulate-mode projection.
func (p *Pipeline) computedSiteURL() string {
	return fmt.Sprintf("https://%s/sites/%s", p.profile.HostTenantDomain, p.profile.SiteAlias)
}

func (p *Pipeline) result() *Result {
	return &Result{
		Execution: p.execution,
		State:     p.state,
		Stats:     p.stats,
		Inventory: p.inventory,
		Trace:     &p.trace,
		Warnings:  p.warnings,
	}
}

package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Mindburn-Labs/tenantbridge/pkg/audit"
	"github.com/Mindburn-Labs/tenantbridge/pkg/config"
	"github.com/Mindburn-Labs/tenantbridge/pkg/contracts"
	"github.com/Mindburn-Labs/tenantbridge/pkg/observability"
	"github.com/Mindburn-Labs/tenantbridge/pkg/provision"
	"github.com/Mindburn-Labs/tenantbridge/pkg/report"
	"github.com/Mindburn-Labs/tenantbridge/pkg/users"
)

// stdinPrompter asks reuse questions on the terminal.
type stdinPrompter struct {
	in  io.Reader
	out io.Writer
}

func (p *stdinPrompter) ConfirmSiteReuse(url string) (bool, error) {
	fmt.Fprintf(p.out, "Site %s already exists. Reuse it? [y/N]: ", url)
	line, err := bufio.NewReader(p.in).ReadString('\n')
	if err != nil && line == "" {
		return false, fmt.Errorf("read confirmation: %w", err)
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}

// runProvisionCmd implements `tenantbridge provision`.
//
// Exit codes:
//
//	0 = provisioning completed
//	1 = provisioning failed (rolled back when enabled)
//	2 = usage or configuration error
func runProvisionCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("provision", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var (
		profilePath string
		simulate    bool
		noRollback  bool
		skipB2B     bool
		skipSite    bool
	)

	cmd.StringVar(&profilePath, "profile", "", "Path to the run profile YAML (REQUIRED)")
	cmd.BoolVar(&simulate, "simulate", false, "Project decisions without mutating remote state")
	cmd.BoolVar(&noRollback, "no-rollback", false, "Disable compensation on fatal faults")
	cmd.BoolVar(&skipB2B, "skip-b2b", false, "Skip cross-tenant policy configuration")
	cmd.BoolVar(&skipSite, "skip-site", false, "Skip site creation, provision into the existing site")

	if err := cmd.Parse(args); err != nil {
		return 2
	}
	if profilePath == "" {
		_, _ = fmt.Fprintln(stderr, "Error: --profile is required")
		return 2
	}

	cfg := config.Load()
	logger := setupLogger(cfg, stderr)

	profile, err := config.LoadProfile(profilePath)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	if skipB2B {
		profile.SkipB2BConfig = true
	}
	if skipSite {
		profile.SkipSiteCreation = true
	}
	if noRollback {
		profile.EnableRollback = false
	}

	// Merge a CSV roster into the profile's user list. Malformed rows
	// warn and are skipped.
	if profile.RosterPath != "" {
		roster, err := users.LoadRoster(profile.RosterPath)
		if err != nil {
			_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
			return 2
		}
		for _, warning := range roster.Warnings {
			logger.Warn("roster row skipped", "warning", warning)
		}
		profile.Users = append(profile.Users, roster.Entries...)
	}

	ctx := context.Background()

	obs, err := observability.New(ctx, &observability.Config{
		ServiceName:    "tenantbridge",
		ServiceVersion: version,
		Environment:    "production",
		OTLPEndpoint:   cfg.OTLPEndpoint,
		Insecure:       true,
	})
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	defer func() { _ = obs.Shutdown(ctx) }()

	mode := contracts.ModeApply
	if simulate {
		mode = contracts.ModeSimulate
	}

	gw := openGateway(cfg)
	pipeline := provision.NewPipeline(profile, gw, mode,
		provision.WithPrompter(&stdinPrompter{in: os.Stdin, out: stdout}),
		provision.WithLogger(logger),
		provision.WithTelemetry(obs),
	)

	// Persist every audit event as it is appended: day partitions on
	// disk plus the queryable archive index.
	writer, err := audit.NewPartitionWriter(cfg.AuditDir)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	pipeline.Trail().AddHandler(writer.Handler(func(err error) {
		logger.Error("audit partition write failed", "error", err)
	}))

	archive, err := audit.OpenArchive(cfg.ArchivePath)
	if err != nil {
		logger.Warn("archive index unavailable", "error", err)
	} else {
		defer func() { _ = archive.Close() }()
		pipeline.Trail().AddHandler(archive.Handler(func(err error) {
			logger.Error("archive insert failed", "error", err)
		}))
	}

	logger.Info("starting provisioning",
		"execution_id", pipeline.Execution().ExecutionID,
		"mode", mode,
		"profile", profilePath,
	)

	res, runErr := pipeline.Run(ctx)

	summary := report.Build(profile, res)
	if path, werr := report.WriteFile(cfg.ReportDir, summary); werr != nil {
		logger.Error("failed to write summary report", "error", werr)
	} else {
		_, _ = fmt.Fprintf(stdout, "Summary written to %s\n", path)
	}
	if !simulate {
		if nerr := report.Notify(ctx, gw, profile.NotifyRecipient, summary); nerr != nil {
			logger.Error("failed to send summary mail", "error", nerr)
		}
	}

	printResult(stdout, res)

	if runErr != nil {
		var cfgErr *contracts.ConfigurationError
		if errors.As(runErr, &cfgErr) {
			_, _ = fmt.Fprintf(stderr, "Error: %v\n", runErr)
			return 2
		}
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", runErr)
		return 1
	}
	return 0
}

func printResult(w io.Writer, res *provision.Result) {
	fmt.Fprintln(w, "")
	fmt.Fprintf(w, "%sExecution %s (%s): %s%s\n", ColorBold, res.Execution.ExecutionID, res.Execution.Mode, res.State, ColorReset)
	fmt.Fprintf(w, "  Sites created:        %d\n", res.Stats.SitesCreated)
	fmt.Fprintf(w, "  Folders created:      %d\n", res.Stats.FoldersCreated)
	fmt.Fprintf(w, "  Guests invited:       %d\n", res.Stats.GuestsInvited)
	fmt.Fprintf(w, "  Host users processed: %d\n", res.Stats.HostUsersProcessed)
	fmt.Fprintf(w, "  Errors:               %d\n", res.Stats.Errors)
	for _, warning := range res.Warnings {
		fmt.Fprintf(w, "  Warning: %s\n", warning)
	}
	if res.Rollback != nil {
		fmt.Fprintf(w, "  Rollback: attempted %d, succeeded %d, failed %d\n",
			res.Rollback.Attempted, res.Rollback.Succeeded, res.Rollback.Failed)
	}
}

package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/time/rate"

	"github.com/Mindburn-Labs/tenantbridge/pkg/config"
	"github.com/Mindburn-Labs/tenantbridge/pkg/gateway"
)

const version = "1.0.0"

// Dispatcher
func main() {
	os.Exit(Run(os.Args, os.Stdout, os.Stderr))
}

// openGateway builds the tenant gateway. A variable so tests can swap in
// a preseeded fake; deployments replace it with their directory-backed
// implementation.
var openGateway = func(cfg *config.Config) gateway.Gateway {
	return gateway.NewRateLimited(gateway.NewFake(), rate.Limit(cfg.RatePerSec), cfg.RateBurst)
}

// Run is the entrypoint for testing.
func Run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 2 {
		printUsage(stderr)
		return 2
	}

	switch args[1] {
	case "provision":
		return runProvisionCmd(args[2:], stdout, stderr)
	case "rollback":
		return runRollbackCmd(args[2:], stdout, stderr)
	case "audit":
		if len(args) < 3 {
			_, _ = fmt.Fprintln(stderr, "Usage: tenantbridge audit <verify|show>")
			return 2
		}
		return runAuditCmd(args[2:], stdout, stderr)
	case "version":
		_, _ = fmt.Fprintf(stdout, "tenantbridge %s\n", version)
		return 0
	case "help", "--help", "-h":
		printUsage(stdout)
		return 0
	default:
		_, _ = fmt.Fprintf(stderr, "Unknown command: %s\n", args[1])
		printUsage(stderr)
		return 2
	}
}

// ANSI Colors
const (
	ColorReset = "\033[0m"
	ColorBold  = "\033[1m"
	ColorGreen = "\033[32m"
	ColorBlue  = "\033[34m"
	ColorCyan  = "\033[36m"
	ColorGray  = "\033[37m"
)

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "")
	fmt.Fprintf(w, "%stenantbridge %s%s\n", ColorBold+ColorBlue, version, ColorReset)
	fmt.Fprintf(w, "%sCross-tenant collaboration provisioning with audited rollback.%s\n", ColorGray, ColorReset)
	fmt.Fprintln(w, "")
	fmt.Fprintf(w, "%sUSAGE:%s\n", ColorBold, ColorReset)
	fmt.Fprintln(w, "  tenantbridge <command> [flags]")
	fmt.Fprintln(w, "")

	printSection(w, "PROVISIONING")
	printCommand(w, "provision", "Run a provisioning job (--profile, --simulate)")
	printCommand(w, "rollback", "Roll back a past execution from its audit trail")

	printSection(w, "AUDIT")
	printCommand(w, "audit verify", "Verify audit hash chains (--audit-dir)")
	printCommand(w, "audit show", "Show audit events (--audit-dir, --execution-id)")

	printSection(w, "UTILITIES")
	printCommand(w, "version", "Show version information")
	printCommand(w, "help", "Show this help")
	fmt.Fprintln(w, "")
}

func printSection(w io.Writer, title string) {
	fmt.Fprintf(w, "%s%s:%s\n", ColorBold+ColorCyan, title, ColorReset)
}

func printCommand(w io.Writer, name, desc string) {
	fmt.Fprintf(w, "  %s%-14s%s %s\n", ColorGreen, name, ColorReset, desc)
}

func setupLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToUpper(cfg.LogLevel) {
	case "DEBUG":
		level = slog.LevelDebug
	case "WARN":
		level = slog.LevelWarn
	case "ERROR":
		level = slog.LevelError
	}
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}

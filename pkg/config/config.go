// Package config loads tool configuration from environment variables and
// per-job run profiles (YAML).
package config

import "os"

// Config holds tool-level configuration.
type Config struct {
	AuditDir     string
	ArchivePath  string
	ReportDir    string
	LogLevel     string
	OTLPEndpoint string
	RatePerSec   float64
	RateBurst    int
}

// Load loads configuration from environment variables.
func Load() *Config {
	auditDir := os.Getenv("TENANTBRIDGE_AUDIT_DIR")
	if auditDir == "" {
		auditDir = "./audit"
	}

	archivePath := os.Getenv("TENANTBRIDGE_ARCHIVE_DB")
	if archivePath == "" {
		archivePath = "./audit/archive.db"
	}

	reportDir := os.Getenv("TENANTBRIDGE_REPORT_DIR")
	if reportDir == "" {
		reportDir = "./reports"
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "INFO"
	}

	// OTLP endpoint empty means telemetry stays disabled.
	otlp := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")

	return &Config{
		AuditDir:     auditDir,
		ArchivePath:  archivePath,
		ReportDir:    reportDir,
		LogLevel:     logLevel,
		OTLPEndpoint: otlp,
		RatePerSec:   4,
		RateBurst:    8,
	}
}

// cmd/preflight/main.go
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/Framerrr/framerr-monitor/internal/config"
)

func main() {
	fail := func(msg string) {
		fmt.Fprintln(os.Stderr, "✖", msg)
		os.Exit(1)
	}
	warn := func(msg string) { fmt.Fprintln(os.Stderr, "⚠", msg) }
	ok := func(msg string) { fmt.Println("✔", msg) }

	cfg := config.FromEnv()
	if err := cfg.Validate(); err != nil {
		fail(err.Error())
	}

	addr := strings.TrimSpace(os.Getenv("ADDR"))
	if addr == "" {
		warn("ADDR is empty; defaulting to " + cfg.Addr)
	} else {
		ok("ADDR=" + addr)
	}

	switch {
	case cfg.DatabaseURL != "":
		ok("DATABASE_URL present (postgres store)")
	case cfg.SQLitePath != "":
		ok("SQLITE_PATH=" + cfg.SQLitePath + " (sqlite store)")
	default:
		warn("no DATABASE_URL or SQLITE_PATH — monitors will not survive a restart (in-memory store)")
	}

	if cfg.WebhookURL == "" {
		warn("WEBHOOK_URL empty — status changes are only written to the log")
	} else {
		ok("WEBHOOK_URL present")
	}

	if cfg.RetentionDays == 0 {
		warn("AGGREGATE_RETENTION_DAYS=0 — hourly history will grow unbounded")
	} else {
		ok(fmt.Sprintf("aggregate retention: %d days", cfg.RetentionDays))
	}

	ok(fmt.Sprintf("check defaults: every %ds, timeout %ds, %d retries, degraded over %.0fms",
		cfg.Defaults.IntervalSeconds,
		cfg.Defaults.TimeoutSeconds,
		cfg.Defaults.RetriesBeforeDown,
		cfg.Defaults.DegradedThresholdMS,
	))

	ok("preflight passed")
}

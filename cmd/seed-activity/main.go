package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/foundercircle/growthengine/internal/activitygen"
)

// Default configuration constants.
const (
	defaultMembers    = 20
	defaultDays       = 14
	defaultWorkers    = 2 // multiplier for runtime.NumCPU()
	defaultTimeout    = 30 * time.Second
	defaultRunTimeout = 10 * time.Minute
)

func main() {
	var (
		baseURL = flag.String("url", "http://localhost:9090", "Base URL of the service")
		members = flag.Int("members", defaultMembers, "Number of synthetic members to seed")
		days    = flag.Int("days", defaultDays, "Days of activity history to simulate")
		workers = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		timeout = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		logFile = flag.String("log", "", "Log file for run output (default: activity_log_TIMESTAMP.log)")
		verbose = flag.Bool("verbose", false, "Enable verbose logging")
	)
	flag.Parse()

	if err := activitygen.SetupLogging(*logFile); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()

	config := &activitygen.Config{
		BaseURL: *baseURL,
		Members: *members,
		Days:    *days,
		Workers: *workers,
		Timeout: *timeout,
		LogFile: *logFile,
		Verbose: *verbose,
	}

	if err := activitygen.Run(ctx, config); err != nil {
		os.Stderr.WriteString("Activity run failed: " + err.Error() + "\n")
		os.Exit(1)
	}
}

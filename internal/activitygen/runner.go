package activitygen

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/foundercircle/growthengine/pkg/logger"
)

const (
	logFilePermission = 0600

	// settleDelay gives the async refresh pipeline time to drain before
	// derived state is read back.
	settleDelay = 2 * time.Second
)

// SetupLogging configures logging to both console and file. If logFile is
// empty, a timestamped filename is generated.
func SetupLogging(logFile string) error {
	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if logFile == "" {
		timestamp := time.Now().Format("20060102_150405")
		logFile = "activity_log_" + timestamp + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}

	multiWriter := io.MultiWriter(os.Stdout, file)
	log.SetOutput(multiWriter)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	return nil
}

// Run executes a complete synthetic activity run: seed members, replay
// their history, then read back and check every derived surface.
func Run(ctx context.Context, config *Config) error {
	stats := &Stats{StartTime: time.Now()}

	logger.Get().Info(ctx, "starting activity run",
		logger.String("baseURL", config.BaseURL),
		logger.Int("members", config.Members),
		logger.Int("days", config.Days),
		logger.Int("workers", config.Workers),
	)

	client := newHTTPClient(config.Timeout)

	if err := checkServiceHealth(ctx, config, client); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}

	members := generateMembers(ctx, config)
	if err := seedMembers(ctx, config, client, members, stats); err != nil {
		return fmt.Errorf("member seeding failed: %w", err)
	}

	events := generateEvents(ctx, config, members, stats)
	if err := submitEvents(ctx, config, client, events, stats); err != nil {
		return fmt.Errorf("event submission failed: %w", err)
	}

	logger.Get().Info(ctx, "waiting for refresh pipeline to settle")
	time.Sleep(settleDelay)

	if err := verifyMembers(ctx, config, client, members, stats); err != nil {
		return fmt.Errorf("verification failed: %w", err)
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(stats)

	logger.Get().Info(ctx, "activity run completed successfully")
	return nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, config *Config, client *HTTPClient) error {
	logger.Get().Info(ctx, "checking service health")

	resp, err := client.Get(ctx, config.BaseURL+"/healthz")
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("service health check failed with status: %d", resp.StatusCode)
	}

	logger.Get().Info(ctx, "service is healthy")
	return nil
}

func displayFinalStats(stats *Stats) {
	log.Printf("Activity run finished in %s", stats.Duration.Round(time.Millisecond))
	log.Printf("  members seeded:    %d", stats.MembersSeeded)
	log.Printf("  events generated:  %d", stats.EventsGenerated)
	log.Printf("  events successful: %d", stats.EventsSuccessful)
	log.Printf("  events duplicate:  %d", stats.EventsDuplicate)
	log.Printf("  events failed:     %d", stats.EventsFailed)
	log.Printf("  members verified:  %d", stats.MembersVerified)
	log.Printf("  violations:        %d", stats.Violations)
}

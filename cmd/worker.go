package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/blitztech/access-management/internal/core/events"
	"github.com/blitztech/access-management/internal/mailgateway"
	"github.com/blitztech/access-management/pkg/logger"
	"github.com/spf13/cobra"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start worker pools for various services",
	Long:  `Start and manage worker pools for background services like mail delivery and event handling.`,
}

var mailWorkerCmd = &cobra.Command{
	Use:   "mail",
	Short: "Start mail gateway worker pool",
	Long:  `Start the mail gateway worker pool for delivering approval decision notifications`,
	Run: func(cmd *cobra.Command, args []string) {
		startMailWorker()
	},
}

var eventWorkerCmd = &cobra.Command{
	Use:   "events",
	Short: "Start event bus worker",
	Long:  `Start the event bus and log every approval decision event it receives`,
	Run: func(cmd *cobra.Command, args []string) {
		startEventWorker()
	},
}

var (
	maxWorkers   int
	jobQueueSize int
	apiURL       string
	apiKey       string
)

func startMailWorker() {
	config, err := loadConfig(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logger.LoggerWrapper()

	// Use command line flags if provided, otherwise use config values
	mailConfig := mailgateway.Config{
		APIURL:         getStringFlag(apiURL, config.Mail.APIURL),
		APIKey:         getStringFlag(apiKey, config.Mail.APIKey),
		FromAddress:    config.Mail.FromAddress,
		RequestTimeout: config.Mail.RequestTimeout,
		MaxWorkers:     getIntFlag(maxWorkers, config.Mail.MaxWorkers),
		JobQueueSize:   getIntFlag(jobQueueSize, config.Mail.JobQueueSize),
	}

	logger.Info("starting mail worker",
		"max_workers", mailConfig.MaxWorkers,
		"job_queue_size", mailConfig.JobQueueSize,
		"api_url", mailConfig.APIURL)

	client := mailgateway.NewClient(mailConfig, logger)

	eventBus := events.NewEventBus(logger)
	eventBus.Subscribe(events.EventTypeRequestApproved, client.HandleDecisionEvent)
	eventBus.Subscribe(events.EventTypeRequestRejected, client.HandleDecisionEvent)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("mail worker is running. Press Ctrl+C to stop.")

	sig := <-sigChan
	logger.Info("received signal, shutting down mail worker", "signal", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	shutdownDone := make(chan struct{})
	go func() {
		client.Shutdown()
		close(shutdownDone)
	}()

	select {
	case <-shutdownDone:
		logger.Info("mail worker pool shutdown complete")
	case <-ctx.Done():
		logger.Warn("shutdown timeout reached, forcing exit")
	}
}

func startEventWorker() {
	_, err := loadConfig(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logger.LoggerWrapper()

	eventBus := events.NewEventBus(logger)

	logEvent := func(ctx context.Context, event events.Event) error {
		logger.Info("received event",
			"event_id", event.EventID(),
			"event_type", event.EventType(),
			"payload", event.Payload())
		return nil
	}
	eventBus.Subscribe(events.EventTypeRequestApproved, logEvent)
	eventBus.Subscribe(events.EventTypeRequestRejected, logEvent)

	logger.Info("event bus worker started. Waiting for events...")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	logger.Info("received signal, shutting down event bus", "signal", sig)
	logger.Info("event bus shutdown complete")
}

func getStringFlag(flagValue, configValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return configValue
}

func getIntFlag(flagValue, configValue int) int {
	if flagValue > 0 {
		return flagValue
	}
	return configValue
}

func init() {
	mailWorkerCmd.Flags().IntVar(&maxWorkers, "max-workers", 0, "Maximum number of workers (overrides config)")
	mailWorkerCmd.Flags().IntVar(&jobQueueSize, "job-queue-size", 0, "Job queue buffer size (overrides config)")
	mailWorkerCmd.Flags().StringVar(&apiURL, "api-url", "", "Mail gateway API URL (overrides config)")
	mailWorkerCmd.Flags().StringVar(&apiKey, "api-key", "", "Mail gateway API key (overrides config)")

	workerCmd.AddCommand(mailWorkerCmd)
	workerCmd.AddCommand(eventWorkerCmd)

	rootCmd.AddCommand(workerCmd)
}

package mailgateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/blitztech/access-management/internal/core/events"
)

// MailJob is one outbound notification. Delivery is best-effort: a full
// queue or a failed send never blocks or fails the operation that
// produced it.
type MailJob struct {
	To      string
	Subject string
	Body    string
}

type Worker struct {
	ID         int
	WorkerPool chan chan MailJob
	JobChannel chan MailJob
	Logger     *slog.Logger
}

func NewWorker(id int, workerPool chan chan MailJob, logger *slog.Logger) *Worker {
	return &Worker{
		ID:         id,
		WorkerPool: workerPool,
		JobChannel: make(chan MailJob),
		Logger:     logger,
	}
}

func (w *Worker) Start(ctx context.Context, wg *sync.WaitGroup, processFunc func(MailJob)) {
	wg.Add(1)
	go func() {
		defer wg.Done()

		for {

			w.WorkerPool <- w.JobChannel

			select {
			case job := <-w.JobChannel:
				w.Logger.Debug("worker processing mail job", "worker_id", w.ID, "to", job.To)
				processFunc(job)
			case <-ctx.Done():
				w.Logger.Debug("mail worker shutting down", "worker_id", w.ID)
				return
			}
		}
	}()
}

type Config struct {
	APIURL         string
	APIKey         string
	FromAddress    string
	RequestTimeout time.Duration
	MaxWorkers     int
	JobQueueSize   int
}

// Client delivers notification mail through an HTTP mail API using a
// bounded worker pool.
type Client struct {
	apiURL         string
	apiKey         string
	fromAddress    string
	requestTimeout time.Duration
	logger         *slog.Logger

	jobQueue   chan MailJob
	workerPool chan chan MailJob
	maxWorkers int
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	once       sync.Once
}

func NewClient(config Config, logger *slog.Logger) *Client {
	ctx, cancel := context.WithCancel(context.Background())

	maxWorkers := config.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = 5
	}
	jobQueueSize := config.JobQueueSize
	if jobQueueSize <= 0 {
		jobQueueSize = 100
	}
	requestTimeout := config.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = 10 * time.Second
	}

	client := &Client{
		apiURL:         config.APIURL,
		apiKey:         config.APIKey,
		fromAddress:    config.FromAddress,
		requestTimeout: requestTimeout,
		logger:         logger,

		maxWorkers: maxWorkers,
		jobQueue:   make(chan MailJob, jobQueueSize),
		workerPool: make(chan chan MailJob, maxWorkers),
		ctx:        ctx,
		cancel:     cancel,
	}

	client.startWorkerPool()

	return client
}

func (c *Client) startWorkerPool() {
	c.once.Do(func() {
		for i := 0; i < c.maxWorkers; i++ {
			worker := NewWorker(i, c.workerPool, c.logger)
			worker.Start(c.ctx, &c.wg, c.processMailJob)
		}

		go c.dispatch()

		c.logger.Info("mail gateway worker pool started",
			"max_workers", c.maxWorkers,
			"queue_size", cap(c.jobQueue))
	})
}

func (c *Client) dispatch() {
	c.wg.Add(1)
	defer c.wg.Done()

	for {
		select {
		case job := <-c.jobQueue:
			select {
			case jobChannel := <-c.workerPool:
				select {
				case jobChannel <- job:
				case <-c.ctx.Done():
					c.logger.Info("mail dispatcher shutting down")
					return
				}
			case <-c.ctx.Done():
				c.logger.Info("mail dispatcher shutting down")
				return
			}
		case <-c.ctx.Done():
			c.logger.Info("mail dispatcher shutting down")
			return
		}
	}
}

func (c *Client) Shutdown() {
	c.logger.Info("shutting down mail gateway client")
	c.cancel()
	c.wg.Wait()
	c.logger.Info("mail gateway client shutdown complete")
}

// Enqueue schedules a mail for delivery. A full queue drops the mail
// with a warning instead of blocking the caller.
func (c *Client) Enqueue(job MailJob) {
	select {
	case c.jobQueue <- job:
		c.logger.Info("mail job queued", "to", job.To, "subject", job.Subject, "queue_length", len(c.jobQueue))
	default:
		c.logger.Warn("mail queue full, dropping notification", "to", job.To, "subject", job.Subject)
	}
}

// HandleDecisionEvent is the event bus subscriber for approval decision
// events. It turns the event payload into a notification mail.
func (c *Client) HandleDecisionEvent(_ context.Context, event events.Event) error {
	data, ok := event.Payload().(map[string]interface{})
	if !ok {
		return fmt.Errorf("unexpected payload for event %s", event.EventID())
	}

	to, _ := data["user_email"].(string)
	if to == "" {
		return fmt.Errorf("decision event %s has no recipient", event.EventID())
	}
	area, _ := data["area"].(string)
	reviewer, _ := data["reviewer"].(string)
	notes, _ := data["notes"].(string)

	var subject, body string
	switch event.EventType() {
	case events.EventTypeRequestApproved:
		subject = fmt.Sprintf("Your %s access request was approved", area)
		body = fmt.Sprintf("Your request for %s access was approved by %s.", area, reviewer)
	case events.EventTypeRequestRejected:
		subject = fmt.Sprintf("Your %s access request was rejected", area)
		body = fmt.Sprintf("Your request for %s access was rejected by %s.", area, reviewer)
	default:
		return fmt.Errorf("unhandled event type %s", event.EventType())
	}
	if notes != "" {
		body += "\n\nReviewer notes: " + notes
	}

	c.Enqueue(MailJob{To: to, Subject: subject, Body: body})
	return nil
}

func (c *Client) processMailJob(job MailJob) {
	if err := c.send(job); err != nil {
		c.logger.Error("mail delivery failed", "to", job.To, "subject", job.Subject, "error", err)
		return
	}
	c.logger.Info("mail delivered", "to", job.To, "subject", job.Subject)
}

func (c *Client) send(job MailJob) error {
	payload := map[string]interface{}{
		"from":    c.fromAddress,
		"to":      job.To,
		"subject": job.Subject,
		"text":    job.Body,
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal mail request: %w", err)
	}

	ctx, cancel := context.WithTimeout(c.ctx, c.requestTimeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+"/messages", bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create HTTP request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	client := &http.Client{Timeout: c.requestTimeout}
	resp, err := client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("mail API returned status %d", resp.StatusCode)
	}

	return nil
}

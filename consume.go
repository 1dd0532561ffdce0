package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/muhammadolammi/resumeparser/internal/database"
	"github.com/muhammadolammi/resumeparser/internal/extract"
	"github.com/muhammadolammi/resumeparser/internal/sections"
	"github.com/streadway/amqp"
)

var retryBackoff = 500 * time.Millisecond

// errRequeue marks a delivery interrupted by shutdown. The worker hands it
// back to the queue instead of acking it.
var errRequeue = errors.New("interrupted, requeue")

// retry retries a function up to `attempts` times, waiting a little longer
// after each failure. It gives up early once ctx is done.
func retry[T any](ctx context.Context, attempts int, fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error

	for i := 0; i < attempts; i++ {
		result, err := fn()
		if err == nil {
			return result, nil
		}
		lastErr = err
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return zero, fmt.Errorf("after %d attempts: %w", i+1, errors.Join(lastErr, ctx.Err()))
		case <-time.After(retryBackoff * time.Duration(i+1)):
		}
	}
	return zero, fmt.Errorf("after %d attempts: %w", attempts, lastErr)
}

// setStatus records a resume's status in the database and announces it on
// the updates exchange. Failures are logged, not returned.
func (cfg *AppConfig) setStatus(ctx context.Context, id uuid.UUID, status, message string) {
	err := cfg.DB.UpdateResumeStatus(ctx, database.UpdateResumeStatusParams{
		Status: status,
		ID:     id,
	})
	if err != nil {
		log.Printf("error updating status to %s for resume_id %s: %v", status, id, err)
	}
	if cfg.Publisher == nil {
		return
	}
	err = cfg.Publisher.PublishStatus(StatusUpdate{
		ResumeID:  id,
		Status:    status,
		Message:   message,
		Timestamp: time.Now(),
	})
	if err != nil {
		log.Println("failed to publish update:", err)
	}
}

// suggestForResume downloads a stored resume, extracts its sections and
// asks the suggester for job titles.
func (cfg *AppConfig) suggestForResume(ctx context.Context, resume database.Resume) ([]JobTitle, error) {
	// Network failures are transient, so downloads are retried.
	fileBytes, err := retry(ctx, 3, func() ([]byte, error) {
		return cfg.Store.Get(ctx, resume.ObjectKey)
	})
	if err != nil {
		return nil, fmt.Errorf("file download error: %w", err)
	}

	resumeText, err := extract.FromMime(resume.Mime, resume.OriginalFilename, fileBytes)
	if err != nil {
		return nil, fmt.Errorf("text extraction error: %w", err)
	}

	secs := sections.Extract(resumeText)
	if secs.Empty() {
		return nil, ErrNoSections
	}

	titles, err := cfg.Suggester.SuggestTitles(ctx, resume.ID.String(), secs)
	if err != nil {
		return nil, fmt.Errorf("suggestion error: %w", err)
	}
	return titles, nil
}

// processResume runs the full pipeline for one queued resume and stores
// the outcome. A per-resume failure is stored as an error result; only
// infrastructure failures are returned.
func (cfg *AppConfig) processResume(ctx context.Context, id uuid.UUID) error {
	resume, err := cfg.DB.GetResume(ctx, id)
	if err != nil {
		return fmt.Errorf("error getting resume %v: %w", id, err)
	}

	cfg.setStatus(ctx, id, statusProcessing, "analysis started")

	result := SuggestionResult{}
	titles, err := cfg.suggestForResume(ctx, resume)
	if err != nil && ctx.Err() != nil {
		return fmt.Errorf("suggestion interrupted for %v: %w", id, err)
	}
	if err != nil {
		log.Printf("⚠️ Suggestion failed for %s: %v", resume.ObjectKey, err)
		result.IsErrorResult = true
		result.Error = err.Error()
	} else {
		result.JobTitles = titles
	}

	resultJSON, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal suggestion result: %w", err)
	}
	_, err = retry(ctx, 3, func() (any, error) {
		return nil, cfg.DB.CreateOrUpdateJobSuggestions(ctx, database.CreateOrUpdateJobSuggestionsParams{
			Results:  resultJSON,
			ResumeID: id,
		})
	})
	if err != nil {
		return fmt.Errorf("failed to save suggestion result after retries: %w", err)
	}

	if result.IsErrorResult {
		cfg.setStatus(ctx, id, statusFailed, "analysis failed")
	} else {
		cfg.setStatus(ctx, id, statusCompleted, "analysis completed")
	}
	return nil
}

// handleDelivery decodes one queue message and processes it.
func (cfg *AppConfig) handleDelivery(ctx context.Context, workerID int, body []byte) error {
	job := ResumeJob{}
	if err := json.Unmarshal(body, &job); err != nil {
		return fmt.Errorf("error unmarshalling message body: %w", err)
	}
	if job.ResumeID == uuid.Nil {
		return fmt.Errorf("message without resume_id")
	}

	log.Printf("Worker %d processing resume. resume_id: %s", workerID, job.ResumeID)
	err := cfg.processResume(ctx, job.ResumeID)
	if err == nil {
		return nil
	}
	// The final status write must land even when ctx was cancelled.
	statusCtx := context.WithoutCancel(ctx)
	if ctx.Err() != nil {
		cfg.setStatus(statusCtx, job.ResumeID, statusQueued, "requeued after shutdown")
		return fmt.Errorf("resume_id %v: %w: %w", job.ResumeID, errRequeue, err)
	}
	cfg.setStatus(statusCtx, job.ResumeID, statusFailed, "analysis failed")
	return fmt.Errorf("error processing resume_id %v: %w", job.ResumeID, err)
}

func worker(ctx context.Context, id int, cfg *AppConfig, wg *sync.WaitGroup) {
	defer wg.Done()
	conn, err := amqp.Dial(cfg.RABBITMQUrl)
	if err != nil {
		log.Printf("worker %d: error dialling rabbitmq: %v", id, err)
		return
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		log.Printf("worker %d: error connecting to rabbitmq channel: %v", id, err)
		return
	}
	defer ch.Close()

	if err := declareResumeQueue(ch); err != nil {
		log.Printf("worker %d: failed to declare queue: %v", id, err)
		return
	}
	if err := ch.Qos(1, 0, false); err != nil {
		log.Printf("worker %d: failed to set qos: %v", id, err)
		return
	}

	msgs, err := ch.Consume(
		resumeQueue, // queue name
		"",          // consumer tag
		false,       // auto-ack
		false,       // exclusive
		false,       // no-local
		false,       // no-wait
		nil,         // arguments
	)
	if err != nil {
		log.Printf("worker %d: error consuming rabbitmq messages: %v", id, err)
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				log.Printf("worker %d: delivery channel closed", id)
				return
			}
			err := cfg.handleDelivery(ctx, id, msg.Body)
			if err != nil {
				log.Println(err)
			}
			if errors.Is(err, errRequeue) {
				if err := msg.Nack(false, true); err != nil {
					log.Printf("worker %d: failed to requeue message: %v", id, err)
				}
				continue
			}
			if err := msg.Ack(false); err != nil {
				log.Printf("worker %d: failed to ack message: %v", id, err)
			}
		}
	}
}

func (cfg *AppConfig) StartConsumerWorkerPool(ctx context.Context, numWorkers int) {
	var wg sync.WaitGroup
	wg.Add(numWorkers)

	for i := range numWorkers {
		log.Println("worker id ", i+1, "started")
		go worker(ctx, i+1, cfg, &wg)
	}
	wg.Wait() // block until all workers finish
}

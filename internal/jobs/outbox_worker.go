package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

const (
	topicOfferSubmitted    = "offer_submitted"
	topicOfferAccepted     = "offer_accepted"
	topicLoanStatusChanged = "loan_status_changed"
)

type OutboxJob struct {
	ID          int64
	Topic       string
	Payload     []byte
	Status      string
	Attempts    int32
	LastError   string
	AvailableAt time.Time
}

type OutboxRepository interface {
	ClaimPending(ctx context.Context, limit int32) ([]OutboxJob, error)
	MarkDone(ctx context.Context, jobID int64) error
	MarkRetry(ctx context.Context, jobID int64, nextAvailableAt time.Time, lastError string) error
	MarkFailed(ctx context.Context, jobID int64, lastError string) error
}

type NotificationRepository interface {
	Insert(ctx context.Context, recipientID, event string, payload []byte) error
}

// Worker drains the outbox and turns each domain event into per-recipient
// notification rows, which the ws notifier then pushes to connected clients.
type Worker struct {
	outboxRepo   OutboxRepository
	notifRepo    NotificationRepository
	maxAttempts  int32
	now          func() time.Time
	retryBackoff func(attempt int32) time.Duration
}

func NewWorker(outboxRepo OutboxRepository, notifRepo NotificationRepository) *Worker {
	return &Worker{
		outboxRepo:  outboxRepo,
		notifRepo:   notifRepo,
		maxAttempts: 5,
		now:         func() time.Time { return time.Now().UTC() },
		retryBackoff: func(attempt int32) time.Duration {
			if attempt < 1 {
				attempt = 1
			}
			return time.Duration(attempt*15) * time.Second
		},
	}
}

func (w *Worker) RunOnce(ctx context.Context, batchSize int32) error {
	jobs, err := w.outboxRepo.ClaimPending(ctx, batchSize)
	if err != nil {
		return err
	}

	for _, job := range jobs {
		if err := w.processJob(ctx, job); err != nil {
			return err
		}
	}

	return nil
}

type offerEventPayload struct {
	OfferID    string `json:"offer_id"`
	LoanID     string `json:"loan_id"`
	BorrowerID string `json:"borrower_id"`
	DonorID    string `json:"donor_id"`
}

type loanStatusPayload struct {
	LoanID    string `json:"loan_id"`
	UserID    string `json:"user_id"`
	OldStatus string `json:"old_status"`
	NewStatus string `json:"new_status"`
}

func (w *Worker) processJob(ctx context.Context, job OutboxJob) error {
	switch job.Topic {
	case topicOfferSubmitted, topicOfferAccepted:
		return w.processOfferEvent(ctx, job)
	case topicLoanStatusChanged:
		return w.processLoanStatus(ctx, job)
	default:
		if job.Attempts >= w.maxAttempts {
			return w.outboxRepo.MarkFailed(ctx, job.ID, "unsupported_topic")
		}
		next := w.now().Add(w.retryBackoff(job.Attempts))
		return w.outboxRepo.MarkRetry(ctx, job.ID, next, "unsupported_topic")
	}
}

func (w *Worker) processOfferEvent(ctx context.Context, job OutboxJob) error {
	var payload offerEventPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return w.handleJobError(ctx, job, errors.New("invalid_payload"))
	}
	if payload.OfferID == "" || payload.LoanID == "" {
		return w.handleJobError(ctx, job, errors.New("missing_offer_fields"))
	}

	// A new offer is news for the borrower; an acceptance is news for both
	// sides.
	recipients := []string{payload.BorrowerID}
	if job.Topic == topicOfferAccepted {
		recipients = append(recipients, payload.DonorID)
	}
	for _, recipient := range recipients {
		if recipient == "" {
			continue
		}
		if err := w.notifRepo.Insert(ctx, recipient, job.Topic, job.Payload); err != nil {
			return w.handleJobError(ctx, job, err)
		}
	}
	return w.outboxRepo.MarkDone(ctx, job.ID)
}

func (w *Worker) processLoanStatus(ctx context.Context, job OutboxJob) error {
	var payload loanStatusPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return w.handleJobError(ctx, job, errors.New("invalid_payload"))
	}
	if payload.LoanID == "" || payload.UserID == "" {
		return w.handleJobError(ctx, job, errors.New("missing_loan_fields"))
	}
	if err := w.notifRepo.Insert(ctx, payload.UserID, job.Topic, job.Payload); err != nil {
		return w.handleJobError(ctx, job, err)
	}
	return w.outboxRepo.MarkDone(ctx, job.ID)
}

func (w *Worker) handleJobError(ctx context.Context, job OutboxJob, err error) error {
	msg := err.Error()
	if job.Attempts >= w.maxAttempts {
		return w.outboxRepo.MarkFailed(ctx, job.ID, msg)
	}
	next := w.now().Add(w.retryBackoff(job.Attempts))
	return w.outboxRepo.MarkRetry(ctx, job.ID, next, msg)
}

package unit

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/Ananthadeb1/uiu-lending-backend/internal/jobs"
)

type outboxJobsMock struct {
	jobs    []jobs.OutboxJob
	done    []int64
	retried []int64
	failed  []int64
}

func (m *outboxJobsMock) ClaimPending(_ context.Context, limit int32) ([]jobs.OutboxJob, error) {
	if int32(len(m.jobs)) > limit {
		return m.jobs[:limit], nil
	}
	return m.jobs, nil
}

func (m *outboxJobsMock) MarkDone(_ context.Context, jobID int64) error {
	m.done = append(m.done, jobID)
	return nil
}

func (m *outboxJobsMock) MarkRetry(_ context.Context, jobID int64, _ time.Time, _ string) error {
	m.retried = append(m.retried, jobID)
	return nil
}

func (m *outboxJobsMock) MarkFailed(_ context.Context, jobID int64, _ string) error {
	m.failed = append(m.failed, jobID)
	return nil
}

type notifInsert struct {
	recipientID string
	event       string
}

type notificationRepoMock struct {
	inserts   []notifInsert
	insertErr error
}

func (m *notificationRepoMock) Insert(_ context.Context, recipientID, event string, _ []byte) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	m.inserts = append(m.inserts, notifInsert{recipientID: recipientID, event: event})
	return nil
}

func offerJob(id int64, topic string) jobs.OutboxJob {
	payload, _ := json.Marshal(map[string]string{
		"offer_id":    "o1",
		"loan_id":     "l1",
		"borrower_id": "borrower-1",
		"donor_id":    "donor-1",
	})
	return jobs.OutboxJob{ID: id, Topic: topic, Payload: payload}
}

func TestWorkerOfferSubmittedNotifiesBorrowerOnly(t *testing.T) {
	outbox := &outboxJobsMock{jobs: []jobs.OutboxJob{offerJob(1, "offer_submitted")}}
	notif := &notificationRepoMock{}
	w := jobs.NewWorker(outbox, notif)

	if err := w.RunOnce(context.Background(), 10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(notif.inserts) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(notif.inserts))
	}
	if notif.inserts[0].recipientID != "borrower-1" || notif.inserts[0].event != "offer_submitted" {
		t.Fatalf("unexpected notification: %+v", notif.inserts[0])
	}
	if len(outbox.done) != 1 || outbox.done[0] != 1 {
		t.Fatalf("job must be marked done, got %v", outbox.done)
	}
}

func TestWorkerOfferAcceptedNotifiesBothSides(t *testing.T) {
	outbox := &outboxJobsMock{jobs: []jobs.OutboxJob{offerJob(1, "offer_accepted")}}
	notif := &notificationRepoMock{}
	w := jobs.NewWorker(outbox, notif)

	if err := w.RunOnce(context.Background(), 10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(notif.inserts) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(notif.inserts))
	}
	recipients := map[string]bool{}
	for _, n := range notif.inserts {
		recipients[n.recipientID] = true
	}
	if !recipients["borrower-1"] || !recipients["donor-1"] {
		t.Fatalf("both sides must be notified, got %+v", notif.inserts)
	}
}

func TestWorkerLoanStatusChangedNotifiesOwner(t *testing.T) {
	payload, _ := json.Marshal(map[string]string{
		"loan_id":    "l1",
		"user_id":    "borrower-1",
		"old_status": "pending",
		"new_status": "cancelled",
	})
	outbox := &outboxJobsMock{jobs: []jobs.OutboxJob{{ID: 2, Topic: "loan_status_changed", Payload: payload}}}
	notif := &notificationRepoMock{}
	w := jobs.NewWorker(outbox, notif)

	if err := w.RunOnce(context.Background(), 10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(notif.inserts) != 1 || notif.inserts[0].recipientID != "borrower-1" {
		t.Fatalf("unexpected notifications: %+v", notif.inserts)
	}
}

func TestWorkerInvalidPayloadRetries(t *testing.T) {
	outbox := &outboxJobsMock{jobs: []jobs.OutboxJob{{ID: 3, Topic: "offer_submitted", Payload: []byte("{broken"), Attempts: 1}}}
	notif := &notificationRepoMock{}
	w := jobs.NewWorker(outbox, notif)

	if err := w.RunOnce(context.Background(), 10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(outbox.retried) != 1 || outbox.retried[0] != 3 {
		t.Fatalf("bad payload must schedule a retry, got %+v", outbox)
	}
	if len(outbox.done) != 0 || len(outbox.failed) != 0 {
		t.Fatalf("bad payload must not be done or failed yet: %+v", outbox)
	}
}

func TestWorkerExhaustedAttemptsFail(t *testing.T) {
	outbox := &outboxJobsMock{jobs: []jobs.OutboxJob{{ID: 4, Topic: "offer_submitted", Payload: []byte("{broken"), Attempts: 5}}}
	notif := &notificationRepoMock{}
	w := jobs.NewWorker(outbox, notif)

	if err := w.RunOnce(context.Background(), 10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(outbox.failed) != 1 || outbox.failed[0] != 4 {
		t.Fatalf("exhausted job must be failed, got %+v", outbox)
	}
}

func TestWorkerUnknownTopicRetriesThenFails(t *testing.T) {
	outbox := &outboxJobsMock{jobs: []jobs.OutboxJob{{ID: 5, Topic: "mystery", Payload: []byte("{}"), Attempts: 0}}}
	w := jobs.NewWorker(outbox, &notificationRepoMock{})

	if err := w.RunOnce(context.Background(), 10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(outbox.retried) != 1 {
		t.Fatalf("unknown topic must retry first, got %+v", outbox)
	}
}

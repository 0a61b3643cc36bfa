package verification

import (
	"context"
	"time"
)

type Status string

const (
	StatusNotStarted Status = "not_started"
	StatusPending    Status = "pending"
	StatusVerified   Status = "verified"
	StatusRejected   Status = "rejected"
)

// Submission is an owned record, not a side-channel flag: the user's current
// verification state is derived from their latest submission.
type Submission struct {
	ID           string     `json:"id"`
	UserID       string     `json:"userId"`
	NIDNumber    string     `json:"nidNumber"`
	DocumentRefs []Document `json:"documents"`
	Status       Status     `json:"status"`
	ReviewNote   string     `json:"reviewNote,omitempty"`
	SubmittedAt  time.Time  `json:"submittedAt"`
	ReviewedAt   *time.Time `json:"reviewedAt,omitempty"`
	ReviewerID   string     `json:"reviewerId,omitempty"`
}

type Document struct {
	Kind        string `json:"kind"`
	Fingerprint string `json:"fingerprint"`
	SizeBytes   int64  `json:"sizeBytes"`
}

type SubmitInput struct {
	UserID    string
	NIDNumber string
	Documents []Document
}

type ReviewInput struct {
	SubmissionID string
	ReviewerID   string
	Approve      bool
	Note         string
}

type Repository interface {
	Create(ctx context.Context, in SubmitInput) (*Submission, error)
	GetByID(ctx context.Context, id string) (*Submission, error)
	LatestByUser(ctx context.Context, userID string) (*Submission, error)
	ListByUser(ctx context.Context, userID string) ([]Submission, error)
	ListPending(ctx context.Context, limit, offset int32) ([]Submission, error)
	// Review resolves a pending submission; it reports false when the row was
	// no longer pending.
	Review(ctx context.Context, in ReviewInput, to Status) (bool, error)
}

// UserRepository mirrors the verified flag onto the user row once a review
// lands, so authorization checks never re-read submission history.
type UserRepository interface {
	SetVerificationStatus(ctx context.Context, userID string, status Status) error
}

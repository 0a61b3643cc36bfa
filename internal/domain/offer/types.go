package offer

import (
	"context"
	"time"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
)

const (
	MinInterestRate = 0.1
	MaxInterestRate = 50.0
)

type Entity struct {
	ID            string     `json:"id"`
	LoanID        string     `json:"loanId"`
	DonorID       string     `json:"donorId"`
	DonorName     string     `json:"donorName"`
	DonorEmail    string     `json:"donorEmail"`
	AmountMinor   int64      `json:"offeredAmount"`
	InterestRate  float64    `json:"interestRate"`
	Message       string     `json:"message,omitempty"`
	Status        Status     `json:"status"`
	CreatedAt     time.Time  `json:"createdAt"`
	AcceptedAt    *time.Time `json:"acceptedAt,omitempty"`
	BorrowerID    string     `json:"borrowerId"`
	BorrowerName  string     `json:"borrowerName"`
	BorrowerEmail string     `json:"borrowerEmail"`
}

type CreateInput struct {
	LoanID       string
	DonorID      string
	DonorName    string
	DonorEmail   string
	AmountMinor  int64
	InterestRate float64
	Message      string
}

type Repository interface {
	Create(ctx context.Context, in CreateInput) (*Entity, error)
	GetByID(ctx context.Context, id string) (*Entity, error)
	List(ctx context.Context, limit, offset int32) ([]Entity, error)
	ListByLoan(ctx context.Context, loanID string) ([]Entity, error)
	ListByDonor(ctx context.Context, donorID string, limit, offset int32) ([]Entity, error)
	// ListByBorrower returns every offer addressed to the given user's loans,
	// the comparison view's working set.
	ListByBorrower(ctx context.Context, borrowerID string) ([]Entity, error)
	// Accept performs the atomic accept: offer pending -> accepted and parent
	// loan pending -> approved as one indivisible operation. First accept for
	// a loan wins; the losing call gets fault.ErrConflict.
	Accept(ctx context.Context, offerID string) (*Entity, error)
	Reject(ctx context.Context, offerID string) (*Entity, error)
}

package loan

import (
	"context"
	"time"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusFunded    Status = "funded"
	StatusCompleted Status = "completed"
	StatusRejected  Status = "rejected"
	StatusCancelled Status = "cancelled"
)

// legalTransitions is the full status machine for a loan request.
// pending -> approved happens only as the side effect of accepting an offer
// and is therefore absent here: PATCH-style transitions must not reach it.
var legalTransitions = map[Status][]Status{
	StatusPending:  {StatusRejected, StatusCancelled},
	StatusApproved: {StatusFunded},
	StatusFunded:   {StatusCompleted},
}

func CanTransition(from, to Status) bool {
	for _, s := range legalTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusRejected || s == StatusCancelled
}

type Entity struct {
	ID            string    `json:"id"`
	UserID        string    `json:"userId"`
	UserName      string    `json:"userName"`
	UserEmail     string    `json:"userEmail"`
	AmountMinor   int64     `json:"loanAmount"`
	Purpose       string    `json:"purpose"`
	RepaymentTime int32     `json:"repaymentTime"`
	Description   string    `json:"description,omitempty"`
	Status        Status    `json:"status"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

type CreateInput struct {
	UserID        string
	UserName      string
	UserEmail     string
	AmountMinor   int64
	Purpose       string
	RepaymentTime int32
	Description   string
}

type ListFilter struct {
	Status Status
	Limit  int32
	Offset int32
}

type Repository interface {
	Create(ctx context.Context, in CreateInput) (*Entity, error)
	GetByID(ctx context.Context, id string) (*Entity, error)
	List(ctx context.Context, f ListFilter) ([]Entity, error)
	ListByUser(ctx context.Context, userID string, limit, offset int32) ([]Entity, error)
	// UpdateStatus swaps the status only when the stored row still holds
	// `from`; it reports whether a row was updated.
	UpdateStatus(ctx context.Context, id string, from, to Status) (bool, error)
}

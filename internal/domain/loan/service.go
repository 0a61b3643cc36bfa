package loan

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/Ananthadeb1/uiu-lending-backend/internal/domain/fault"
)

const (
	MinRepaymentMonths = 1
	MaxRepaymentMonths = 60

	outboxTopicLoanStatusChanged = "loan_status_changed"
)

type OutboxRepository interface {
	Enqueue(ctx context.Context, topic string, payload []byte) error
}

type Service struct {
	loanRepo   Repository
	outboxRepo OutboxRepository
	now        func() time.Time
}

func NewService(loanRepo Repository, outboxRepo OutboxRepository) *Service {
	return &Service{
		loanRepo:   loanRepo,
		outboxRepo: outboxRepo,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) CreateRequest(ctx context.Context, in CreateInput) (*Entity, error) {
	if strings.TrimSpace(in.UserID) == "" {
		return nil, fault.Invalid("userId", "required")
	}
	if in.AmountMinor <= 0 {
		return nil, fault.Invalid("loanAmount", "must be positive")
	}
	if strings.TrimSpace(in.Purpose) == "" {
		return nil, fault.Invalid("purpose", "required")
	}
	if in.RepaymentTime < MinRepaymentMonths || in.RepaymentTime > MaxRepaymentMonths {
		return nil, fault.Invalid("repaymentTime", "must be between 1 and 60 months")
	}
	in.Purpose = strings.TrimSpace(in.Purpose)
	in.Description = strings.TrimSpace(in.Description)
	return s.loanRepo.Create(ctx, in)
}

// ListOpen returns loans still open for bidding, i.e. pending ones.
func (s *Service) ListOpen(ctx context.Context, limit, offset int32) ([]Entity, error) {
	return s.loanRepo.List(ctx, ListFilter{Status: StatusPending, Limit: limit, Offset: offset})
}

func (s *Service) List(ctx context.Context, f ListFilter) ([]Entity, error) {
	return s.loanRepo.List(ctx, f)
}

func (s *Service) ListByUser(ctx context.Context, userID string, limit, offset int32) ([]Entity, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fault.Invalid("userId", "required")
	}
	return s.loanRepo.ListByUser(ctx, userID, limit, offset)
}

func (s *Service) Get(ctx context.Context, loanID string) (*Entity, error) {
	return s.loanRepo.GetByID(ctx, loanID)
}

// Transition applies a borrower- or admin-initiated status change. The
// pending -> approved edge is reserved for the offer accept path and is
// rejected here regardless of caller.
func (s *Service) Transition(ctx context.Context, loanID, actingUserID string, to Status) (*Entity, error) {
	current, err := s.loanRepo.GetByID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if actingUserID != "" && current.UserID != actingUserID {
		return nil, fault.ErrForbidden
	}
	if !CanTransition(current.Status, to) {
		return nil, fault.ErrState
	}

	updated, err := s.loanRepo.UpdateStatus(ctx, loanID, current.Status, to)
	if err != nil {
		return nil, err
	}
	if !updated {
		// Lost a race with another transition on the same loan.
		return nil, fault.ErrConflict
	}

	s.enqueueStatusEvent(ctx, current, to)

	current.Status = to
	current.UpdatedAt = s.now()
	return current, nil
}

func (s *Service) Cancel(ctx context.Context, loanID, actingUserID string) (*Entity, error) {
	return s.Transition(ctx, loanID, actingUserID, StatusCancelled)
}

func (s *Service) Complete(ctx context.Context, loanID, actingUserID string) (*Entity, error) {
	return s.Transition(ctx, loanID, actingUserID, StatusCompleted)
}

func (s *Service) enqueueStatusEvent(ctx context.Context, l *Entity, to Status) {
	if s.outboxRepo == nil {
		return
	}
	payload, _ := json.Marshal(map[string]any{
		"loan_id":    l.ID,
		"user_id":    l.UserID,
		"old_status": l.Status,
		"new_status": to,
	})
	// The transition already committed; notification delivery is best effort.
	_ = s.outboxRepo.Enqueue(ctx, outboxTopicLoanStatusChanged, payload)
}

package offer

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/Ananthadeb1/uiu-lending-backend/internal/domain/fault"
	loandomain "github.com/Ananthadeb1/uiu-lending-backend/internal/domain/loan"
)

const (
	outboxTopicOfferAccepted  = "offer_accepted"
	outboxTopicOfferSubmitted = "offer_submitted"
)

type LoanRepository interface {
	GetByID(ctx context.Context, id string) (*loandomain.Entity, error)
}

type OutboxRepository interface {
	Enqueue(ctx context.Context, topic string, payload []byte) error
}

type Service struct {
	offerRepo  Repository
	loanRepo   LoanRepository
	outboxRepo OutboxRepository
	now        func() time.Time
}

func NewService(offerRepo Repository, loanRepo LoanRepository, outboxRepo OutboxRepository) *Service {
	return &Service{
		offerRepo:  offerRepo,
		loanRepo:   loanRepo,
		outboxRepo: outboxRepo,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Submit records a donor's offer against a pending loan. Validation failures
// never reach the repository.
func (s *Service) Submit(ctx context.Context, in CreateInput) (*Entity, error) {
	if strings.TrimSpace(in.LoanID) == "" {
		return nil, fault.Invalid("loanId", "required")
	}
	if strings.TrimSpace(in.DonorID) == "" {
		return nil, fault.Invalid("donorId", "required")
	}
	if in.AmountMinor <= 0 {
		return nil, fault.Invalid("offeredAmount", "must be positive")
	}
	if in.InterestRate < MinInterestRate || in.InterestRate > MaxInterestRate {
		return nil, fault.Invalid("interestRate", "must be between 0.1 and 50")
	}
	in.Message = strings.TrimSpace(in.Message)

	l, err := s.loanRepo.GetByID(ctx, in.LoanID)
	if err != nil {
		return nil, err
	}
	if l.Status != loandomain.StatusPending {
		return nil, fault.ErrNotFound
	}
	if l.UserID == in.DonorID {
		return nil, fault.Invalid("donorId", "cannot bid on your own loan request")
	}

	created, err := s.offerRepo.Create(ctx, in)
	if err != nil {
		return nil, err
	}

	s.enqueue(ctx, outboxTopicOfferSubmitted, map[string]any{
		"offer_id":    created.ID,
		"loan_id":     created.LoanID,
		"borrower_id": created.BorrowerID,
		"donor_id":    created.DonorID,
	})
	return created, nil
}

// Accept resolves a loan to exactly one winning offer. The borrower must own
// the parent loan, the offer must still be pending, and the loan must still
// be pending with no accepted sibling; those last two are re-checked by the
// repository inside one transaction, so a concurrent winner surfaces here as
// fault.ErrConflict.
func (s *Service) Accept(ctx context.Context, offerID, actingUserID string) (*Entity, error) {
	existing, err := s.offerRepo.GetByID(ctx, offerID)
	if err != nil {
		return nil, err
	}
	if actingUserID != "" && existing.BorrowerID != actingUserID {
		return nil, fault.ErrForbidden
	}
	if existing.Status != StatusPending {
		return nil, fault.ErrState
	}

	accepted, err := s.offerRepo.Accept(ctx, offerID)
	if err != nil {
		return nil, err
	}

	s.enqueue(ctx, outboxTopicOfferAccepted, map[string]any{
		"offer_id":    accepted.ID,
		"loan_id":     accepted.LoanID,
		"borrower_id": accepted.BorrowerID,
		"donor_id":    accepted.DonorID,
	})
	return accepted, nil
}

// Reject marks one offer rejected. The parent loan's lock state is untouched:
// only an acceptance locks a loan, so sibling offers remain selectable.
func (s *Service) Reject(ctx context.Context, offerID, actingUserID string) (*Entity, error) {
	existing, err := s.offerRepo.GetByID(ctx, offerID)
	if err != nil {
		return nil, err
	}
	if actingUserID != "" && existing.BorrowerID != actingUserID {
		return nil, fault.ErrForbidden
	}
	if existing.Status != StatusPending {
		return nil, fault.ErrState
	}
	return s.offerRepo.Reject(ctx, offerID)
}

func (s *Service) List(ctx context.Context, limit, offset int32) ([]Entity, error) {
	return s.offerRepo.List(ctx, limit, offset)
}

func (s *Service) ListByLoan(ctx context.Context, loanID string) ([]Entity, error) {
	if strings.TrimSpace(loanID) == "" {
		return nil, fault.Invalid("loanId", "required")
	}
	return s.offerRepo.ListByLoan(ctx, loanID)
}

func (s *Service) ListByDonor(ctx context.Context, donorID string, limit, offset int32) ([]Entity, error) {
	if strings.TrimSpace(donorID) == "" {
		return nil, fault.Invalid("donorId", "required")
	}
	return s.offerRepo.ListByDonor(ctx, donorID, limit, offset)
}

// Comparison returns the acting borrower's incoming offers grouped per loan,
// the read-side companion of the accept rules.
func (s *Service) Comparison(ctx context.Context, borrowerID string) ([]LoanGroup, error) {
	if strings.TrimSpace(borrowerID) == "" {
		return nil, fault.Invalid("userId", "required")
	}
	offers, err := s.offerRepo.ListByBorrower(ctx, borrowerID)
	if err != nil {
		return nil, err
	}
	return GroupByLoan(offers), nil
}

func (s *Service) enqueue(ctx context.Context, topic string, payload map[string]any) {
	if s.outboxRepo == nil {
		return
	}
	raw, _ := json.Marshal(payload)
	_ = s.outboxRepo.Enqueue(ctx, topic, raw)
}

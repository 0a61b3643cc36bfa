package verification

import (
	"context"
	"encoding/hex"
	"errors"
	"strings"

	"github.com/Ananthadeb1/uiu-lending-backend/internal/domain/fault"
	"golang.org/x/crypto/sha3"
)

var requiredDocuments = []string{"nid_front", "nid_back", "selfie"}

type Service struct {
	repo     Repository
	userRepo UserRepository
}

func NewService(repo Repository, userRepo UserRepository) *Service {
	return &Service{repo: repo, userRepo: userRepo}
}

// FingerprintDocument hashes the uploaded document bytes. Only the digest is
// stored; the service never persists the document itself.
func FingerprintDocument(contents []byte) string {
	h := sha3.Sum256(contents)
	return hex.EncodeToString(h[:])
}

func (s *Service) Submit(ctx context.Context, in SubmitInput) (*Submission, error) {
	if strings.TrimSpace(in.UserID) == "" {
		return nil, fault.Invalid("userId", "required")
	}
	if strings.TrimSpace(in.NIDNumber) == "" {
		return nil, fault.Invalid("nidNumber", "required")
	}
	provided := map[string]bool{}
	for _, d := range in.Documents {
		if strings.TrimSpace(d.Fingerprint) == "" {
			return nil, fault.Invalid("documents", "missing fingerprint for "+d.Kind)
		}
		provided[d.Kind] = true
	}
	for _, kind := range requiredDocuments {
		if !provided[kind] {
			return nil, fault.Invalid("documents", kind+" is required")
		}
	}

	latest, err := s.repo.LatestByUser(ctx, in.UserID)
	if err != nil && !errors.Is(err, fault.ErrNotFound) {
		return nil, err
	}
	if latest != nil && (latest.Status == StatusPending || latest.Status == StatusVerified) {
		return nil, fault.ErrState
	}

	created, err := s.repo.Create(ctx, in)
	if err != nil {
		return nil, err
	}
	if err := s.userRepo.SetVerificationStatus(ctx, in.UserID, StatusPending); err != nil {
		return nil, err
	}
	return created, nil
}

// StatusFor reports the user's current verification state from their latest
// submission; a user with none is not_started.
func (s *Service) StatusFor(ctx context.Context, userID string) (Status, error) {
	latest, err := s.repo.LatestByUser(ctx, userID)
	if errors.Is(err, fault.ErrNotFound) {
		return StatusNotStarted, nil
	}
	if err != nil {
		return "", err
	}
	return latest.Status, nil
}

func (s *Service) History(ctx context.Context, userID string) ([]Submission, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *Service) ListPending(ctx context.Context, limit, offset int32) ([]Submission, error) {
	return s.repo.ListPending(ctx, limit, offset)
}

func (s *Service) Review(ctx context.Context, in ReviewInput) (*Submission, error) {
	sub, err := s.repo.GetByID(ctx, in.SubmissionID)
	if err != nil {
		return nil, err
	}
	if sub.Status != StatusPending {
		return nil, fault.ErrState
	}

	to := StatusRejected
	if in.Approve {
		to = StatusVerified
	}
	updated, err := s.repo.Review(ctx, in, to)
	if err != nil {
		return nil, err
	}
	if !updated {
		return nil, fault.ErrConflict
	}
	if err := s.userRepo.SetVerificationStatus(ctx, sub.UserID, to); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, in.SubmissionID)
}

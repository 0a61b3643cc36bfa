package fundraise

import (
	"context"
	"strings"

	"github.com/Ananthadeb1/uiu-lending-backend/internal/domain/fault"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) CreateCampaign(ctx context.Context, in CreateCampaignInput) (*Campaign, error) {
	if strings.TrimSpace(in.OwnerID) == "" {
		return nil, fault.Invalid("ownerId", "required")
	}
	if strings.TrimSpace(in.Title) == "" {
		return nil, fault.Invalid("title", "required")
	}
	if strings.TrimSpace(in.DonationType) == "" {
		return nil, fault.Invalid("donationType", "required")
	}
	if in.GoalMinor <= 0 {
		return nil, fault.Invalid("goalAmount", "must be positive")
	}
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	return s.repo.CreateCampaign(ctx, in)
}

func (s *Service) ListCampaigns(ctx context.Context, email string, limit, offset int32) ([]Campaign, error) {
	if strings.TrimSpace(email) != "" {
		return s.repo.ListCampaignsByEmail(ctx, email)
	}
	return s.repo.ListCampaigns(ctx, limit, offset)
}

// Donate records a simulated donation. There is no payment processor behind
// this; the row itself is the receipt.
func (s *Service) Donate(ctx context.Context, in DonateInput) (*Donation, error) {
	if strings.TrimSpace(in.CampaignID) == "" {
		return nil, fault.Invalid("campaignId", "required")
	}
	if in.AmountMinor <= 0 {
		return nil, fault.Invalid("amount", "must be positive")
	}
	if _, err := s.repo.GetCampaign(ctx, in.CampaignID); err != nil {
		return nil, err
	}
	return s.repo.RecordDonation(ctx, in)
}

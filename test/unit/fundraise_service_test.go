package unit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Ananthadeb1/uiu-lending-backend/internal/domain/fault"
	fundraisedomain "github.com/Ananthadeb1/uiu-lending-backend/internal/domain/fundraise"
)

type fundraiseRepoMock struct {
	campaigns []fundraisedomain.Campaign
	donations []fundraisedomain.Donation
	nextID    int
}

func (m *fundraiseRepoMock) CreateCampaign(_ context.Context, in fundraisedomain.CreateCampaignInput) (*fundraisedomain.Campaign, error) {
	m.nextID++
	c := fundraisedomain.Campaign{
		ID:           "c-" + string(rune('0'+m.nextID)),
		OwnerID:      in.OwnerID,
		FullName:     in.FullName,
		Email:        in.Email,
		Title:        in.Title,
		DonationType: in.DonationType,
		GoalMinor:    in.GoalMinor,
		Description:  in.Description,
		CreatedAt:    time.Now().UTC(),
	}
	m.campaigns = append(m.campaigns, c)
	return &c, nil
}

func (m *fundraiseRepoMock) GetCampaign(_ context.Context, id string) (*fundraisedomain.Campaign, error) {
	for i := range m.campaigns {
		if m.campaigns[i].ID == id {
			cp := m.campaigns[i]
			return &cp, nil
		}
	}
	return nil, fault.ErrNotFound
}

func (m *fundraiseRepoMock) ListCampaigns(_ context.Context, _ int32, _ int32) ([]fundraisedomain.Campaign, error) {
	return m.campaigns, nil
}

func (m *fundraiseRepoMock) ListCampaignsByEmail(_ context.Context, email string) ([]fundraisedomain.Campaign, error) {
	out := []fundraisedomain.Campaign{}
	for _, c := range m.campaigns {
		if c.Email == email {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *fundraiseRepoMock) RecordDonation(_ context.Context, in fundraisedomain.DonateInput) (*fundraisedomain.Donation, error) {
	d := fundraisedomain.Donation{
		ID:          "d-1",
		CampaignID:  in.CampaignID,
		DonorID:     in.DonorID,
		DonorName:   in.DonorName,
		AmountMinor: in.AmountMinor,
		CreatedAt:   time.Now().UTC(),
	}
	m.donations = append(m.donations, d)
	for i := range m.campaigns {
		if m.campaigns[i].ID == in.CampaignID {
			m.campaigns[i].RaisedMinor += in.AmountMinor
		}
	}
	return &d, nil
}

func TestCreateCampaignSuccess(t *testing.T) {
	repo := &fundraiseRepoMock{}
	svc := fundraisedomain.NewService(repo)

	created, err := svc.CreateCampaign(context.Background(), fundraisedomain.CreateCampaignInput{
		OwnerID:      "u1",
		FullName:     "Rahim Uddin",
		Email:        "rahim@example.com",
		Title:        "Medical support",
		DonationType: "medical",
		GoalMinor:    500000,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.RaisedMinor != 0 {
		t.Fatalf("new campaign must start at zero raised, got %d", created.RaisedMinor)
	}
}

func TestCreateCampaignValidation(t *testing.T) {
	svc := fundraisedomain.NewService(&fundraiseRepoMock{})

	cases := []fundraisedomain.CreateCampaignInput{
		{OwnerID: "", Title: "t", DonationType: "medical", GoalMinor: 100},
		{OwnerID: "u1", Title: " ", DonationType: "medical", GoalMinor: 100},
		{OwnerID: "u1", Title: "t", DonationType: "", GoalMinor: 100},
		{OwnerID: "u1", Title: "t", DonationType: "medical", GoalMinor: 0},
		{OwnerID: "u1", Title: "t", DonationType: "medical", GoalMinor: -10},
	}
	for i, in := range cases {
		if _, err := svc.CreateCampaign(context.Background(), in); !fault.IsValidation(err) {
			t.Fatalf("case %d: expected validation error, got %v", i, err)
		}
	}
}

func TestListCampaignsByEmailFilter(t *testing.T) {
	repo := &fundraiseRepoMock{}
	svc := fundraisedomain.NewService(repo)

	_, _ = svc.CreateCampaign(context.Background(), fundraisedomain.CreateCampaignInput{
		OwnerID: "u1", Email: "a@example.com", Title: "one", DonationType: "education", GoalMinor: 100,
	})
	_, _ = svc.CreateCampaign(context.Background(), fundraisedomain.CreateCampaignInput{
		OwnerID: "u2", Email: "b@example.com", Title: "two", DonationType: "education", GoalMinor: 100,
	})

	mine, err := svc.ListCampaigns(context.Background(), "a@example.com", 50, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(mine) != 1 || mine[0].Email != "a@example.com" {
		t.Fatalf("expected only the owner's campaigns, got %+v", mine)
	}

	all, err := svc.ListCampaigns(context.Background(), "", 50, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected both campaigns, got %d", len(all))
	}
}

func TestDonateBumpsRaisedTotal(t *testing.T) {
	repo := &fundraiseRepoMock{}
	svc := fundraisedomain.NewService(repo)

	campaign, _ := svc.CreateCampaign(context.Background(), fundraisedomain.CreateCampaignInput{
		OwnerID: "u1", Title: "flood relief", DonationType: "disaster", GoalMinor: 100000,
	})

	if _, err := svc.Donate(context.Background(), fundraisedomain.DonateInput{
		CampaignID:  campaign.ID,
		DonorID:     "u2",
		AmountMinor: 2500,
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stored, _ := repo.GetCampaign(context.Background(), campaign.ID)
	if stored.RaisedMinor != 2500 {
		t.Fatalf("expected raised total 2500, got %d", stored.RaisedMinor)
	}
}

func TestDonateValidation(t *testing.T) {
	repo := &fundraiseRepoMock{}
	svc := fundraisedomain.NewService(repo)

	if _, err := svc.Donate(context.Background(), fundraisedomain.DonateInput{CampaignID: "", AmountMinor: 100}); !fault.IsValidation(err) {
		t.Fatalf("expected validation error for missing campaign id, got %v", err)
	}
	if _, err := svc.Donate(context.Background(), fundraisedomain.DonateInput{CampaignID: "c-1", AmountMinor: 0}); !fault.IsValidation(err) {
		t.Fatalf("expected validation error for zero amount, got %v", err)
	}
	if _, err := svc.Donate(context.Background(), fundraisedomain.DonateInput{CampaignID: "missing", AmountMinor: 100}); !errors.Is(err, fault.ErrNotFound) {
		t.Fatalf("expected not found for unknown campaign, got %v", err)
	}
}

package fundraise

import (
	"context"
	"time"
)

type Campaign struct {
	ID           string    `json:"id"`
	OwnerID      string    `json:"ownerId"`
	FullName     string    `json:"fullName"`
	Email        string    `json:"email"`
	Title        string    `json:"title"`
	DonationType string    `json:"donationType"`
	GoalMinor    int64     `json:"goalAmount"`
	RaisedMinor  int64     `json:"raisedAmount"`
	Description  string    `json:"description,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

type Donation struct {
	ID          string    `json:"id"`
	CampaignID  string    `json:"campaignId"`
	DonorID     string    `json:"donorId"`
	DonorName   string    `json:"donorName"`
	AmountMinor int64     `json:"amount"`
	CreatedAt   time.Time `json:"createdAt"`
}

type CreateCampaignInput struct {
	OwnerID      string
	FullName     string
	Email        string
	Title        string
	DonationType string
	GoalMinor    int64
	Description  string
}

type DonateInput struct {
	CampaignID  string
	DonorID     string
	DonorName   string
	AmountMinor int64
}

type Repository interface {
	CreateCampaign(ctx context.Context, in CreateCampaignInput) (*Campaign, error)
	GetCampaign(ctx context.Context, id string) (*Campaign, error)
	ListCampaigns(ctx context.Context, limit, offset int32) ([]Campaign, error)
	ListCampaignsByEmail(ctx context.Context, email string) ([]Campaign, error)
	// RecordDonation inserts the donation row and bumps the campaign's raised
	// total in one transaction.
	RecordDonation(ctx context.Context, in DonateInput) (*Donation, error)
}

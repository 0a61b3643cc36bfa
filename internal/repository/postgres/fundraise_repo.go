package postgres

import (
	"context"
	"errors"

	"github.com/Ananthadeb1/uiu-lending-backend/internal/domain/fault"
	"github.com/Ananthadeb1/uiu-lending-backend/internal/domain/fundraise"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const campaignColumns = `id, owner_id, full_name, email, title, donation_type, goal_minor, raised_minor, description, created_at`

type FundraiseRepository struct {
	pool *pgxpool.Pool
}

func NewFundraiseRepository(pool *pgxpool.Pool) *FundraiseRepository {
	return &FundraiseRepository{pool: pool}
}

func scanCampaign(row pgx.Row) (*fundraise.Campaign, error) {
	out := &fundraise.Campaign{}
	err := row.Scan(
		&out.ID, &out.OwnerID, &out.FullName, &out.Email, &out.Title, &out.DonationType,
		&out.GoalMinor, &out.RaisedMinor, &out.Description, &out.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fault.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *FundraiseRepository) CreateCampaign(ctx context.Context, in fundraise.CreateCampaignInput) (*fundraise.Campaign, error) {
	q := `
INSERT INTO fundraise_campaigns (owner_id, full_name, email, title, donation_type, goal_minor, description)
VALUES ($1,$2,$3,$4,$5,$6,$7)
RETURNING ` + campaignColumns
	return scanCampaign(r.pool.QueryRow(ctx, q,
		in.OwnerID, in.FullName, in.Email, in.Title, in.DonationType, in.GoalMinor, in.Description,
	))
}

func (r *FundraiseRepository) GetCampaign(ctx context.Context, id string) (*fundraise.Campaign, error) {
	q := `SELECT ` + campaignColumns + ` FROM fundraise_campaigns WHERE id = $1`
	return scanCampaign(r.pool.QueryRow(ctx, q, id))
}

func (r *FundraiseRepository) ListCampaigns(ctx context.Context, limit, offset int32) ([]fundraise.Campaign, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	q := `SELECT ` + campaignColumns + ` FROM fundraise_campaigns ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	rows, err := r.pool.Query(ctx, q, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectCampaigns(rows)
}

func (r *FundraiseRepository) ListCampaignsByEmail(ctx context.Context, email string) ([]fundraise.Campaign, error) {
	q := `SELECT ` + campaignColumns + ` FROM fundraise_campaigns WHERE email = $1 ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, q, email)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectCampaigns(rows)
}

func (r *FundraiseRepository) RecordDonation(ctx context.Context, in fundraise.DonateInput) (*fundraise.Donation, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	out := &fundraise.Donation{}
	q := `
INSERT INTO fundraise_donations (campaign_id, donor_id, donor_name, amount_minor)
VALUES ($1,$2,$3,$4)
RETURNING id, campaign_id, donor_id, donor_name, amount_minor, created_at
`
	err = tx.QueryRow(ctx, q, in.CampaignID, in.DonorID, in.DonorName, in.AmountMinor).
		Scan(&out.ID, &out.CampaignID, &out.DonorID, &out.DonorName, &out.AmountMinor, &out.CreatedAt)
	if err != nil {
		return nil, err
	}

	tag, err := tx.Exec(ctx, `UPDATE fundraise_campaigns SET raised_minor = raised_minor + $2 WHERE id = $1`, in.CampaignID, in.AmountMinor)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, fault.ErrNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return out, nil
}

func collectCampaigns(rows pgx.Rows) ([]fundraise.Campaign, error) {
	out := make([]fundraise.Campaign, 0)
	for rows.Next() {
		var item fundraise.Campaign
		if err := rows.Scan(
			&item.ID, &item.OwnerID, &item.FullName, &item.Email, &item.Title, &item.DonationType,
			&item.GoalMinor, &item.RaisedMinor, &item.Description, &item.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

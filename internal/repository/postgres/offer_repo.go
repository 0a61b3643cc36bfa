package postgres

import (
	"context"
	"errors"

	"github.com/Ananthadeb1/uiu-lending-backend/internal/domain/fault"
	"github.com/Ananthadeb1/uiu-lending-backend/internal/domain/offer"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// offerColumns joins the parent loan so every offer row carries the borrower
// identity the comparison and ownership checks need.
const offerColumns = `o.id, o.loan_id, o.donor_id, o.donor_name, o.donor_email,
       o.amount_minor, o.interest_rate, o.message, o.status, o.created_at, o.accepted_at,
       l.user_id, l.user_name, l.user_email`

const offerSelect = `SELECT ` + offerColumns + ` FROM offers o JOIN loan_requests l ON l.id = o.loan_id`

type OfferRepository struct {
	pool *pgxpool.Pool
}

func NewOfferRepository(pool *pgxpool.Pool) *OfferRepository {
	return &OfferRepository{pool: pool}
}

func scanOffer(row pgx.Row) (*offer.Entity, error) {
	out := &offer.Entity{}
	err := row.Scan(
		&out.ID, &out.LoanID, &out.DonorID, &out.DonorName, &out.DonorEmail,
		&out.AmountMinor, &out.InterestRate, &out.Message, &out.Status, &out.CreatedAt, &out.AcceptedAt,
		&out.BorrowerID, &out.BorrowerName, &out.BorrowerEmail,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fault.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Create inserts through a guarded SELECT so the parent loan is still pending
// at insert time. The service pre-checks the loan, but the loan can resolve
// between that read and this insert.
func (r *OfferRepository) Create(ctx context.Context, in offer.CreateInput) (*offer.Entity, error) {
	q := `
INSERT INTO offers (loan_id, donor_id, donor_name, donor_email, amount_minor, interest_rate, message)
SELECT l.id, $2, $3, $4, $5, $6, $7
FROM loan_requests l
WHERE l.id = $1 AND l.status = 'pending'
RETURNING id
`
	var id string
	err := r.pool.QueryRow(ctx, q,
		in.LoanID, in.DonorID, in.DonorName, in.DonorEmail, in.AmountMinor, in.InterestRate, in.Message,
	).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fault.ErrState
	}
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *OfferRepository) GetByID(ctx context.Context, id string) (*offer.Entity, error) {
	return scanOffer(r.pool.QueryRow(ctx, offerSelect+` WHERE o.id = $1`, id))
}

func (r *OfferRepository) ListByLoan(ctx context.Context, loanID string) ([]offer.Entity, error) {
	rows, err := r.pool.Query(ctx, offerSelect+` WHERE o.loan_id = $1 ORDER BY o.created_at DESC`, loanID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectOffers(rows)
}

func (r *OfferRepository) ListByDonor(ctx context.Context, donorID string, limit, offset int32) ([]offer.Entity, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := r.pool.Query(ctx, offerSelect+` WHERE o.donor_id = $1 ORDER BY o.created_at DESC LIMIT $2 OFFSET $3`, donorID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectOffers(rows)
}

func (r *OfferRepository) List(ctx context.Context, limit, offset int32) ([]offer.Entity, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := r.pool.Query(ctx, offerSelect+` ORDER BY o.created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectOffers(rows)
}

func (r *OfferRepository) ListByBorrower(ctx context.Context, borrowerID string) ([]offer.Entity, error) {
	rows, err := r.pool.Query(ctx, offerSelect+` WHERE l.user_id = $1 ORDER BY o.loan_id, o.created_at DESC`, borrowerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectOffers(rows)
}

// Accept is the single atomic step of the whole workflow: within one
// transaction the parent loan is swapped pending -> approved and the offer
// pending -> accepted. The loan CAS failing means another offer won first
// (or the loan left pending some other way), which is fault.ErrConflict; the
// offer CAS failing afterwards means this offer itself was already resolved.
func (r *OfferRepository) Accept(ctx context.Context, offerID string) (*offer.Entity, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var loanID string
	err = tx.QueryRow(ctx, `SELECT loan_id FROM offers WHERE id = $1 FOR UPDATE`, offerID).Scan(&loanID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fault.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	tag, err := tx.Exec(ctx, `UPDATE loan_requests SET status = 'approved', updated_at = NOW() WHERE id = $1 AND status = 'pending'`, loanID)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, fault.ErrConflict
	}

	tag, err = tx.Exec(ctx, `UPDATE offers SET status = 'accepted', accepted_at = NOW() WHERE id = $1 AND status = 'pending'`, offerID)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, fault.ErrState
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, offerID)
}

func (r *OfferRepository) Reject(ctx context.Context, offerID string) (*offer.Entity, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE offers SET status = 'rejected' WHERE id = $1 AND status = 'pending'`, offerID)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		existing, err := r.GetByID(ctx, offerID)
		if err != nil {
			return nil, err
		}
		if existing.Status != offer.StatusPending {
			return nil, fault.ErrState
		}
		return nil, fault.ErrNotFound
	}
	return r.GetByID(ctx, offerID)
}

func collectOffers(rows pgx.Rows) ([]offer.Entity, error) {
	out := make([]offer.Entity, 0)
	for rows.Next() {
		var item offer.Entity
		if err := rows.Scan(
			&item.ID, &item.LoanID, &item.DonorID, &item.DonorName, &item.DonorEmail,
			&item.AmountMinor, &item.InterestRate, &item.Message, &item.Status, &item.CreatedAt, &item.AcceptedAt,
			&item.BorrowerID, &item.BorrowerName, &item.BorrowerEmail,
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

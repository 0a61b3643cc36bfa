package postgres

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/Ananthadeb1/uiu-lending-backend/internal/domain/fault"
	"github.com/Ananthadeb1/uiu-lending-backend/internal/domain/verification"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const submissionColumns = `id, user_id, nid_number, documents, status, review_note, reviewer_id, submitted_at, reviewed_at`

type VerificationRepository struct {
	pool *pgxpool.Pool
}

func NewVerificationRepository(pool *pgxpool.Pool) *VerificationRepository {
	return &VerificationRepository{pool: pool}
}

func scanSubmission(row pgx.Row) (*verification.Submission, error) {
	out := &verification.Submission{}
	var docs []byte
	var reviewerID *string
	err := row.Scan(&out.ID, &out.UserID, &out.NIDNumber, &docs, &out.Status, &out.ReviewNote, &reviewerID, &out.SubmittedAt, &out.ReviewedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fault.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if reviewerID != nil {
		out.ReviewerID = *reviewerID
	}
	if err := json.Unmarshal(docs, &out.DocumentRefs); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *VerificationRepository) Create(ctx context.Context, in verification.SubmitInput) (*verification.Submission, error) {
	docs, err := json.Marshal(in.Documents)
	if err != nil {
		return nil, err
	}
	q := `
INSERT INTO verification_submissions (user_id, nid_number, documents)
VALUES ($1, $2, $3::jsonb)
RETURNING ` + submissionColumns
	return scanSubmission(r.pool.QueryRow(ctx, q, in.UserID, in.NIDNumber, docs))
}

func (r *VerificationRepository) GetByID(ctx context.Context, id string) (*verification.Submission, error) {
	q := `SELECT ` + submissionColumns + ` FROM verification_submissions WHERE id = $1`
	return scanSubmission(r.pool.QueryRow(ctx, q, id))
}

func (r *VerificationRepository) LatestByUser(ctx context.Context, userID string) (*verification.Submission, error) {
	q := `SELECT ` + submissionColumns + ` FROM verification_submissions WHERE user_id = $1 ORDER BY submitted_at DESC LIMIT 1`
	return scanSubmission(r.pool.QueryRow(ctx, q, userID))
}

func (r *VerificationRepository) ListByUser(ctx context.Context, userID string) ([]verification.Submission, error) {
	q := `SELECT ` + submissionColumns + ` FROM verification_submissions WHERE user_id = $1 ORDER BY submitted_at DESC`
	rows, err := r.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectSubmissions(rows)
}

func (r *VerificationRepository) ListPending(ctx context.Context, limit, offset int32) ([]verification.Submission, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	q := `SELECT ` + submissionColumns + ` FROM verification_submissions WHERE status = 'pending' ORDER BY submitted_at ASC LIMIT $1 OFFSET $2`
	rows, err := r.pool.Query(ctx, q, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectSubmissions(rows)
}

func (r *VerificationRepository) Review(ctx context.Context, in verification.ReviewInput, to verification.Status) (bool, error) {
	q := `
UPDATE verification_submissions
SET status = $2, review_note = $3, reviewer_id = $4, reviewed_at = NOW()
WHERE id = $1 AND status = 'pending'
`
	tag, err := r.pool.Exec(ctx, q, in.SubmissionID, string(to), in.Note, in.ReviewerID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func collectSubmissions(rows pgx.Rows) ([]verification.Submission, error) {
	out := make([]verification.Submission, 0)
	for rows.Next() {
		var item verification.Submission
		var docs []byte
		var reviewerID *string
		if err := rows.Scan(&item.ID, &item.UserID, &item.NIDNumber, &docs, &item.Status, &item.ReviewNote, &reviewerID, &item.SubmittedAt, &item.ReviewedAt); err != nil {
			return nil, err
		}
		if reviewerID != nil {
			item.ReviewerID = *reviewerID
		}
		if err := json.Unmarshal(docs, &item.DocumentRefs); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

package postgres

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/Ananthadeb1/uiu-lending-backend/internal/domain/fault"
	"github.com/Ananthadeb1/uiu-lending-backend/internal/domain/loan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const loanColumns = `id, user_id, user_name, user_email, amount_minor, purpose,
       repayment_months, description, status, created_at, updated_at`

type LoanRepository struct {
	pool *pgxpool.Pool
}

func NewLoanRepository(pool *pgxpool.Pool) *LoanRepository {
	return &LoanRepository{pool: pool}
}

func scanLoan(row pgx.Row) (*loan.Entity, error) {
	out := &loan.Entity{}
	err := row.Scan(
		&out.ID, &out.UserID, &out.UserName, &out.UserEmail, &out.AmountMinor, &out.Purpose,
		&out.RepaymentTime, &out.Description, &out.Status, &out.CreatedAt, &out.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fault.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *LoanRepository) Create(ctx context.Context, in loan.CreateInput) (*loan.Entity, error) {
	q := `
INSERT INTO loan_requests (user_id, user_name, user_email, amount_minor, purpose, repayment_months, description)
VALUES ($1,$2,$3,$4,$5,$6,$7)
RETURNING ` + loanColumns
	return scanLoan(r.pool.QueryRow(ctx, q,
		in.UserID, in.UserName, in.UserEmail, in.AmountMinor, in.Purpose, in.RepaymentTime, in.Description,
	))
}

func (r *LoanRepository) GetByID(ctx context.Context, id string) (*loan.Entity, error) {
	q := `SELECT ` + loanColumns + ` FROM loan_requests WHERE id = $1`
	return scanLoan(r.pool.QueryRow(ctx, q, id))
}

func (r *LoanRepository) List(ctx context.Context, f loan.ListFilter) ([]loan.Entity, error) {
	if f.Limit <= 0 {
		f.Limit = 50
	}
	if f.Offset < 0 {
		f.Offset = 0
	}

	builder := strings.Builder{}
	builder.WriteString(`SELECT ` + loanColumns + ` FROM loan_requests WHERE 1=1`)

	args := []any{}
	argPos := 1
	if strings.TrimSpace(string(f.Status)) != "" {
		builder.WriteString(" AND status = $")
		builder.WriteString(strconv.Itoa(argPos))
		args = append(args, string(f.Status))
		argPos++
	}
	builder.WriteString(" ORDER BY created_at DESC")
	builder.WriteString(" LIMIT $")
	builder.WriteString(strconv.Itoa(argPos))
	args = append(args, f.Limit)
	argPos++
	builder.WriteString(" OFFSET $")
	builder.WriteString(strconv.Itoa(argPos))
	args = append(args, f.Offset)

	rows, err := r.pool.Query(ctx, builder.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectLoans(rows)
}

func (r *LoanRepository) ListByUser(ctx context.Context, userID string, limit, offset int32) ([]loan.Entity, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	q := `SELECT ` + loanColumns + ` FROM loan_requests WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	rows, err := r.pool.Query(ctx, q, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectLoans(rows)
}

// UpdateStatus is a compare-and-swap: the row changes only if it still holds
// the expected current status.
func (r *LoanRepository) UpdateStatus(ctx context.Context, id string, from, to loan.Status) (bool, error) {
	q := `UPDATE loan_requests SET status = $3, updated_at = NOW() WHERE id = $1 AND status = $2`
	tag, err := r.pool.Exec(ctx, q, id, string(from), string(to))
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func collectLoans(rows pgx.Rows) ([]loan.Entity, error) {
	out := make([]loan.Entity, 0)
	for rows.Next() {
		var item loan.Entity
		if err := rows.Scan(
			&item.ID, &item.UserID, &item.UserName, &item.UserEmail, &item.AmountMinor, &item.Purpose,
			&item.RepaymentTime, &item.Description, &item.Status, &item.CreatedAt, &item.UpdatedAt,
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

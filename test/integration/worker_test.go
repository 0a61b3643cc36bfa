package integration

import (
	"context"
	"testing"

	loandomain "github.com/Ananthadeb1/uiu-lending-backend/internal/domain/loan"
	offerdomain "github.com/Ananthadeb1/uiu-lending-backend/internal/domain/offer"
	"github.com/Ananthadeb1/uiu-lending-backend/internal/jobs"
	postgresrepo "github.com/Ananthadeb1/uiu-lending-backend/internal/repository/postgres"
	"github.com/Ananthadeb1/uiu-lending-backend/test/integration/testutil"
)

func TestWorkerFansAcceptedOfferIntoNotifications(t *testing.T) {
	pool := testutil.NewTestPool(t)
	defer pool.Close()
	testutil.ApplyMigrations(t, pool)
	testutil.ResetTables(t, pool)

	ctx := context.Background()
	loanRepo := postgresrepo.NewLoanRepository(pool)
	offerRepo := postgresrepo.NewOfferRepository(pool)
	outboxRepo := postgresrepo.NewOutboxRepository(pool)
	notifRepo := postgresrepo.NewNotificationRepository(pool)

	borrower := createUser(t, pool, "idp-w-borrower", "w.borrower@example.com", "W Borrower")
	donor := createUser(t, pool, "idp-w-donor", "w.donor@example.com", "W Donor")
	loanItem := createPendingLoan(t, pool, borrower)

	svc := offerdomain.NewService(offerRepo, loanRepo, outboxRepo)
	created, err := svc.Submit(ctx, offerdomain.CreateInput{
		LoanID:       loanItem.ID,
		DonorID:      donor.ID,
		DonorName:    donor.Name,
		DonorEmail:   donor.Email,
		AmountMinor:  250000,
		InterestRate: 5,
	})
	if err != nil {
		t.Fatalf("submit offer: %v", err)
	}
	if _, err := svc.Accept(ctx, created.ID, borrower.ID); err != nil {
		t.Fatalf("accept offer: %v", err)
	}

	worker := jobs.NewWorker(outboxRepo, notifRepo)
	if err := worker.RunOnce(ctx, 10); err != nil {
		t.Fatalf("worker run: %v", err)
	}

	events, err := notifRepo.ListEventsSince(ctx, 0, 100)
	if err != nil {
		t.Fatalf("list events: %v", err)
	}

	// submit notifies the borrower; accept notifies borrower and donor.
	byRecipient := map[string]int{}
	for _, ev := range events {
		byRecipient[ev.RecipientID]++
	}
	if byRecipient[borrower.ID] != 2 {
		t.Fatalf("expected 2 borrower notifications, got %d", byRecipient[borrower.ID])
	}
	if byRecipient[donor.ID] != 1 {
		t.Fatalf("expected 1 donor notification, got %d", byRecipient[donor.ID])
	}

	var pendingJobs int
	if err := pool.QueryRow(ctx, `SELECT COUNT(*) FROM outbox_jobs WHERE status <> 'done'`).Scan(&pendingJobs); err != nil {
		t.Fatalf("count jobs: %v", err)
	}
	if pendingJobs != 0 {
		t.Fatalf("all outbox jobs must be done, %d remain", pendingJobs)
	}

	loanAfter, err := loanRepo.GetByID(ctx, loanItem.ID)
	if err != nil {
		t.Fatalf("reload loan: %v", err)
	}
	if loanAfter.Status != loandomain.StatusApproved {
		t.Fatalf("loan must be approved, got %s", loanAfter.Status)
	}
}

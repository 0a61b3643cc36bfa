package integration

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Ananthadeb1/uiu-lending-backend/internal/auth"
	"github.com/Ananthadeb1/uiu-lending-backend/internal/config"
	"github.com/Ananthadeb1/uiu-lending-backend/internal/db"
	loandomain "github.com/Ananthadeb1/uiu-lending-backend/internal/domain/loan"
	"github.com/Ananthadeb1/uiu-lending-backend/internal/http/handlers"
	"github.com/Ananthadeb1/uiu-lending-backend/internal/server"
	"github.com/gin-gonic/gin"
)

type fakeLoanService struct {
	listedUserID   string
	transitionedID string
	transitionedTo loandomain.Status
	actingID       string
}

func (f *fakeLoanService) CreateRequest(_ context.Context, in loandomain.CreateInput) (*loandomain.Entity, error) {
	return &loandomain.Entity{ID: "l1", UserID: in.UserID, Status: loandomain.StatusPending}, nil
}

func (f *fakeLoanService) ListOpen(_ context.Context, _, _ int32) ([]loandomain.Entity, error) {
	return []loandomain.Entity{{ID: "l1", Status: loandomain.StatusPending}}, nil
}

func (f *fakeLoanService) List(_ context.Context, _ loandomain.ListFilter) ([]loandomain.Entity, error) {
	return []loandomain.Entity{{ID: "l1"}}, nil
}

func (f *fakeLoanService) ListByUser(_ context.Context, userID string, _, _ int32) ([]loandomain.Entity, error) {
	f.listedUserID = userID
	return []loandomain.Entity{{ID: "l1", UserID: userID, Status: loandomain.StatusPending}}, nil
}

func (f *fakeLoanService) Get(_ context.Context, loanID string) (*loandomain.Entity, error) {
	return &loandomain.Entity{ID: loanID, Status: loandomain.StatusPending}, nil
}

func (f *fakeLoanService) Transition(_ context.Context, loanID, actingUserID string, to loandomain.Status) (*loandomain.Entity, error) {
	f.transitionedID = loanID
	f.transitionedTo = to
	f.actingID = actingUserID
	return &loandomain.Entity{ID: loanID, Status: to}, nil
}

func newLoanRouter(svc *fakeLoanService) (*gin.Engine, *auth.JWTManager) {
	gin.SetMode(gin.TestMode)
	jwtManager := auth.NewJWTManager("issuer", "aud", "super-secret")
	users := &fakeUsers{byID: map[string]*db.User{
		"borrower-1": {ID: "borrower-1", Name: "Borrower One", Email: "borrower@example.com", Role: db.RoleUser},
		"borrower-2": {ID: "borrower-2", Name: "Borrower Two", Email: "borrower2@example.com", Role: db.RoleUser},
		"admin-1":    {ID: "admin-1", Name: "Admin", Email: "admin@example.com", Role: db.RoleAdmin},
	}}
	loanHandler := handlers.NewLoanHandler(svc, users)
	r := server.NewRouter(config.Config{Env: "test"}, slog.Default(), server.Dependencies{
		LoanHandler: loanHandler,
		JWTManager:  jwtManager,
	})
	return r, jwtManager
}

func TestListOwnLoansByUserRoute(t *testing.T) {
	svc := &fakeLoanService{}
	r, jwtManager := newLoanRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/v1/loans/user/borrower-1", nil)
	req.AddCookie(authCookie(t, jwtManager, "borrower-1", db.RoleUser))
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.listedUserID != "borrower-1" {
		t.Fatalf("listing must target the acting user, got %q", svc.listedUserID)
	}
}

func TestListOwnLoansMineAlias(t *testing.T) {
	svc := &fakeLoanService{}
	r, jwtManager := newLoanRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/v1/loans/mine", nil)
	req.AddCookie(authCookie(t, jwtManager, "borrower-1", db.RoleUser))
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.listedUserID != "borrower-1" {
		t.Fatalf("alias must resolve to the acting user, got %q", svc.listedUserID)
	}
}

func TestListUserLoansBlocksOtherUsers(t *testing.T) {
	svc := &fakeLoanService{}
	r, jwtManager := newLoanRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/v1/loans/user/borrower-2", nil)
	req.AddCookie(authCookie(t, jwtManager, "borrower-1", db.RoleUser))
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for another user's loans, got %d", resp.Code)
	}
	if svc.listedUserID != "" {
		t.Fatalf("service must not be reached, got listing for %q", svc.listedUserID)
	}
}

func TestListUserLoansAdminBypass(t *testing.T) {
	svc := &fakeLoanService{}
	r, jwtManager := newLoanRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/v1/loans/user/borrower-2", nil)
	req.AddCookie(authCookie(t, jwtManager, "admin-1", db.RoleAdmin))
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin, got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.listedUserID != "borrower-2" {
		t.Fatalf("admin listing must target the requested user, got %q", svc.listedUserID)
	}
}

func TestUpdateLoanStatusRoute(t *testing.T) {
	svc := &fakeLoanService{}
	r, jwtManager := newLoanRouter(svc)

	body := bytes.NewBufferString(`{"status":"cancelled"}`)
	req := httptest.NewRequest(http.MethodPatch, "/v1/loans/l1", body)
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(authCookie(t, jwtManager, "borrower-1", db.RoleUser))
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.transitionedID != "l1" || svc.transitionedTo != loandomain.StatusCancelled {
		t.Fatalf("unexpected transition: id=%q to=%q", svc.transitionedID, svc.transitionedTo)
	}
	if svc.actingID != "borrower-1" {
		t.Fatalf("ownership must ride on the acting user, got %q", svc.actingID)
	}
}

func TestLoanRoutesRequireAuth(t *testing.T) {
	svc := &fakeLoanService{}
	r, _ := newLoanRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/v1/loans/mine", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without cookie, got %d", resp.Code)
	}
}

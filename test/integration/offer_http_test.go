package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Ananthadeb1/uiu-lending-backend/internal/auth"
	"github.com/Ananthadeb1/uiu-lending-backend/internal/config"
	"github.com/Ananthadeb1/uiu-lending-backend/internal/db"
	"github.com/Ananthadeb1/uiu-lending-backend/internal/domain/fault"
	offerdomain "github.com/Ananthadeb1/uiu-lending-backend/internal/domain/offer"
	"github.com/Ananthadeb1/uiu-lending-backend/internal/http/handlers"
	"github.com/Ananthadeb1/uiu-lending-backend/internal/server"
	"github.com/gin-gonic/gin"
)

type fakeOfferService struct {
	submitted  *offerdomain.Entity
	acceptErr  error
	acceptedID string
}

func (f *fakeOfferService) Submit(_ context.Context, in offerdomain.CreateInput) (*offerdomain.Entity, error) {
	e := &offerdomain.Entity{
		ID:           "o1",
		LoanID:       in.LoanID,
		DonorID:      in.DonorID,
		AmountMinor:  in.AmountMinor,
		InterestRate: in.InterestRate,
		Status:       offerdomain.StatusPending,
	}
	f.submitted = e
	return e, nil
}

func (f *fakeOfferService) Accept(_ context.Context, offerID, _ string) (*offerdomain.Entity, error) {
	if f.acceptErr != nil {
		return nil, f.acceptErr
	}
	f.acceptedID = offerID
	return &offerdomain.Entity{ID: offerID, Status: offerdomain.StatusAccepted}, nil
}

func (f *fakeOfferService) Reject(_ context.Context, offerID, _ string) (*offerdomain.Entity, error) {
	return &offerdomain.Entity{ID: offerID, Status: offerdomain.StatusRejected}, nil
}

func (f *fakeOfferService) ListByLoan(_ context.Context, loanID string) ([]offerdomain.Entity, error) {
	return []offerdomain.Entity{{ID: "o1", LoanID: loanID}}, nil
}

func (f *fakeOfferService) ListByDonor(_ context.Context, donorID string, _ int32, _ int32) ([]offerdomain.Entity, error) {
	return []offerdomain.Entity{{ID: "o1", DonorID: donorID}}, nil
}

func (f *fakeOfferService) Comparison(_ context.Context, borrowerID string) ([]offerdomain.LoanGroup, error) {
	return []offerdomain.LoanGroup{{LoanID: "l1", HasAccepted: true, Offers: []offerdomain.Entity{{ID: "o1", BorrowerID: borrowerID}}}}, nil
}

type fakeUsers struct {
	byID map[string]*db.User
}

func (f *fakeUsers) GetUserByID(_ context.Context, userID string) (*db.User, error) {
	if u, ok := f.byID[userID]; ok {
		return u, nil
	}
	return nil, fault.ErrNotFound
}

func authCookie(t *testing.T, m *auth.JWTManager, userID, role string) *http.Cookie {
	t.Helper()
	tok, err := m.Mint(userID, "s1", role, "access", 5*time.Minute)
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return &http.Cookie{Name: auth.AccessCookieName, Value: tok}
}

func newOfferRouter(svc *fakeOfferService) (*gin.Engine, *auth.JWTManager) {
	gin.SetMode(gin.TestMode)
	jwtManager := auth.NewJWTManager("issuer", "aud", "super-secret")
	users := &fakeUsers{byID: map[string]*db.User{
		"donor-1":    {ID: "donor-1", Name: "Donor One", Email: "donor@example.com", Role: db.RoleDonor},
		"borrower-1": {ID: "borrower-1", Name: "Borrower One", Email: "borrower@example.com", Role: db.RoleUser},
	}}
	offerHandler := handlers.NewOfferHandler(svc, users)
	r := server.NewRouter(config.Config{Env: "test"}, slog.Default(), server.Dependencies{
		OfferHandler: offerHandler,
		JWTManager:   jwtManager,
	})
	return r, jwtManager
}

func TestSubmitOfferRoute(t *testing.T) {
	svc := &fakeOfferService{}
	r, jwtManager := newOfferRouter(svc)

	body, _ := json.Marshal(map[string]any{
		"loanId":        "l1",
		"offeredAmount": 250000,
		"interestRate":  4.5,
	})
	req := httptest.NewRequest(http.MethodPost, "/v1/offers", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(authCookie(t, jwtManager, "donor-1", db.RoleDonor))
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.submitted == nil || svc.submitted.DonorID != "donor-1" {
		t.Fatalf("submit must carry the acting donor, got %+v", svc.submitted)
	}
}

func TestSubmitOfferRequiresDonorRole(t *testing.T) {
	svc := &fakeOfferService{}
	r, jwtManager := newOfferRouter(svc)

	body := bytes.NewBufferString(`{"loanId":"l1","offeredAmount":100,"interestRate":4.5}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/offers", body)
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(authCookie(t, jwtManager, "borrower-1", db.RoleUser))
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-donor, got %d", resp.Code)
	}
}

func TestSubmitOfferRequiresAuth(t *testing.T) {
	svc := &fakeOfferService{}
	r, _ := newOfferRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/v1/offers", bytes.NewBufferString(`{}`))
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without cookie, got %d", resp.Code)
	}
}

func TestAcceptOfferRoute(t *testing.T) {
	svc := &fakeOfferService{}
	r, jwtManager := newOfferRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/v1/offers/o1/accept", nil)
	req.AddCookie(authCookie(t, jwtManager, "borrower-1", db.RoleUser))
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.acceptedID != "o1" {
		t.Fatalf("expected accept to reach the service, got %q", svc.acceptedID)
	}
}

func TestAcceptOfferConflictResponse(t *testing.T) {
	svc := &fakeOfferService{acceptErr: fault.ErrConflict}
	r, jwtManager := newOfferRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/v1/offers/o1/accept", nil)
	req.AddCookie(authCookie(t, jwtManager, "borrower-1", db.RoleUser))
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 on a lost race, got %d", resp.Code)
	}
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if payload.Error != "conflict" || payload.Message == "" {
		t.Fatalf("conflict body must carry a message, got %+v", payload)
	}
}

func TestComparisonRoute(t *testing.T) {
	svc := &fakeOfferService{}
	r, jwtManager := newOfferRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/v1/comparison/my-offers", nil)
	req.AddCookie(authCookie(t, jwtManager, "borrower-1", db.RoleUser))
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var payload struct {
		Data []offerdomain.LoanGroup `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(payload.Data) != 1 || !payload.Data[0].HasAccepted {
		t.Fatalf("expected one locked group, got %+v", payload.Data)
	}
}

func TestDonorListingOwnershipGuard(t *testing.T) {
	svc := &fakeOfferService{}
	r, jwtManager := newOfferRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/v1/offers/donor/donor-1", nil)
	req.AddCookie(authCookie(t, jwtManager, "borrower-1", db.RoleUser))
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for another user's donor listing, got %d", resp.Code)
	}

	own := httptest.NewRequest(http.MethodGet, "/v1/offers/donor/donor-1", nil)
	own.AddCookie(authCookie(t, jwtManager, "donor-1", db.RoleDonor))
	ownResp := httptest.NewRecorder()
	r.ServeHTTP(ownResp, own)
	if ownResp.Code != http.StatusOK {
		t.Fatalf("expected 200 for own listing, got %d", ownResp.Code)
	}
}

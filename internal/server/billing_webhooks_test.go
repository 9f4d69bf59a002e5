package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	billingdomain "github.com/villageboard/villageboard/internal/billing/domain"
	"github.com/villageboard/villageboard/internal/config"
	userdomain "github.com/villageboard/villageboard/internal/user/domain"
)

type fakeBillingService struct {
	processErr  error
	lastPayload []byte
	snapshot    billingdomain.MembershipSnapshot
	getErr      error
}

func (f *fakeBillingService) ProcessEvent(ctx context.Context, payload []byte) error {
	_ = ctx
	f.lastPayload = payload
	return f.processErr
}

func (f *fakeBillingService) GetMembership(ctx context.Context, userID snowflake.ID) (billingdomain.MembershipSnapshot, error) {
	_ = ctx
	_ = userID
	return f.snapshot, f.getErr
}

func newTestServer(svc billingdomain.Service) *Server {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(ErrorHandlingMiddleware())

	srv := NewServer(ServerParams{
		Gin:        engine,
		Cfg:        config.Config{},
		BillingSvc: svc,
	})
	srv.RegisterRoutes()
	return srv
}

func postWebhook(srv *Server, payload string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhooks/billing", bytes.NewBufferString(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.engine.ServeHTTP(rec, req)
	return rec
}

func TestHandleBillingWebhookProcessed(t *testing.T) {
	svc := &fakeBillingService{}
	srv := newTestServer(svc)

	rec := postWebhook(srv, `{"id":"evt_1","type":"customer.subscription.created","data":{"object":{"id":"sub_1"}}}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if svc.lastPayload == nil {
		t.Fatalf("expected payload forwarded to service")
	}

	var body map[string]bool
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if !body["received"] {
		t.Fatalf("expected received true, got %v", body)
	}
}

func TestHandleBillingWebhookAcknowledgesNoOps(t *testing.T) {
	cases := map[string]error{
		"ignored type": billingdomain.ErrEventIgnored,
		"replay":       billingdomain.ErrEventAlreadyProcessed,
		"stale":        billingdomain.ErrStaleEvent,
	}

	for name, sentinel := range cases {
		t.Run(name, func(t *testing.T) {
			srv := newTestServer(&fakeBillingService{processErr: sentinel})

			rec := postWebhook(srv, `{"id":"evt_1","type":"customer.subscription.trial_will_end","data":{"object":{"id":"sub_1"}}}`)

			if rec.Code != http.StatusOK {
				t.Fatalf("expected 200 for %s, got %d", name, rec.Code)
			}

			var body map[string]bool
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if !body["received"] {
				t.Fatalf("expected received true, got %v", body)
			}
		})
	}
}

func TestHandleBillingWebhookMalformed(t *testing.T) {
	srv := newTestServer(&fakeBillingService{processErr: billingdomain.ErrMalformedEvent})

	rec := postWebhook(srv, `{"id":"evt_1",`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	var body errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Error.Code != "malformed_event" {
		t.Fatalf("expected code malformed_event, got %s", body.Error.Code)
	}
}

func TestHandleBillingWebhookInvalidSubscriptionPayload(t *testing.T) {
	srv := newTestServer(&fakeBillingService{processErr: billingdomain.ErrInvalidSubscriptionPayload})

	rec := postWebhook(srv, `{"id":"evt_1","type":"customer.subscription.created","data":{"object":{}}}`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestHandleBillingWebhookUnresolvedIdentity(t *testing.T) {
	srv := newTestServer(&fakeBillingService{processErr: billingdomain.ErrUnresolvedIdentity})

	rec := postWebhook(srv, `{"id":"evt_1","type":"customer.subscription.created","data":{"object":{"id":"sub_1"}}}`)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 so the provider retries, got %d", rec.Code)
	}

	var body errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Error.Type != "unresolved_identity" {
		t.Fatalf("expected type unresolved_identity, got %s", body.Error.Type)
	}
}

func TestHandleGetMembership(t *testing.T) {
	userID := snowflake.ID(424242)
	srv := newTestServer(&fakeBillingService{
		snapshot: billingdomain.MembershipSnapshot{
			UserID:         userID.String(),
			MembershipTier: userdomain.TierPlus,
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/users/"+userID.String()+"/membership", nil)
	rec := httptest.NewRecorder()
	srv.engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body billingdomain.MembershipSnapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.MembershipTier != userdomain.TierPlus {
		t.Fatalf("expected tier PLUS, got %s", body.MembershipTier)
	}
}

func TestHandleGetMembershipBadID(t *testing.T) {
	srv := newTestServer(&fakeBillingService{})

	req := httptest.NewRequest(http.MethodGet, "/api/users/not-a-number/membership", nil)
	rec := httptest.NewRecorder()
	srv.engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestHandleGetMembershipUnknownUser(t *testing.T) {
	srv := newTestServer(&fakeBillingService{getErr: userdomain.ErrNotFound})

	req := httptest.NewRequest(http.MethodGet, "/api/users/424242/membership", nil)
	rec := httptest.NewRecorder()
	srv.engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

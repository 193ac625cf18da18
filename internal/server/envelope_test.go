package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	commissiondomain "github.com/cwu2020/reflist-sub001/internal/commission/domain"
	payoutdomain "github.com/cwu2020/reflist-sub001/internal/payout/domain"
)

type payoutSvcStub struct{}

func (payoutSvcStub) Create(ctx context.Context, req payoutdomain.CreateRequest) (*payoutdomain.CreateResponse, error) {
	return &payoutdomain.CreateResponse{Payout: &payoutdomain.Payout{}}, nil
}

func (payoutSvcStub) Transition(ctx context.Context, req payoutdomain.TransitionRequest) (*payoutdomain.Payout, error) {
	return &payoutdomain.Payout{Status: payoutdomain.Status(req.TargetStatus)}, nil
}

func (payoutSvcStub) Withdraw(ctx context.Context, req payoutdomain.WithdrawRequest) (*payoutdomain.CreateResponse, error) {
	return &payoutdomain.CreateResponse{Payout: &payoutdomain.Payout{}}, nil
}

func (payoutSvcStub) GetByID(ctx context.Context, req payoutdomain.GetRequest) (*payoutdomain.GetResponse, error) {
	return &payoutdomain.GetResponse{Payout: &payoutdomain.Payout{}}, nil
}

func (payoutSvcStub) List(ctx context.Context, req payoutdomain.ListRequest) (*payoutdomain.ListResponse, error) {
	return &payoutdomain.ListResponse{}, nil
}

type commissionSvcStub struct{}

func (commissionSvcStub) Transition(ctx context.Context, req commissiondomain.TransitionRequest) (commissiondomain.Commission, error) {
	return commissiondomain.Commission{Status: commissiondomain.Status(req.TargetStatus)}, nil
}

func (commissionSvcStub) ForceStatus(ctx context.Context, req commissiondomain.ForceStatusRequest) (commissiondomain.Commission, error) {
	return commissiondomain.Commission{Status: commissiondomain.Status(req.TargetStatus)}, nil
}

func (commissionSvcStub) Delete(ctx context.Context, req commissiondomain.DeleteRequest) (commissiondomain.DeleteResponse, error) {
	return commissiondomain.DeleteResponse{}, nil
}

func (commissionSvcStub) GetByID(ctx context.Context, req commissiondomain.GetRequest) (commissiondomain.Commission, error) {
	return commissiondomain.Commission{}, nil
}

func (commissionSvcStub) List(ctx context.Context, req commissiondomain.ListRequest) (commissiondomain.ListResponse, error) {
	return commissiondomain.ListResponse{}, nil
}

func newEnvelopeContext(t *testing.T, method, body string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req := httptest.NewRequest(method, "/", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "1"}}
	return c, w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) map[string]json.RawMessage {
	t.Helper()
	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return envelope
}

func TestMutationResponsesCarryDataEnvelope(t *testing.T) {
	srv := &Server{payoutSvc: payoutSvcStub{}, commissionSvc: commissionSvcStub{}}

	cases := []struct {
		name    string
		body    string
		handler gin.HandlerFunc
	}{
		{"payout transition", `{"status":"completed"}`, srv.TransitionPayout},
		{"commission transition", `{"status":"processed"}`, srv.TransitionCommission},
		{"commission force", `{"status":"paid"}`, srv.ForceCommissionStatus},
		{"commission get", ``, srv.GetCommissionByID},
		{"commission delete", ``, srv.DeleteCommission},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			method := http.MethodPost
			if tc.body == "" {
				method = http.MethodGet
			}
			c, w := newEnvelopeContext(t, method, tc.body)
			tc.handler(c)

			envelope := decodeEnvelope(t, w)
			if _, ok := envelope["data"]; !ok {
				t.Fatalf("expected a data envelope, got keys %v", keysOf(envelope))
			}
		})
	}
}

func keysOf(m map[string]json.RawMessage) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}

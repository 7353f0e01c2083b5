package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"tacc.org/internal/auth"
	"tacc.org/internal/ledger"
	"tacc.org/internal/stream"
	"tacc.org/internal/tacc"
)

type apiClient struct {
	baseURL string
	client  *http.Client
	t       *testing.T
}

func newTestAPI(t *testing.T, opts ...Option) *apiClient {
	t.Helper()

	opts = append([]Option{WithRateLimit(100, 100)}, opts...)
	api := New("test", ledger.NewInMemory(), opts...)

	srv := httptest.NewServer(api.Handler())
	t.Cleanup(srv.Close)

	return &apiClient{
		baseURL: srv.URL,
		client:  srv.Client(),
		t:       t,
	}
}

func (c *apiClient) post(path string, body any, headers map[string]string) *http.Response {
	c.t.Helper()
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			c.t.Fatalf("marshal body: %v", err)
		}
	}
	req, err := http.NewRequest(http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		c.t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		c.t.Fatalf("do request: %v", err)
	}
	return resp
}

func (c *apiClient) get(path string, params url.Values, headers map[string]string) *http.Response {
	c.t.Helper()
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		c.t.Fatalf("parse url: %v", err)
	}
	if params != nil {
		u.RawQuery = params.Encode()
	}
	req, err := http.NewRequest(http.MethodGet, u.String(), nil)
	if err != nil {
		c.t.Fatalf("new request: %v", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		c.t.Fatalf("do request: %v", err)
	}
	return resp
}

func decode[T any](t *testing.T, resp *http.Response, wantStatus int) T {
	t.Helper()
	defer resp.Body.Close()
	if resp.StatusCode != wantStatus {
		var body map[string]any
		_ = json.NewDecoder(resp.Body).Decode(&body)
		t.Fatalf("expected %d, got %d: %v", wantStatus, resp.StatusCode, body)
	}
	var out T
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func (c *apiClient) createJournal(spec ledger.JournalSpec, headers map[string]string) ledger.JournalInfo {
	c.t.Helper()
	return decode[ledger.JournalInfo](c.t, c.post("/v1/journals", spec, headers), http.StatusCreated)
}

func TestHealthAndInfo(t *testing.T) {
	c := newTestAPI(t)

	health := decode[map[string]any](t, c.get("/healthz", nil, nil), http.StatusOK)
	if health["status"] != "ok" || health["service"] != serviceName {
		t.Fatalf("unexpected health %v", health)
	}
	decode[map[string]any](t, c.get("/readyz", nil, nil), http.StatusOK)
	info := decode[map[string]any](t, c.get("/v1/info", nil, nil), http.StatusOK)
	if info["version"] != "test" || info["auth"] != false {
		t.Fatalf("unexpected info %v", info)
	}
}

type failingReadiness struct{}

func (failingReadiness) Check(ctx context.Context) error { return errors.New("boom") }

func TestReadyFailure(t *testing.T) {
	c := newTestAPI(t, WithReadiness(failingReadiness{}))
	body := decode[map[string]any](t, c.get("/readyz", nil, nil), http.StatusServiceUnavailable)
	if body["status"] != "not_ready" {
		t.Fatalf("unexpected body %v", body)
	}
}

func TestJournalLifecycle(t *testing.T) {
	c := newTestAPI(t)

	j := c.createJournal(ledger.JournalSpec{Name: "books", Labels: []string{"GBP", "USD"}}, nil)
	if j.ID == "" || len(j.Labels) != 2 || !j.Balanced {
		t.Fatalf("unexpected journal %+v", j)
	}

	base := "/v1/journals/" + j.ID
	decode[ledger.PostingRecord](t, c.post(base+"/postings", map[string]any{
		"account_id": "cash",
		"debits":     []any{120, "15.50"},
	}, nil), http.StatusCreated)
	decode[ledger.PostingRecord](t, c.post(base+"/postings", map[string]any{
		"account_id": "sales",
		"credits":    []string{"100"},
	}, nil), http.StatusCreated)

	sum := decode[ledger.Summary](t, c.get(base+"/balance", nil, nil), http.StatusOK)
	if sum.Balanced {
		t.Fatalf("expected unbalanced journal: %s", sum.Total.T)
	}
	if sum.Total.T != "[120.00, 15.50 // 100.00, 0.00]" {
		t.Fatalf("unexpected total %s", sum.Total.T)
	}

	rec := decode[ledger.PostingRecord](t, c.post(base+"/auto-balance", map[string]string{"account_id": "suspense"}, nil), http.StatusCreated)
	if rec.Kind != ledger.KindAutoBalance {
		t.Fatalf("unexpected kind %s", rec.Kind)
	}

	sum = decode[ledger.Summary](t, c.get(base+"/balance", nil, nil), http.StatusOK)
	if !sum.Balanced || len(sum.Accounts) != 3 {
		t.Fatalf("expected balanced journal with 3 accounts, got %+v", sum)
	}

	view := decode[ledger.AccountView](t, c.get(base+"/accounts/cash", nil, nil), http.StatusOK)
	if view.T != "[120.00, 15.50 // 0.00, 0.00]" || !view.Disjoint {
		t.Fatalf("unexpected cash view %+v", view)
	}

	list := decode[listPostingsResponse](t, c.get(base+"/postings", url.Values{"limit": {"2"}}, nil), http.StatusOK)
	if len(list.Items) != 2 || list.NextAfter != 2 {
		t.Fatalf("unexpected page %+v", list)
	}
	list = decode[listPostingsResponse](t, c.get(base+"/postings", url.Values{"after": {"2"}}, nil), http.StatusOK)
	if len(list.Items) != 1 || list.Items[0].AccountID != "suspense" {
		t.Fatalf("unexpected second page %+v", list)
	}

	info := decode[ledger.JournalInfo](t, c.get(base, nil, nil), http.StatusOK)
	if info.Postings != 3 || info.Accounts != 3 || !info.Balanced {
		t.Fatalf("unexpected info %+v", info)
	}
}

func TestPostingIdempotency(t *testing.T) {
	c := newTestAPI(t)
	j := c.createJournal(ledger.JournalSpec{}, nil)
	path := "/v1/journals/" + j.ID + "/postings"
	body := map[string]any{"account_id": "cash", "debits": []string{"5"}}
	headers := map[string]string{"Idempotency-Key": "abc"}

	r1 := decode[ledger.PostingRecord](t, c.post(path, body, headers), http.StatusCreated)
	r2 := decode[ledger.PostingRecord](t, c.post(path, body, headers), http.StatusCreated)
	if r1.ID != r2.ID {
		t.Fatalf("expected replay, got %s and %s", r1.ID, r2.ID)
	}

	mismatch := map[string]any{"account_id": "cash", "debits": []string{"5"}, "idempotency_key": "other"}
	resp := c.post(path, mismatch, headers)
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for mismatched keys, got %d", resp.StatusCode)
	}
}

func TestErrorMapping(t *testing.T) {
	c := newTestAPI(t)
	j := c.createJournal(ledger.JournalSpec{}, nil)
	base := "/v1/journals/" + j.ID

	cases := []struct {
		name   string
		resp   func() *http.Response
		status int
	}{
		{"unknown journal", func() *http.Response { return c.get("/v1/journals/jnl_nope", nil, nil) }, http.StatusNotFound},
		{"unknown account", func() *http.Response { return c.get(base+"/accounts/ghost", nil, nil) }, http.StatusNotFound},
		{"bad amount", func() *http.Response {
			return c.post(base+"/postings", map[string]any{"account_id": "cash", "debits": []string{"1e"}}, nil)
		}, http.StatusBadRequest},
		{"too many amounts", func() *http.Response {
			return c.post(base+"/postings", map[string]any{"account_id": "cash", "debits": []int{1, 2}}, nil)
		}, http.StatusUnprocessableEntity},
		{"missing account", func() *http.Response {
			return c.post(base+"/postings", map[string]any{"debits": []int{1}}, nil)
		}, http.StatusBadRequest},
		{"unknown field", func() *http.Response {
			return c.post(base+"/postings", map[string]any{"account_id": "cash", "amount": 1}, nil)
		}, http.StatusBadRequest},
		{"duplicate labels", func() *http.Response {
			return c.post("/v1/journals", ledger.JournalSpec{Labels: []string{"GBP", "GBP"}}, nil)
		}, http.StatusBadRequest},
		{"bad limit", func() *http.Response { return c.get(base+"/postings", url.Values{"limit": {"0"}}, nil) }, http.StatusBadRequest},
		{"unknown route", func() *http.Response { return c.get("/v1/nothing", nil, nil) }, http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			body := decode[map[string]any](t, tc.resp(), tc.status)
			if body["error"] == nil || body["request_id"] == nil {
				t.Fatalf("expected error and request_id, got %v", body)
			}
		})
	}
}

func TestMismatchIsUnprocessable(t *testing.T) {
	c := newTestAPI(t)
	j := c.createJournal(ledger.JournalSpec{Labels: []string{"GBP", "USD"}}, nil)

	body := decode[map[string]any](t, c.post("/v1/journals/"+j.ID+"/postings", map[string]any{
		"account_id": "cash",
		"credits":    []string{"1", "2", "3"},
	}, nil), http.StatusUnprocessableEntity)
	if msg, _ := body["error"].(string); !strings.Contains(msg, "cardinality mismatch") {
		t.Fatalf("unexpected error %v", body["error"])
	}
	info := decode[ledger.JournalInfo](t, c.get("/v1/journals/"+j.ID, nil, nil), http.StatusOK)
	if info.Postings != 0 || info.Accounts != 0 {
		t.Fatalf("rejected posting was recorded: %+v", info)
	}

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	handleLedgerError(rr, req, fmt.Errorf("%w: %w", ledger.ErrInvalidPosting, tacc.ErrLabelMismatch))
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rr.Code)
	}
}

func TestAuthRequired(t *testing.T) {
	iss, err := auth.NewIssuer("test-secret")
	if err != nil {
		t.Fatal(err)
	}
	c := newTestAPI(t, WithIssuer(iss))

	token := func(roles ...string) map[string]string {
		tok, err := iss.GenerateToken("user-1", roles, time.Minute)
		if err != nil {
			t.Fatal(err)
		}
		return map[string]string{"Authorization": "Bearer " + tok}
	}

	resp := c.post("/v1/journals", ledger.JournalSpec{}, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized || resp.Header.Get("WWW-Authenticate") == "" {
		t.Fatalf("expected 401 with challenge, got %d", resp.StatusCode)
	}

	resp = c.post("/v1/journals", ledger.JournalSpec{}, token(auth.RoleReader))
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for reader, got %d", resp.StatusCode)
	}

	j := c.createJournal(ledger.JournalSpec{}, token(auth.RoleWriter))
	decode[ledger.JournalInfo](t, c.get("/v1/journals/"+j.ID, nil, token(auth.RoleReader)), http.StatusOK)
	decode[map[string]any](t, c.get("/healthz", nil, nil), http.StatusOK)

	resp = c.post("/v1/auth/token", tokenRequest{UserID: "bob", Roles: []string{"reader"}}, token(auth.RoleWriter))
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin token request, got %d", resp.StatusCode)
	}
	issued := decode[tokenResponse](t, c.post("/v1/auth/token", tokenRequest{UserID: "bob", Roles: []string{"reader"}, TTLSeconds: 60}, token(auth.RoleAdmin)), http.StatusCreated)
	claims, err := iss.ParseAndValidate(issued.Token)
	if err != nil {
		t.Fatalf("issued token invalid: %v", err)
	}
	if claims.Subject != "bob" || !claims.CanRead() || claims.CanWrite() {
		t.Fatalf("unexpected claims %+v", claims)
	}
}

func TestTokenEndpointDisabledWithoutSecret(t *testing.T) {
	c := newTestAPI(t)
	resp := c.post("/v1/auth/token", tokenRequest{UserID: "bob"}, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestStreamDisabled(t *testing.T) {
	c := newTestAPI(t)
	resp := c.get("/v1/stream", nil, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.StatusCode)
	}
}

func TestStreamUnknownJournal(t *testing.T) {
	c := newTestAPI(t, WithStream(stream.New(4)))
	resp := c.get("/v1/stream", url.Values{"journal_id": {"jnl_nope"}}, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/interview-intel/internal/intelligence"
	"github.com/jonathan/interview-intel/internal/matching"
	"github.com/jonathan/interview-intel/internal/observability"
	"github.com/jonathan/interview-intel/internal/repository"
	"github.com/jonathan/interview-intel/internal/server/ratelimit"
	"github.com/jonathan/interview-intel/internal/types"
)

// fakeIntel records calls and answers with a canned profile for known names
type fakeIntel struct {
	mu    sync.Mutex
	calls []IntelligenceRequest
}

func (f *fakeIntel) GetIntelligence(_ context.Context, companyName, jobDescription string) intelligence.Intelligence {
	f.mu.Lock()
	f.calls = append(f.calls, IntelligenceRequest{CompanyName: companyName, JobDescription: jobDescription})
	f.mu.Unlock()

	if companyName == "Nowhere Corp" {
		return intelligence.Intelligence{Company: companyName, Error: intelligence.ErrNoDiscovery.Error()}
	}
	return intelligence.Intelligence{
		Company: companyName,
		Profile: &types.CompanyProfile{Name: companyName, Industry: "Technology", ConfidenceScore: 80},
		Source:  intelligence.SourceDiscovery,
		Valid:   true,
	}
}

func (f *fakeIntel) lastCall(t *testing.T) IntelligenceRequest {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.calls)
	return f.calls[len(f.calls)-1]
}

func newTestServer(t *testing.T, rl *ratelimit.Config) (*Server, *fakeIntel) {
	t.Helper()
	repo, err := repository.New(repository.Options{Matching: matching.DefaultConfig()})
	require.NoError(t, err)

	if rl == nil {
		rl = &ratelimit.Config{Enabled: false}
	}
	intel := &fakeIntel{}
	s := New(intel, repo, Config{Port: 0, RateLimit: rl, Metrics: observability.NewMetrics()})
	t.Cleanup(s.rateLimiter.Stop)
	return s, intel
}

func do(t *testing.T, s *Server, method, target string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	req.RemoteAddr = "10.0.0.1:5555"
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t, nil)

	rec := do(t, s, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	body := decode[map[string]any](t, rec)
	assert.Equal(t, "ok", body["status"])
	assert.EqualValues(t, 23, body["curated_companies"])
}

func TestRequestID(t *testing.T) {
	s, _ := newTestServer(t, nil)

	rec := do(t, s, http.MethodGet, "/health", nil)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))
}

func TestCORSPreflight(t *testing.T) {
	s, _ := newTestServer(t, nil)

	rec := do(t, s, http.MethodOptions, "/intelligence", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "POST")
}

func TestGetIntelligence(t *testing.T) {
	s, intel := newTestServer(t, nil)

	rec := do(t, s, http.MethodGet, "/intelligence?company=Zynthex+Labs&jd=Go+engineer", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	got := decode[intelligence.Intelligence](t, rec)
	assert.Equal(t, "Zynthex Labs", got.Company)
	require.NotNil(t, got.Profile)
	assert.Equal(t, 80, got.Profile.ConfidenceScore)
	assert.Equal(t, intelligence.SourceDiscovery, got.Source)

	call := intel.lastCall(t)
	assert.Equal(t, "Zynthex Labs", call.CompanyName)
	assert.Equal(t, "Go engineer", call.JobDescription)
}

func TestPostIntelligence(t *testing.T) {
	s, intel := newTestServer(t, nil)

	body, _ := json.Marshal(IntelligenceRequest{CompanyName: "  Zynthex Labs ", JobDescription: "SRE"})
	rec := do(t, s, http.MethodPost, "/intelligence", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.Equal(t, "Zynthex Labs", intel.lastCall(t).CompanyName)
}

func TestIntelligence_Validation(t *testing.T) {
	s, intel := newTestServer(t, nil)

	tests := []struct {
		name    string
		method  string
		target  string
		body    []byte
		message string
	}{
		{"missing query", http.MethodGet, "/intelligence", nil, "company_name - is required"},
		{"blank query", http.MethodGet, "/intelligence?company=%20%20", nil, "company_name - is required"},
		{"invalid JSON", http.MethodPost, "/intelligence", []byte("{"), "body - invalid JSON"},
		{"empty body name", http.MethodPost, "/intelligence", []byte(`{"company_name":""}`), "company_name - is required"},
		{"name too long", http.MethodGet, "/intelligence?company=" + strings.Repeat("a", maxCompanyNameLength+1), nil, "must be at most 200"},
		{"jd too long", http.MethodPost, "/intelligence",
			[]byte(`{"company_name":"Acme","job_description":"` + strings.Repeat("x", maxJobDescriptionLength+1) + `"}`),
			"job_description - must be at most"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, tt.method, tt.target, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, decode[map[string]string](t, rec)["error"], tt.message)
		})
	}

	assert.Empty(t, intel.calls)
}

func TestIntelligence_NoProfile(t *testing.T) {
	s, _ := newTestServer(t, nil)

	rec := do(t, s, http.MethodGet, "/intelligence?company=Nowhere+Corp", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	got := decode[intelligence.Intelligence](t, rec)
	assert.Nil(t, got.Profile)
	assert.Equal(t, intelligence.ErrNoDiscovery.Error(), got.Error)
}

func TestListCompanies(t *testing.T) {
	s, _ := newTestServer(t, nil)

	rec := do(t, s, http.MethodGet, "/companies", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	got := decode[CompaniesResponse](t, rec)
	assert.Equal(t, 23, got.Count)
	assert.Len(t, got.Companies, got.Count)
	assert.Contains(t, got.Companies, "Google")
	assert.IsNonDecreasing(t, got.Companies)
}

func TestGetCompany(t *testing.T) {
	s, _ := newTestServer(t, nil)

	rec := do(t, s, http.MethodGet, "/companies/Google", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[CompanyResponse](t, rec)
	assert.Equal(t, "Google", got.Company)
	assert.NotEmpty(t, got.CulturalValues)
	assert.NotEmpty(t, got.BehavioralQuestions)

	rec = do(t, s, http.MethodGet, "/companies/Zynthex%20Labs", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "company not found: Zynthex Labs", decode[map[string]string](t, rec)["error"])
}

func TestCompanyContext(t *testing.T) {
	s, _ := newTestServer(t, nil)

	rec := do(t, s, http.MethodGet, "/companies/Google/context?round=technical", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[ContextResponse](t, rec)
	assert.True(t, got.Curated)
	assert.Contains(t, got.Context, "COMPANY: Google")

	rec = do(t, s, http.MethodGet, "/companies/Zynthex%20Labs/context?round=behavioral", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got = decode[ContextResponse](t, rec)
	assert.False(t, got.Curated)
	assert.Equal(t, "Simulate a professional behavioral interview for Zynthex Labs.", got.Context)

	rec = do(t, s, http.MethodGet, "/companies/Google/context", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s, _ := newTestServer(t, nil)

	rec := do(t, s, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestRateLimit_Intelligence(t *testing.T) {
	s, _ := newTestServer(t, ratelimit.ForDiscovery(true, 2, time.Hour, 2))

	for i := 0; i < 2; i++ {
		rec := do(t, s, http.MethodGet, "/intelligence?company=Acme", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
	}

	rec := do(t, s, http.MethodGet, "/intelligence?company=Acme", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	body := decode[map[string]any](t, rec)
	assert.Equal(t, "rate_limit_exceeded", body["error"])

	// health stays reachable
	rec = do(t, s, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestExtractClientID(t *testing.T) {
	s, _ := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.RemoteAddr = "192.0.2.7:4000"
	req.Header.Set("X-Forwarded-For", "203.0.113.9")
	assert.Equal(t, "192.0.2.7", s.extractClientID(req))

	req.RemoteAddr = "not-an-address"
	assert.Equal(t, "not-an-address", s.extractClientID(req))
}

func TestStart_Shutdown(t *testing.T) {
	s, _ := newTestServer(t, nil)
	s.httpServer.Addr = "127.0.0.1:0"

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

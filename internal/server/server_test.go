package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crimson-sun/cronica/internal/engine"
	"github.com/crimson-sun/cronica/internal/engine/dedup"
	"github.com/crimson-sun/cronica/internal/engine/normalizer"
	"github.com/crimson-sun/cronica/internal/engine/testdata"
	"github.com/crimson-sun/cronica/internal/metrics"
	"github.com/crimson-sun/cronica/internal/model"
)

var utcMinus5 = time.FixedZone("UTC-5", -5*3600)

func newTestEngine() *engine.Engine {
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	norm := normalizer.New(
		normalizer.WithClock(func() time.Time { return time.Date(2024, 6, 5, 12, 0, 0, 0, time.UTC) }),
		normalizer.WithLocation(utcMinus5),
		normalizer.WithLogger(quiet),
	)
	return engine.New(norm, dedup.New())
}

func newTestServer(t *testing.T, opts ...Option) *httptest.Server {
	t.Helper()
	opts = append([]Option{WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))}, opts...)
	srv := httptest.NewServer(New(newTestEngine(), opts...).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}
	resp, err := http.Post(url, "application/json", &buf)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func consultation(t *testing.T) model.Session {
	t.Helper()
	s, err := testdata.LoadConsultation()
	require.NoError(t, err)
	return s
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", decodeBody[map[string]string](t, resp)["status"])
}

func TestTimelineFromSession(t *testing.T) {
	srv := newTestServer(t)
	resp := postJSON(t, srv.URL+"/v1/timeline", TimelineRequest{Session: ptr(consultation(t))})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	report := decodeBody[model.Report](t, resp)
	assert.Equal(t, "sess-2024-06-03-001", report.SessionID)
	assert.Equal(t, 7, report.Counts.Total)
	require.Len(t, report.Groups, 2)
	assert.Equal(t, "2024-06-03", report.Groups[0].Key)
	assert.Equal(t, "", report.Groups[1].Key)
}

func TestTimelineFromEventsWithFilters(t *testing.T) {
	srv := newTestServer(t)
	resp := postJSON(t, srv.URL+"/v1/timeline", TimelineRequest{
		Events:  consultation(t).Events,
		Filters: FilterRequest{EventTypes: []string{"diagnosis"}},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	report := decodeBody[model.Report](t, resp)
	require.Len(t, report.Events, 1)
	assert.Equal(t, model.TypeDiagnosis, report.Events[0].EventType)
	assert.ElementsMatch(t, []string{"event-1", "event-3"}, report.Events[0].Related)
	assert.Len(t, report.Context, 2)
}

func TestTimelineRawFilterJSON(t *testing.T) {
	srv := newTestServer(t)
	body := `{"events":[{"event_type":"symptom","timestamp":"2024-06-03T23:30:00Z","description":"x","confidence":0.9}],
	          "filters":{"dateRange":{"start":"2024-06-03T00:00:00-05:00","end":"2024-06-03T00:00:00-05:00"}}}`
	resp := postJSON(t, srv.URL+"/v1/timeline", body)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	report := decodeBody[model.Report](t, resp)
	require.Len(t, report.Events, 1)
	require.Len(t, report.Groups, 1)
	assert.Equal(t, "2024-06-03", report.Groups[0].Key)
}

func TestTimelineSanitizesEvents(t *testing.T) {
	srv := newTestServer(t)
	resp := postJSON(t, srv.URL+"/v1/timeline", TimelineRequest{Events: []model.RawEvent{
		{EventType: "symptom", Timestamp: "2024-06-03T10:00:00Z", Confidence: -2},
		{Timestamp: "2024-06-03T10:00:00Z"},
	}})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	report := decodeBody[model.Report](t, resp)
	require.Len(t, report.Events, 1)
	assert.Equal(t, 0.0, report.Events[0].Confidence)
}

func TestTimelineBadRequests(t *testing.T) {
	srv := newTestServer(t)
	tests := []struct {
		name string
		body string
		want string
	}{
		{"malformed", `{"events":`, "invalid request body"},
		{"empty", `{}`, "required_without"},
		{"both", `{"session":{"id":"s","events":[]},"events":[]}`, "excluded_with"},
		{"threshold", `{"events":[],"filters":{"confidenceThreshold":1.5}}`, "confidencethreshold"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postJSON(t, srv.URL+"/v1/timeline", tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			body := decodeBody[map[string]string](t, resp)
			assert.Contains(t, body["error"], tt.want)
		})
	}
}

func TestSessionGroups(t *testing.T) {
	srv := newTestServer(t)
	resp := postJSON(t, srv.URL+"/v1/timeline/groups", GroupsRequest{Sessions: []model.Session{
		{ID: "a", StartedAt: "2024-06-03T22:45:00Z"},
		{ID: "b", StartedAt: "2024-06-05T15:00:00Z"},
		{ID: "c", StartedAt: "2024-06-03T10:00:00Z"},
	}})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	groups := decodeBody[GroupsResponse](t, resp).Groups
	require.Len(t, groups, 2)
	assert.Equal(t, "2024-06-05", groups[0].Key)
	assert.Equal(t, "miércoles, 5 de junio de 2024", groups[0].Label)
	assert.Len(t, groups[1].Sessions, 2)
}

func TestSessionGroupsRequiresSessions(t *testing.T) {
	srv := newTestServer(t)
	resp := postJSON(t, srv.URL+"/v1/timeline/groups", `{}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestTaxonomy(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/v1/taxonomy")
	require.NoError(t, err)
	defer resp.Body.Close()

	tax := decodeBody[TaxonomyResponse](t, resp)
	require.Len(t, tax.Categories, 5)
	assert.Equal(t, "clinical_findings", tax.Categories[0].Name)
	assert.Len(t, tax.Categories[0].Children, 3)
}

// stubLoader serves sessions from memory.
type stubLoader map[string]model.Session

func (l stubLoader) LoadSession(_ context.Context, id string) (model.Session, error) {
	s, ok := l[id]
	if !ok {
		return model.Session{}, errors.New("not found")
	}
	return s, nil
}

func TestSessionTimeline(t *testing.T) {
	s := consultation(t)
	srv := newTestServer(t, WithSessionLoader(stubLoader{s.ID: s}))

	resp, err := http.Get(srv.URL + "/v1/sessions/" + s.ID + "/timeline?types=symptom,%20diagnosis&confidence=0.75&start=2024-06-03&end=2024-06-03")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	report := decodeBody[model.Report](t, resp)
	ids := make([]string, 0, len(report.Events))
	for _, ev := range report.Events {
		ids = append(ids, ev.ID)
	}
	assert.Equal(t, []string{"event-1", "event-5"}, ids)
}

func TestSessionTimelineErrors(t *testing.T) {
	srv := newTestServer(t, WithSessionLoader(stubLoader{}))

	resp, err := http.Get(srv.URL + "/v1/sessions/missing/timeline")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/v1/sessions/x/timeline?confidence=abc")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/v1/sessions/x/timeline?start=03/06/2024")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSessionTimelineDisabledWithoutLoader(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/v1/sessions/x/timeline")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestMetricsEndpointAndRequestMetrics(t *testing.T) {
	srv := newTestServer(t, WithMetrics(metrics.New(false)))

	resp, err := http.Get(srv.URL + "/v1/taxonomy")
	require.NoError(t, err)
	resp.Body.Close()

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `cronica_http_requests_total{method="GET",route="/v1/taxonomy",status="200"} 1`)
}

func TestMetricsEndpointWithoutCollector(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCORS(t *testing.T) {
	srv := newTestServer(t, WithAllowedOrigins([]string{"https://clinic.example"}))

	req, _ := http.NewRequest(http.MethodOptions, srv.URL+"/v1/timeline", nil)
	req.Header.Set("Origin", "https://clinic.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "https://clinic.example", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestRequestLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	srv := httptest.NewServer(New(newTestEngine(), WithLogger(logger)).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()

	out := buf.String()
	assert.True(t, strings.Contains(out, "http request"), out)
	assert.Contains(t, out, "route=/healthz")
	assert.Contains(t, out, "status=200")
}

func TestListenAndServeShutsDownOnCancel(t *testing.T) {
	s := New(newTestEngine(), WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.ListenAndServe(ctx, "127.0.0.1:0", time.Second) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func ptr[T any](v T) *T { return &v }

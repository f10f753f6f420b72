package ticket_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/k1networth/support-tickets/internal/shared/httpx"
	"github.com/k1networth/support-tickets/internal/ticket"
	"github.com/k1networth/support-tickets/internal/ticket/mocks"
)

var ticketIDPattern = regexp.MustCompile(`^TICKET-[0-9a-f]{8}$`)

func testLogger() *slog.Logger {
	h := slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelInfo})
	return slog.New(h).With(
		slog.String("app", "test"),
		slog.String("env", "test"),
	)
}

func newTestServer(t *testing.T, h *ticket.Handler) *httptest.Server {
	t.Helper()
	if h == nil {
		h = &ticket.Handler{}
	}
	if h.Log == nil {
		h.Log = testLogger()
	}

	handler := httpx.NewRouter(httpx.RouterDeps{
		Log:      h.Log,
		Registry: prometheus.NewRegistry(),
		Tickets:  h,
	})
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func post(t *testing.T, url string, body []byte) (*http.Response, []byte) {
	t.Helper()

	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, b
}

func TestCreateTicket200(t *testing.T) {
	srv := newTestServer(t, nil)

	before := time.Now().UTC()
	resp, body := post(t, srv.URL+"/tickets", []byte(`{"name":"Jane Doe","email":"jane@example.com","issue":"Cannot log in"}`))
	after := time.Now().UTC()

	require.Equal(t, http.StatusOK, resp.StatusCode, "body=%s", body)
	require.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json"))
	require.NotEmpty(t, resp.Header.Get("X-Request-Id"))

	var got ticket.Ticket
	require.NoError(t, json.Unmarshal(body, &got))

	require.Regexp(t, ticketIDPattern, got.ID)
	require.Equal(t, "Jane Doe", got.Name)
	require.Equal(t, "jane@example.com", got.Email)
	require.Equal(t, "Cannot log in", got.Issue)
	require.Equal(t, "Created", got.Status)
	require.Equal(t, time.UTC, got.CreatedAt.Location())
	require.WithinRange(t, got.CreatedAt, before.Add(-time.Second), after.Add(time.Second))
}

func TestCreateTicketResponseShape(t *testing.T) {
	at := time.Date(2026, 3, 14, 9, 26, 53, 0, time.FixedZone("CET", 3600))
	srv := newTestServer(t, &ticket.Handler{
		NewID: func() string { return "TICKET-ab12cd34" },
		Now:   func() time.Time { return at },
	})

	resp, body := post(t, srv.URL+"/tickets", []byte(`{"name":"Jane Doe","email":"jane@example.com","issue":"Cannot log in"}`))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.JSONEq(t, `{
		"ticketId":"TICKET-ab12cd34",
		"name":"Jane Doe",
		"email":"jane@example.com",
		"issue":"Cannot log in",
		"status":"Created",
		"createdAt":"2026-03-14T08:26:53Z"
	}`, string(body))
}

func TestCreateTicketEchoesFieldsVerbatim(t *testing.T) {
	srv := newTestServer(t, nil)

	resp, body := post(t, srv.URL+"/tickets", []byte(`{"name":"  Zoë  ","email":"not-an-email","issue":"line1\nline2","priority":"high"}`))
	require.Equal(t, http.StatusOK, resp.StatusCode, "body=%s", body)

	var got ticket.Ticket
	require.NoError(t, json.Unmarshal(body, &got))
	require.Equal(t, "  Zoë  ", got.Name)
	require.Equal(t, "not-an-email", got.Email)
	require.Equal(t, "line1\nline2", got.Issue)
}

func TestCreateTicketEmptyBody400(t *testing.T) {
	srv := newTestServer(t, nil)

	resp, body := post(t, srv.URL+"/tickets", nil)

	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), "text/plain"))
	require.Equal(t, "Request body cannot be empty.", string(body))
}

func TestCreateTicketMissingFields400(t *testing.T) {
	srv := newTestServer(t, nil)

	cases := map[string]string{
		"missing name":    `{"email":"jane@example.com","issue":"Cannot log in"}`,
		"missing email":   `{"name":"Jane Doe","issue":"Cannot log in"}`,
		"missing issue":   `{"name":"Jane Doe","email":"jane@example.com"}`,
		"empty name":      `{"name":"","email":"jane@example.com","issue":"Cannot log in"}`,
		"empty email":     `{"name":"Jane Doe","email":"","issue":"Cannot log in"}`,
		"empty issue":     `{"name":"Jane Doe","email":"jane@example.com","issue":""}`,
		"empty object":    `{}`,
		"null":            `null`,
		"array":           `[]`,
		"not json":        `name=Jane`,
		"truncated":       `{"name":"Jane Doe"`,
		"trailing data":   `{"name":"Jane Doe","email":"jane@example.com","issue":"Cannot log in"} {}`,
		"wrong type":      `{"name":42,"email":"jane@example.com","issue":"Cannot log in"}`,
		"null field":      `{"name":null,"email":"jane@example.com","issue":"Cannot log in"}`,
		"whitespace only": `   `,
		"uppercase keys":  `{"NAME":"Jane Doe","Email":"jane@example.com","ISSUE":"Cannot log in"}`,
		"one key cased":   `{"name":"Jane Doe","email":"jane@example.com","Issue":"Cannot log in"}`,
		"invalid utf-8":   "{\"name\":\"Jan\xffe\",\"email\":\"jane@example.com\",\"issue\":\"Cannot log in\"}",
	}

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			resp, got := post(t, srv.URL+"/tickets", []byte(body))

			require.Equal(t, http.StatusBadRequest, resp.StatusCode)
			require.Equal(t, "Missing required fields: name, email, issue.", string(got))
		})
	}
}

func TestCreateTicketUniqueIDs(t *testing.T) {
	srv := newTestServer(t, nil)
	body := []byte(`{"name":"Jane Doe","email":"jane@example.com","issue":"Cannot log in"}`)

	seen := make(map[string]struct{})
	for i := 0; i < 20; i++ {
		resp, b := post(t, srv.URL+"/tickets", body)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var got ticket.Ticket
		require.NoError(t, json.Unmarshal(b, &got))
		_, dup := seen[got.ID]
		require.False(t, dup, "duplicate ticket id %s", got.ID)
		seen[got.ID] = struct{}{}
	}
}

func TestCreateTicketBodyTooLarge413(t *testing.T) {
	srv := newTestServer(t, &ticket.Handler{MaxBodyBytes: 32})

	resp, body := post(t, srv.URL+"/tickets", []byte(`{"name":"Jane Doe","email":"jane@example.com","issue":"Cannot log in"}`))

	require.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
	require.Equal(t, "Request body too large.", string(body))
}

func TestCreateTicketMethodNotAllowed(t *testing.T) {
	srv := newTestServer(t, nil)

	resp, err := http.Get(srv.URL + "/tickets")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	require.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestCreateTicketLegacyRoute(t *testing.T) {
	srv := newTestServer(t, nil)

	resp, body := post(t, srv.URL+"/api/CreateTicket", []byte(`{"name":"Jane Doe","email":"jane@example.com","issue":"Cannot log in"}`))
	require.Equal(t, http.StatusOK, resp.StatusCode, "body=%s", body)
}

func TestCreateTicketPublishesEvent(t *testing.T) {
	ctrl := gomock.NewController(t)
	pub := mocks.NewMockPublisher(ctrl)

	var published ticket.Ticket
	pub.EXPECT().
		PublishCreated(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, tk ticket.Ticket) error {
			published = tk
			return nil
		}).Times(1)

	srv := newTestServer(t, &ticket.Handler{Events: pub})

	resp, body := post(t, srv.URL+"/tickets", []byte(`{"name":"Jane Doe","email":"jane@example.com","issue":"Cannot log in"}`))
	require.Equal(t, http.StatusOK, resp.StatusCode, "body=%s", body)

	var got ticket.Ticket
	require.NoError(t, json.Unmarshal(body, &got))
	require.Equal(t, got.ID, published.ID)
	require.Equal(t, "Jane Doe", published.Name)
	require.Equal(t, ticket.StatusCreated, published.Status)
}

func TestCreateTicketPublishFailureStillSucceeds(t *testing.T) {
	ctrl := gomock.NewController(t)
	pub := mocks.NewMockPublisher(ctrl)
	pub.EXPECT().PublishCreated(gomock.Any(), gomock.Any()).Return(errors.New("broker down")).Times(1)

	metrics := ticket.NewMetrics(prometheus.NewRegistry())
	srv := newTestServer(t, &ticket.Handler{Events: pub, Metrics: metrics})

	resp, body := post(t, srv.URL+"/tickets", []byte(`{"name":"Jane Doe","email":"jane@example.com","issue":"Cannot log in"}`))
	require.Equal(t, http.StatusOK, resp.StatusCode, "body=%s", body)
	require.Equal(t, 1.0, testutil.ToFloat64(metrics.PublishFailedTotal))
	require.Equal(t, 1.0, testutil.ToFloat64(metrics.CreatedTotal))
}

func TestCreateSkipsPublishOnValidationError(t *testing.T) {
	ctrl := gomock.NewController(t)
	pub := mocks.NewMockPublisher(ctrl)
	pub.EXPECT().PublishCreated(gomock.Any(), gomock.Any()).Times(0)

	metrics := ticket.NewMetrics(prometheus.NewRegistry())
	h := &ticket.Handler{Log: testLogger(), Events: pub, Metrics: metrics}

	_, err := h.Create(context.Background(), nil)
	require.ErrorIs(t, err, ticket.ErrEmptyBody)

	_, err = h.Create(context.Background(), []byte(`{"name":"Jane Doe"}`))
	require.ErrorIs(t, err, ticket.ErrMissingFields)

	require.Equal(t, 1.0, testutil.ToFloat64(metrics.RejectedTotal.WithLabelValues("empty_body")))
	require.Equal(t, 1.0, testutil.ToFloat64(metrics.RejectedTotal.WithLabelValues("missing_fields")))
	require.Equal(t, 0.0, testutil.ToFloat64(metrics.CreatedTotal))
}

func TestCreateReturnsTicket(t *testing.T) {
	h := &ticket.Handler{Log: testLogger()}

	got, err := h.Create(context.Background(), []byte(`{"name":"Jane Doe","email":"jane@example.com","issue":"Cannot log in"}`))
	require.NoError(t, err)

	require.Regexp(t, ticketIDPattern, got.ID)
	require.Equal(t, ticket.StatusCreated, got.Status)
	require.Equal(t, time.UTC, got.CreatedAt.Location())
}

func TestCreateRejectsInvalidUTF8(t *testing.T) {
	h := &ticket.Handler{Log: testLogger()}

	_, err := h.Create(context.Background(), []byte("{\"name\":\"Jan\xffe\",\"email\":\"jane@example.com\",\"issue\":\"Cannot log in\"}"))
	require.ErrorIs(t, err, ticket.ErrMissingFields)
}

func TestCreateRejectsCaseMismatchedKeys(t *testing.T) {
	h := &ticket.Handler{Log: testLogger()}

	_, err := h.Create(context.Background(), []byte(`{"NAME":"Jane","Email":"j@x","ISSUE":"i"}`))
	require.ErrorIs(t, err, ticket.ErrMissingFields)
}

func TestCreateWithZeroValueHandler(t *testing.T) {
	h := &ticket.Handler{}

	got, err := h.Create(context.Background(), []byte(`{"name":"Jane Doe","email":"jane@example.com","issue":"Cannot log in"}`))
	require.NoError(t, err)
	require.Regexp(t, ticketIDPattern, got.ID)

	_, err = h.Create(context.Background(), nil)
	require.ErrorIs(t, err, ticket.ErrEmptyBody)
}

func TestCreateTicketConcurrentRequests(t *testing.T) {
	metrics := ticket.NewMetrics(prometheus.NewRegistry())
	srv := newTestServer(t, &ticket.Handler{Metrics: metrics, Events: ticket.NopPublisher{}})

	const workers = 16
	const perWorker = 10

	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		ids = make(map[string]struct{}, workers*perWorker)
	)
	errs := make(chan error, workers*perWorker)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				body := `{"name":"Jane Doe","email":"jane@example.com","issue":"Cannot log in"}`
				if j%2 == 1 {
					body = `{"name":"Jane Doe"}`
				}
				resp, err := http.Post(srv.URL+"/tickets", "application/json", strings.NewReader(body))
				if err != nil {
					errs <- err
					continue
				}
				var got ticket.Ticket
				decErr := json.NewDecoder(resp.Body).Decode(&got)
				_ = resp.Body.Close()
				if resp.StatusCode == http.StatusOK && decErr == nil {
					mu.Lock()
					ids[got.ID] = struct{}{}
					mu.Unlock()
				}
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	require.Len(t, ids, workers*perWorker/2)
	require.Equal(t, float64(workers*perWorker/2), testutil.ToFloat64(metrics.CreatedTotal))
	require.Equal(t, float64(workers*perWorker/2), testutil.ToFloat64(metrics.RejectedTotal.WithLabelValues("missing_fields")))
}

package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"paper-birthdays/config"
	"paper-birthdays/providers"
	"paper-birthdays/services"
	"paper-birthdays/storage"
	"paper-birthdays/storage/storagetest"
)

type captureSender struct {
	mu   sync.Mutex
	sent []providers.Message
	fail bool
}

func (s *captureSender) Name() string { return "capture" }

func (s *captureSender) Send(_ context.Context, msg providers.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errors.New("smtp timeout at 10.0.0.9")
	}
	s.sent = append(s.sent, msg)
	return nil
}

type testServer struct {
	router *gin.Engine
	sender *captureSender
	subs   *storage.SubscriptionStore
	db     *gorm.DB
	h      *Handler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := storagetest.NewDB(t)
	storagetest.SeedPapers(t, db,
		storagetest.Paper("cs1", "Attention Is All You Need", 2017, 90000, "12-25"),
		storagetest.Paper("cs2", "Deep Residual Learning", 2015, 150000, "12-25"),
		storagetest.Paper("old", "An Old Classic", 1950, 10, "12-25"),
	)

	cfg := &config.Config{
		SiteURL:      "https://example.org",
		Timezone:     "UTC",
		SearchLimit:  20,
		APISecretKey: "secret",
	}
	papers := storage.NewPaperStore(db)
	subs := storage.NewSubscriptionStore(db)
	sender := &captureSender{}
	log := zap.NewNop()

	h := &Handler{
		Config:        cfg,
		Logger:        log,
		Papers:        services.NewPaperService(cfg, log, papers),
		Subscriptions: services.NewSubscriptionService(cfg, log, papers, subs, sender),
		Dispatcher:    services.NewDispatcher(cfg, log, subs, sender),
	}
	return &testServer{router: NewRouter(h), sender: sender, subs: subs, db: db, h: h}
}

func (s *testServer) do(t *testing.T, method, target, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestPapersForDateRoute(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/api/papers/dec-25?sort=year&order=asc&min_citations=100", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "dec-25", body["date"])
	assert.Equal(t, "December 25", body["display_date"])
	assert.EqualValues(t, 3, body["total_papers"])

	papers := body["papers"].([]any)
	require.Len(t, papers, 2)
	first := papers[0].(map[string]any)
	assert.Equal(t, "cs2", first["id"])
	assert.Equal(t, "deep-residual-learning-2015", first["slug"])
	assert.Equal(t, "/dec-25/deep-residual-learning-2015", first["path"])
	assert.Equal(t, "Computer Science", first["field"])
	assert.NotContains(t, first, "fields_of_study")
}

func TestPapersRouteErrors(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		target string
		status int
	}{
		{"/api/papers/xyz-99", http.StatusBadRequest},
		{"/api/papers/jan-32", http.StatusBadRequest},
		{"/api/papers/dec-25?sort=title", http.StatusBadRequest},
		{"/api/papers/dec-25?min_year=abc", http.StatusBadRequest},
		{"/api/papers/feb-30", http.StatusNotFound},
		{"/api/papers/dec-25-1999", http.StatusNotFound},
		{"/api/papers/dec-25/unknown-slug-2000", http.StatusNotFound},
		{"/api/search-papers?q=ab", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			w := s.do(t, http.MethodGet, tt.target, "", nil)
			assert.Equal(t, tt.status, w.Code)
			assert.NotEmpty(t, decode(t, w)["error"])
		})
	}
}

func TestTodayRoute(t *testing.T) {
	s := newTestServer(t)
	today := services.TokenFor(time.Now().UTC()).MonthDay()
	storagetest.SeedPapers(t, s.db, storagetest.Paper("now", "Paper Of The Day", 2000, 1, today))

	w := s.do(t, http.MethodGet, "/api/papers/today", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var ids []any
	for _, p := range decode(t, w)["papers"].([]any) {
		ids = append(ids, p.(map[string]any)["id"])
	}
	assert.Contains(t, ids, "now")
}

func TestPaperBySlugAndRandomRoutes(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/api/papers/dec-25/attention-is-all-you-need-2017", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "cs1", decode(t, w)["id"])

	w = s.do(t, http.MethodGet, "/api/papers/dec-25/random?exclude=cs1", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, []any{"cs1", "cs2", "old"}, decode(t, w)["id"])
}

func TestFieldAndSearchRoutes(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/api/fields/computer-science?date=dec-25", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "Computer Science", body["field"])
	assert.EqualValues(t, 3, body["count"])

	w = s.do(t, http.MethodGet, "/api/search-papers?q=residual", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body = decode(t, w)
	assert.Equal(t, true, body["success"])
	assert.EqualValues(t, 1, body["count"])
	first := body["papers"].([]any)[0].(map[string]any)
	assert.Equal(t, "/dec-25/deep-residual-learning-2015", first["path"])

	w = s.do(t, http.MethodGet, "/api/stats", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestSubscribeVerifyUnsubscribeRoutes(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/subscribe-birthday", `{"email":"alice@example.com","paperId":"cs1"}`, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["success"])

	w = s.do(t, http.MethodPost, "/api/subscribe-birthday", `{"email":"alice@example.com","paperId":"cs1"}`, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	sub, err := s.subs.FindActive(context.Background(), "alice@example.com", "cs1")
	require.NoError(t, err)

	w = s.do(t, http.MethodGet, "/api/verify-email/"+sub.VerificationToken, "", nil)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "https://example.org/?verified=success", w.Header().Get("Location"))

	w = s.do(t, http.MethodGet, "/api/verify-email/"+sub.VerificationToken, "", nil)
	loc, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "error", loc.Query().Get("verified"))
	assert.Equal(t, services.ErrAlreadyVerified.Message, loc.Query().Get("message"))

	w = s.do(t, http.MethodGet, "/api/unsubscribe/"+sub.UnsubscribeToken, "", nil)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "https://example.org/?unsubscribed=success", w.Header().Get("Location"))

	w = s.do(t, http.MethodGet, "/api/unsubscribe/unknown", "", nil)
	loc, err = url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "error", loc.Query().Get("unsubscribed"))
}

func TestSubscribeRouteErrors(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"malformed json", `{"email":`, http.StatusBadRequest},
		{"missing fields", `{}`, http.StatusBadRequest},
		{"invalid email", `{"email":"nope","paperId":"cs1"}`, http.StatusBadRequest},
		{"unknown paper", `{"email":"a@example.com","paperId":"missing"}`, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, http.MethodPost, "/api/subscribe-birthday", tt.body, nil)
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestSubscribeHidesDeliveryDetails(t *testing.T) {
	s := newTestServer(t)
	s.sender.fail = true

	w := s.do(t, http.MethodPost, "/api/subscribe-birthday", `{"email":"alice@example.com","paperId":"cs1"}`, nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, services.ErrEmailDelivery.Message, decode(t, w)["error"])
	assert.NotContains(t, w.Body.String(), "10.0.0.9")
}

func TestAdminRoutesRequireAPIKey(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/admin/dispatch", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodPost, "/admin/dispatch", "", map[string]string{"X-API-KEY": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodPost, "/admin/snapshot", "", map[string]string{"X-API-KEY": "secret"})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestAdminDispatch(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	w := s.do(t, http.MethodPost, "/api/subscribe-birthday", `{"email":"alice@example.com","paperId":"cs1"}`, nil)
	require.Equal(t, http.StatusOK, w.Code)
	sub, err := s.subs.FindActive(ctx, "alice@example.com", "cs1")
	require.NoError(t, err)
	s.do(t, http.MethodGet, "/api/verify-email/"+sub.VerificationToken, "", nil)

	key := map[string]string{"X-API-KEY": "secret"}
	w = s.do(t, http.MethodPost, "/admin/dispatch?date=12-25&year=2024&dry_run=true", "", key)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.EqualValues(t, 1, body["total"])
	assert.EqualValues(t, 0, body["sent"])

	w = s.do(t, http.MethodPost, "/admin/dispatch?date=12-25&year=2024", "", key)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode(t, w)["sent"])
	assert.Equal(t, `🎂 Happy 7th Birthday to "Attention Is All You Need"!`, s.sender.sent[len(s.sender.sent)-1].Subject)

	w = s.do(t, http.MethodPost, "/admin/dispatch?date=12-25&year=2024", "", key)
	assert.EqualValues(t, 0, decode(t, w)["total"])

	w = s.do(t, http.MethodPost, "/admin/dispatch?date=25-12", "", key)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRequestIDAndHealth(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/healthz", "", map[string]string{"X-Request-ID": "abc"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "abc", w.Header().Get("X-Request-ID"))

	w = s.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Len(t, w.Header().Get("X-Request-ID"), 36)

	w = s.do(t, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestFieldRouteListsAvailableFieldsOnMiss(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/api/fields/physics?date=dec-25", "", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	body := decode(t, w)
	assert.Equal(t, services.ErrNoPapers.Message, body["error"])
	assert.Equal(t, []any{"Computer Science"}, body["available_fields"])

	w = s.do(t, http.MethodGet, "/api/fields/physics?date=jan-1", "", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.NotContains(t, decode(t, w), "available_fields")
}

// blockingObjects hält jeden Upload fest, bis der Kontext endet.
type blockingObjects struct {
	started chan struct{}
	once    sync.Once
	puts    atomic.Int32
}

func (b *blockingObjects) Put(ctx context.Context, _ string, _ []byte, _ string) error {
	b.puts.Add(1)
	b.once.Do(func() { close(b.started) })
	<-ctx.Done()
	return ctx.Err()
}

func TestAsyncSnapshotStopsWithServerContext(t *testing.T) {
	s := newTestServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	objects := &blockingObjects{started: make(chan struct{})}
	s.h.BaseContext = ctx
	s.h.Snapshots = services.NewSnapshotExporter(s.h.Config, zap.NewNop(), storage.NewPaperStore(s.db), objects)
	key := map[string]string{"X-API-KEY": "secret"}

	w := s.do(t, http.MethodPost, "/admin/snapshot", "", key)
	require.Equal(t, http.StatusAccepted, w.Code)

	select {
	case <-objects.started:
	case <-time.After(5 * time.Second):
		t.Fatal("export did not start")
	}

	w = s.do(t, http.MethodPost, "/admin/snapshot", "", key)
	assert.Equal(t, http.StatusConflict, w.Code)

	cancel()
	done := make(chan struct{})
	go func() {
		s.h.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("export ignored the cancelled server context")
	}
	assert.EqualValues(t, 1, objects.puts.Load())

	// Nach dem Ende ist ein neuer Export wieder erlaubt.
	w = s.do(t, http.MethodPost, "/admin/snapshot", "", key)
	assert.Equal(t, http.StatusAccepted, w.Code)
	s.h.Wait()
}

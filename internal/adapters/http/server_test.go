package http

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unimarket/authctx"
	"github.com/unimarket/authctx/pkg/adapters/memory"
	"github.com/unimarket/authctx/pkg/domain"
	"github.com/unimarket/authctx/pkg/observability"
)

type fixture struct {
	store   *authctx.Store
	shared  *memory.Tier
	bus     *memory.Bus
	handler http.Handler
}

func newFixture(t *testing.T, initialize bool) *fixture {
	t.Helper()
	reg := prometheus.NewRegistry()
	f := &fixture{shared: memory.NewTier(), bus: memory.NewBus()}
	f.store = authctx.New(memory.NewTier(), f.shared,
		authctx.WithBroadcaster(f.bus.Attach()),
		authctx.WithMetrics(observability.NewMetrics(reg)),
	)
	if initialize {
		f.store.Initialize(context.Background())
	}
	f.handler = NewHandler(f.store, WithGatherer(reg))
	return f
}

func (f *fixture) do(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rr := httptest.NewRecorder()
	f.handler.ServeHTTP(rr, req)
	return rr
}

func decodeState(t *testing.T, rr *httptest.ResponseRecorder) authctx.State {
	t.Helper()
	var st authctx.State
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &st))
	return st
}

func TestGetHealth(t *testing.T) {
	f := newFixture(t, true)
	rr := f.do(http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
}

func TestGetSession_LoadingIsUnavailable(t *testing.T) {
	f := newFixture(t, false)
	rr := f.do(http.MethodGet, "/session", "")
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)

	f.store.Initialize(context.Background())
	rr = f.do(http.MethodGet, "/session", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	st := decodeState(t, rr)
	assert.Nil(t, st.User)
	assert.Equal(t, domain.DefaultRole, st.Role)
}

func TestSessionLifecycle(t *testing.T) {
	f := newFixture(t, true)

	rr := f.do(http.MethodPut, "/session", `{"id":"42","email":"a@b.com","fullName":"Ann","token":"tok"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	st := decodeState(t, rr)
	require.NotNil(t, st.User)
	assert.Equal(t, "Ann", st.FullName)
	assert.Equal(t, "tok", st.Token)
	assert.Equal(t, domain.DefaultRole, st.Role)

	rr = f.do(http.MethodPatch, "/session", `{"fullName":"Ann B","emailConfirmed":true}`)
	require.Equal(t, http.StatusOK, rr.Code)
	st = decodeState(t, rr)
	assert.Equal(t, "Ann B", st.FullName)
	assert.True(t, st.User.EmailConfirmed)
	assert.Equal(t, "a@b.com", st.Email, "unrelated fields survive a patch")

	rr = f.do(http.MethodDelete, "/session", "")
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Nil(t, f.store.User())
	_, err := f.shared.Get(context.Background(), domain.KeyUser)
	assert.ErrorIs(t, err, domain.ErrKeyNotFound)
}

func TestPutSession_Validation(t *testing.T) {
	f := newFixture(t, true)
	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodPut, "/session", `{`).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodPut, "/session", `{"id":"1"}`).Code)
}

func TestPatchSession_UnknownField(t *testing.T) {
	f := newFixture(t, true)
	rr := f.do(http.MethodPatch, "/session", `{"nickname":"x"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestToken(t *testing.T) {
	f := newFixture(t, true)
	f.do(http.MethodPut, "/session", `{"id":"42","email":"a@b.com","token":"old"}`)

	rr := f.do(http.MethodPut, "/token", `{"token":"new"}`)
	require.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "new", f.store.Token())
	assert.Equal(t, "new", f.store.User().Token)

	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodPut, "/token", `{}`).Code)

	rr = f.do(http.MethodDelete, "/token", "")
	require.Equal(t, http.StatusNoContent, rr.Code)
	assert.Empty(t, f.store.Token())
	assert.NotNil(t, f.store.User(), "clearing the token keeps the session")
}

func TestLogout_Broadcasts(t *testing.T) {
	f := newFixture(t, true)
	f.do(http.MethodPut, "/session", `{"id":"42","email":"a@b.com","token":"tok"}`)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	signals, err := f.bus.Attach().Subscribe(ctx)
	require.NoError(t, err)

	rr := f.do(http.MethodPost, "/logout", "")
	require.Equal(t, http.StatusNoContent, rr.Code)
	assert.Nil(t, f.store.User())

	got := map[domain.SignalKind]bool{}
	for len(got) < 2 {
		select {
		case sig := <-signals:
			got[sig.Kind] = true
		case <-time.After(time.Second):
			t.Fatalf("signals received: %v", got)
		}
	}
	assert.True(t, got[domain.SignalLogout])
	assert.True(t, got[domain.SignalClearSearchHistory])
}

func TestSubscribeEvents_StreamsSiblingSignals(t *testing.T) {
	f := newFixture(t, true)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() { _ = f.store.Listen(ctx) }()

	srv := httptest.NewServer(f.handler)
	defer srv.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/events?watch=clear-ui", nil)
	require.NoError(t, err)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	lines := make(chan string, 16)
	go func() {
		sc := bufio.NewScanner(resp.Body)
		for sc.Scan() {
			lines <- sc.Text()
		}
		close(lines)
	}()

	waitFor := func(want string) {
		t.Helper()
		deadline := time.After(2 * time.Second)
		for {
			select {
			case line, ok := <-lines:
				require.True(t, ok, "stream closed before %q", want)
				if line == want {
					return
				}
			case <-deadline:
				t.Fatalf("did not see %q", want)
			}
		}
	}
	waitFor("data: connected")

	// The listener subscribes asynchronously; give it a moment before the sibling publishes.
	time.Sleep(50 * time.Millisecond)
	sibling := f.bus.Attach()
	require.NoError(t, sibling.Publish(ctx, domain.NewSignal(domain.SignalClearSearchHistory, time.Now())))

	waitFor("event: clear-ui")
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t, true)
	f.do(http.MethodPost, "/logout", "")

	rr := f.do(http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "unimarket_session_signals_published_total")
	assert.Contains(t, rr.Body.String(), "unimarket_session_restores_total")
}

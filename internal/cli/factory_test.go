package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unimarket/authctx"
	"github.com/unimarket/authctx/internal/config"
	"github.com/unimarket/authctx/internal/logging"
	"github.com/unimarket/authctx/pkg/domain"
)

func TestBuildStore_FileBackendSharesAcrossProcesses(t *testing.T) {
	cfg := config.Default()
	cfg.Dir = t.TempDir()
	ctx := context.Background()

	first, err := BuildStore(cfg, logging.NewNop(), prometheus.NewRegistry())
	require.NoError(t, err)
	first.Store.Initialize(ctx)
	first.Store.SetUser(ctx, &domain.Session{ID: "42", Email: "a@b.com", Token: "tok"})

	second, err := BuildStore(cfg, logging.NewNop(), nil)
	require.NoError(t, err)
	second.Store.Initialize(ctx)

	require.NotNil(t, second.Store.User())
	assert.Equal(t, "42", second.Store.User().ID)
	assert.NotEqual(t, first.Store.TabID(), second.Store.TabID())
}

func TestBuildStore_RedisWithEncryption(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := config.Default()
	cfg.Backend = config.BackendRedis
	cfg.Redis.Addr = mr.Addr()
	cfg.EncryptionKey = strings.Repeat("0f", 32)
	ctx := context.Background()

	w, err := BuildStore(cfg, logging.NewNop(), nil)
	require.NoError(t, err)
	defer w.Close()

	w.Store.Initialize(ctx)
	w.Store.SetToken(ctx, "secret-token")

	stored, err := mr.Get("unimarket:token")
	require.NoError(t, err)
	assert.NotContains(t, stored, "secret-token")

	again, err := BuildStore(cfg, logging.NewNop(), nil)
	require.NoError(t, err)
	defer again.Close()
	again.Store.Initialize(ctx)
	again.Store.SetUser(ctx, &domain.Session{ID: "1", Email: "e@x.io"})
	assert.Equal(t, "secret-token", again.Store.Token(), "token recovered through decryption")
}

func TestBuildStore_RedisPulseSharesTierPrefix(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := config.Default()
	cfg.Backend = config.BackendRedis
	cfg.Redis.Addr = mr.Addr()
	cfg.Redis.Prefix = "shop:"
	cfg.PulseDelay = time.Second
	ctx := context.Background()

	w, err := BuildStore(cfg, logging.NewNop(), nil)
	require.NoError(t, err)
	defer w.Close()

	w.Store.Initialize(ctx)
	w.Store.Logout(ctx)

	assert.True(t, mr.Exists("shop:"+string(domain.SignalLogout)))
	assert.False(t, mr.Exists("unimarket:"+string(domain.SignalLogout)))
}

func TestBuildStore_InvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Backend = "sqlite"
	_, err := BuildStore(cfg, logging.NewNop(), nil)
	assert.Error(t, err)
}

func TestRunWatch_PrintsSiblingLogout(t *testing.T) {
	cfg := config.Default()
	cfg.Dir = t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	watcher, err := BuildStore(cfg, logging.NewNop(), nil)
	require.NoError(t, err)
	other, err := BuildStore(cfg, logging.NewNop(), nil)
	require.NoError(t, err)

	var out syncBuffer
	done := make(chan error, 1)
	go func() { done <- RunWatch(ctx, watcher.Store, &out) }()

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "Watching signals")
	}, time.Second, 10*time.Millisecond)
	time.Sleep(200 * time.Millisecond)

	other.Store.Initialize(ctx)
	other.Store.Logout(ctx)

	require.Eventually(t, func() bool {
		s := out.String()
		return strings.Contains(s, string(authctx.EventRemoteLogout)) &&
			strings.Contains(s, string(authctx.EventClearSearchHistory))
	}, 3*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watch did not stop")
	}
}

func TestPrintState(t *testing.T) {
	st := authctx.State{
		User:     &domain.Session{ID: "42", LoginProvider: "Email"},
		FullName: "Ann",
		Email:    "a@b.com",
		Role:     "User",
		Token:    "abcdefghijkl",
		TabID:    "tab-1",
	}

	var human bytes.Buffer
	require.NoError(t, PrintState(&human, st, true))
	assert.Contains(t, human.String(), "Ann <a@b.com>")
	assert.Contains(t, human.String(), "abcd...ijkl")
	assert.NotContains(t, human.String(), "abcdefghijkl")

	var machine bytes.Buffer
	require.NoError(t, PrintState(&machine, st, false))
	assert.Contains(t, machine.String(), `"tabId": "tab-1"`)

	var loggedOut bytes.Buffer
	require.NoError(t, PrintState(&loggedOut, authctx.State{TabID: "t"}, true))
	assert.Contains(t, loggedOut.String(), "Not logged in")
}

func TestMaskToken(t *testing.T) {
	assert.Equal(t, "(none)", MaskToken(""))
	assert.Equal(t, "***", MaskToken("short"))
}

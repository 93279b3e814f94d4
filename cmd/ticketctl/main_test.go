package main

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append(args, "--env-file", filepath.Join(t.TempDir(), "none.env")))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func setupEnv(t *testing.T) {
	t.Helper()
	t.Setenv("APP_ENV", "test")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_DSN", filepath.Join(t.TempDir(), "ctl.db"))
	t.Setenv("CACHE_DRIVER", "memory")
	t.Setenv("EVENTS_REDIS_CHANNEL", "")
	t.Setenv("METRICS_PUSHGATEWAY_URL", "")
	t.Setenv("LOG_LEVEL", "error")
}

func TestMigrateSeedAndRollback(t *testing.T) {
	setupEnv(t)

	out, err := run(t, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "Migrated: ")

	out, err = run(t, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "Nothing to migrate.")

	out, err = run(t, "seed")
	require.NoError(t, err)
	assert.Contains(t, out, "admin created: true, withdraw fee created: true")

	out, err = run(t, "seed")
	require.NoError(t, err)
	assert.Contains(t, out, "admin created: false, withdraw fee created: false")

	out, err = run(t, "migrate", "rollback")
	require.NoError(t, err)
	assert.Contains(t, out, "Rolled back: ")

	out, err = run(t, "migrate", "rollback")
	require.NoError(t, err)
	assert.Contains(t, out, "Nothing to rollback.")
}

func TestTicketList_ForSeededAdmin(t *testing.T) {
	setupEnv(t)

	_, err := run(t, "migrate")
	require.NoError(t, err)
	_, err = run(t, "seed")
	require.NoError(t, err)

	out, err := run(t, "ticket", "list", "--as", "superadmin")
	require.NoError(t, err)
	assert.Equal(t, "[]\n", out)

	_, err = run(t, "ticket", "show", "missing-uid", "--as", "superadmin")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PURCHASE_NOT_FOUND (404)")

	_, err = run(t, "ticket", "list", "--as", "nobody")
	assert.Error(t, err)
}

func TestInvalidConfigurationFails(t *testing.T) {
	setupEnv(t)
	t.Setenv("CACHE_DRIVER", "file")

	_, err := run(t, "migrate")
	assert.ErrorContains(t, err, "invalid configuration")
}

// pushRecorder, Pushgateway yerine geçen test sunucusunun aldığı istekler.
type pushRecorder struct {
	mu       sync.Mutex
	requests []pushRequest
}

type pushRequest struct {
	method, path string
	body         []byte
}

func (r *pushRecorder) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	body, _ := io.ReadAll(req.Body)
	r.mu.Lock()
	r.requests = append(r.requests, pushRequest{method: req.Method, path: req.URL.Path, body: body})
	r.mu.Unlock()
	w.WriteHeader(http.StatusOK)
}

func (r *pushRecorder) all() []pushRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]pushRequest(nil), r.requests...)
}

func TestTicketChecks_PushMetrics(t *testing.T) {
	setupEnv(t)
	rec := &pushRecorder{}
	srv := httptest.NewServer(rec)
	defer srv.Close()

	_, err := run(t, "migrate")
	require.NoError(t, err)
	_, err = run(t, "seed")
	require.NoError(t, err)

	t.Setenv("METRICS_PUSHGATEWAY_URL", srv.URL)
	t.Setenv("METRICS_JOB", "gate")

	_, err = run(t, "ticket", "list", "--as", "superadmin")
	require.NoError(t, err)
	assert.Empty(t, rec.all(), "only gate checks push metrics")

	_, err = run(t, "ticket", "validate", "missing-uid", "--event", "1", "--as", "superadmin")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PURCHASE_NOT_FOUND (404)")

	requests := rec.all()
	require.Len(t, requests, 1)
	assert.Equal(t, http.MethodPost, requests[0].method)
	assert.Equal(t, "/metrics/job/gate", requests[0].path)
	assert.Contains(t, string(requests[0].body), "ticket_checks_total")
	assert.Contains(t, string(requests[0].body), "not_found")
}

func TestTicketChecks_PushFailureDoesNotFailCommand(t *testing.T) {
	setupEnv(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := run(t, "migrate")
	require.NoError(t, err)
	_, err = run(t, "seed")
	require.NoError(t, err)

	t.Setenv("METRICS_PUSHGATEWAY_URL", srv.URL)
	_, err = run(t, "ticket", "use", "missing-uid", "--event", "1", "--as", "superadmin")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PURCHASE_NOT_FOUND (404)", "the check result is reported, not the push error")
}

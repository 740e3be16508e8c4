package server

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mindnestapp/mindnest/pkg/config"
	"github.com/mindnestapp/mindnest/pkg/migrations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func newTestDB(t *testing.T) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())

	_, err = db.Exec("PRAGMA foreign_keys = ON")
	require.NoError(t, err)

	_, err = migrations.BringUpToDate(context.Background(), db)
	require.NoError(t, err)

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

func newTestServer(t *testing.T) (*httptest.Server, *http.Client) {
	t.Helper()

	cfg := &config.Config{
		JWTSecret:             "test-secret",
		OTPTTLMinutes:         10,
		UploadSessionTTLHours: 24,
	}
	db := newTestDB(t)

	srv, services, err := New(cfg, db, nil)
	require.NoError(t, err)
	require.NotNil(t, services.Auth)
	require.NotNil(t, services.Stories)

	ts := httptest.NewServer(srv.Handler)
	t.Cleanup(ts.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	return ts, &http.Client{Jar: jar}
}

func postJSON(t *testing.T, client *http.Client, url, body string) *http.Response {
	t.Helper()

	resp, err := client.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestServer_HealthCheck(t *testing.T) {
	ts, client := newTestServer(t)

	resp, err := client.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServer_RegisterAndSubmitStory(t *testing.T) {
	ts, client := newTestServer(t)

	resp := postJSON(t, client, ts.URL+"/auth/register",
		`{"email":"e2e@example.com","name":"E2E","password":"password123","role":"student"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = postJSON(t, client, ts.URL+"/stories",
		`{"is_chunk":false,"title":"From The Top","content":"a full story"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	listResp, err := client.Get(ts.URL + "/stories")
	require.NoError(t, err)
	defer listResp.Body.Close()
	assert.Equal(t, http.StatusOK, listResp.StatusCode)
}

func TestServer_UnauthenticatedWriteRejected(t *testing.T) {
	ts, _ := newTestServer(t)

	// No cookie jar on this client, so no session.
	resp, err := http.Post(ts.URL+"/stories", "application/json",
		strings.NewReader(`{"is_chunk":false,"content":"nope"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestServer_NotFoundRoute(t *testing.T) {
	ts, client := newTestServer(t)

	resp, err := client.Get(ts.URL + "/nope")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

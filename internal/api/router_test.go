package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moodlog/moodlog-be/internal/auth"
	"github.com/moodlog/moodlog-be/internal/database"
	"github.com/moodlog/moodlog-be/internal/services"
	"github.com/moodlog/moodlog-be/internal/websocket"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	db, err := database.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(db))

	hub := websocket.NewHub()
	go hub.Run()

	tokens := auth.NewTokenService("test-secret", time.Hour)
	seq := services.NewSequenceService(db)
	users := services.NewUserService(db, seq)
	entries := services.NewEntryService(db, seq)
	events := services.NewEventService(db, hub)

	return NewRouter(tokens, hub, users, entries, events)
}

func do(t *testing.T, router http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

func TestLiveness(t *testing.T) {
	router := newTestRouter(t)
	for _, method := range []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete} {
		rec := do(t, router, method, "/", "", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "OK", rec.Body.String())
	}
}

func TestProtectedRoutesRejectMissingToken(t *testing.T) {
	router := newTestRouter(t)

	for _, route := range []struct{ method, path string }{
		{http.MethodGet, "/protected"},
		{http.MethodPost, "/entry"},
		{http.MethodGet, "/entry"},
		{http.MethodDelete, "/entry"},
		{http.MethodPut, "/entry/1"},
		{http.MethodGet, "/entrylist"},
		{http.MethodDelete, "/deleteuser/alice"},
		{http.MethodGet, "/events"},
	} {
		rec := do(t, router, route.method, route.path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "%s %s", route.method, route.path)
	}
}

func TestRegister_Validation(t *testing.T) {
	router := newTestRouter(t)

	rec := do(t, router, http.MethodPost, "/register", "", map[string]string{"username": "alice"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEntryLifecycle(t *testing.T) {
	router := newTestRouter(t)

	// Register alice.
	rec := do(t, router, http.MethodPost, "/register", "", map[string]string{
		"username": "alice", "email": "a@x.com", "password": "pw1",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	// Duplicate username is a conflict regardless of email.
	rec = do(t, router, http.MethodPost, "/register", "", map[string]string{
		"username": "alice", "email": "b@x.com", "password": "pw2",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Wrong password.
	rec = do(t, router, http.MethodPost, "/login", "", map[string]string{
		"username": "alice", "password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Login.
	rec = do(t, router, http.MethodPost, "/login", "", map[string]string{
		"username": "alice", "password": "pw1",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var loginResp struct {
		Token string `json:"token"`
	}
	decode(t, rec, &loginResp)
	require.NotEmpty(t, loginResp.Token)
	token := loginResp.Token

	// Identity probe.
	rec = do(t, router, http.MethodGet, "/protected", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var probe map[string]string
	decode(t, rec, &probe)
	assert.Equal(t, "alice", probe["username"])

	// Create an entry; the first entry id is 1.
	rec = do(t, router, http.MethodPost, "/entry", token, map[string]any{
		"mood": 5, "sleep": 8, "irritability": 1,
		"medications": []map[string]string{{"name": "lithium", "dose": "300mg"}},
		"diet":        []map[string]string{{"food": "toast", "amount": "2 slices"}},
		"exercise":    "run", "notes": "ok day",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var created struct {
		ID int64 `json:"id"`
	}
	decode(t, rec, &created)
	assert.Equal(t, int64(1), created.ID)

	// Missing mood is a 400.
	rec = do(t, router, http.MethodPost, "/entry", token, map[string]any{"sleep": 8})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Latest comes back as a one-element list.
	rec = do(t, router, http.MethodGet, "/entry", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var latest []map[string]any
	decode(t, rec, &latest)
	require.Len(t, latest, 1)
	assert.Equal(t, float64(1), latest[0]["id"])
	assert.Equal(t, float64(5), latest[0]["mood"])
	assert.Equal(t, "alice", latest[0]["postedBy"])

	// Update by id.
	rec = do(t, router, http.MethodPut, "/entry/1", token, map[string]any{"mood": 2, "notes": "worse"})
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, router, http.MethodGet, "/entry", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &latest)
	require.Len(t, latest, 1)
	assert.Equal(t, float64(2), latest[0]["mood"])

	// Updating a nonexistent id is a 404.
	rec = do(t, router, http.MethodPut, "/entry/99", token, map[string]any{"mood": 2})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Activity feed saw the traffic.
	rec = do(t, router, http.MethodGet, "/events", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var events []map[string]any
	decode(t, rec, &events)
	assert.NotEmpty(t, events)

	// Delete latest, then there is nothing left to delete.
	rec = do(t, router, http.MethodDelete, "/entry", token, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, router, http.MethodDelete, "/entry", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestOwnership(t *testing.T) {
	router := newTestRouter(t)

	for _, u := range []struct{ name, email string }{
		{"alice", "a@x.com"}, {"bob", "b@x.com"},
	} {
		rec := do(t, router, http.MethodPost, "/register", "", map[string]string{
			"username": u.name, "email": u.email, "password": "pw",
		})
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	login := func(name string) string {
		rec := do(t, router, http.MethodPost, "/login", "", map[string]string{
			"username": name, "password": "pw",
		})
		require.Equal(t, http.StatusOK, rec.Code)
		var resp struct {
			Token string `json:"token"`
		}
		decode(t, rec, &resp)
		return resp.Token
	}
	aliceToken, bobToken := login("alice"), login("bob")

	rec := do(t, router, http.MethodPost, "/entry", aliceToken, map[string]any{"mood": 5})
	require.Equal(t, http.StatusCreated, rec.Code)

	// Bob cannot update alice's entry.
	rec = do(t, router, http.MethodPut, "/entry/1", bobToken, map[string]any{"mood": 0})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Bob cannot see alice's entries.
	rec = do(t, router, http.MethodGet, "/entrylist", bobToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []map[string]any
	decode(t, rec, &list)
	assert.Empty(t, list)

	// Bob cannot delete alice's account.
	rec = do(t, router, http.MethodDelete, "/deleteuser/alice", bobToken, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Deleting a nonexistent account is a 404.
	rec = do(t, router, http.MethodDelete, "/deleteuser/carol", aliceToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Alice deletes her own account; her entries go with it.
	rec = do(t, router, http.MethodDelete, "/deleteuser/alice", aliceToken, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	// The token is still a valid signature, but the data is gone.
	rec = do(t, router, http.MethodGet, "/entrylist", aliceToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &list)
	assert.Empty(t, list)
}

package shared_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/surveyhub/surveyhub/internal/shared"
)

func newManager(t *testing.T) (*shared.SessionManager, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return shared.NewSessionManager(client, "sid", time.Hour, false), mr
}

func TestSessionMiddlewareIssuesCookieAndPersists(t *testing.T) {
	manager, mr := newManager(t)
	var seen string
	handler := shared.SessionMiddleware(manager, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := shared.SessionFromContext(r.Context())
		require.NotNil(t, sess)
		seen = sess.ID
		sess.Set("k", "v")
		_, _ = w.Write([]byte("ok"))
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "sid", cookies[0].Name)
	assert.Equal(t, seen, cookies[0].Value)
	assert.True(t, mr.Exists("session:"+seen))
}

func TestSessionMiddlewareFlashSurvivesRedirect(t *testing.T) {
	manager, _ := newManager(t)
	mux := http.NewServeMux()
	mux.HandleFunc("/set", func(w http.ResponseWriter, r *http.Request) {
		shared.RedirectWithFlash(w, r, "/get", "success", "saved")
	})
	mux.HandleFunc("/get", func(w http.ResponseWriter, r *http.Request) {
		flash := shared.SessionFromContext(r.Context()).PopFlash()
		if flash == nil {
			_, _ = w.Write([]byte("none"))
			return
		}
		_, _ = w.Write([]byte(flash.Kind + ":" + flash.Message))
	})
	handler := shared.SessionMiddleware(manager, nil)(mux)

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, httptest.NewRequest(http.MethodPost, "/set", nil))
	assert.Equal(t, http.StatusSeeOther, first.Code)

	get := func() string {
		req := httptest.NewRequest(http.MethodGet, "/get", nil)
		for _, c := range first.Result().Cookies() {
			req.AddCookie(c)
		}
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		return rr.Body.String()
	}
	assert.Equal(t, "success:saved", get())
	assert.Equal(t, "none", get())
}

func TestSessionMiddlewareReplacesForgedCookie(t *testing.T) {
	manager, _ := newManager(t)
	handler := shared.SessionMiddleware(manager, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "sid", Value: "../../admin"})
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.NotEqual(t, "../../admin", cookies[0].Value)
}

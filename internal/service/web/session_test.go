package web_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/storefront/internal/cart"
	"github.com/vladislavdragonenkov/storefront/internal/service/web"
)

func bareFactory(string) *web.Session {
	return &web.Session{Cart: cart.NewStore()}
}

func TestSessionManagerReusesCookieSession(t *testing.T) {
	m := web.NewSessionManager(bareFactory, web.WithManagerLogger(testLogger()))

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	first := m.GetOrCreate(w, r)
	require.NotEmpty(t, first.ID)
	require.Equal(t, 1, m.Len())

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	require.Equal(t, web.SessionCookie, cookies[0].Name)

	r2 := httptest.NewRequest(http.MethodGet, "/", nil)
	r2.AddCookie(cookies[0])
	second := m.GetOrCreate(httptest.NewRecorder(), r2)
	require.Same(t, first, second)
	require.Equal(t, 1, m.Len())
}

func TestSessionManagerUnknownCookieGetsNewSession(t *testing.T) {
	m := web.NewSessionManager(bareFactory, web.WithManagerLogger(testLogger()))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: web.SessionCookie, Value: "expired-id"})

	session := m.GetOrCreate(httptest.NewRecorder(), r)
	require.NotEqual(t, "expired-id", session.ID)
}

func TestSessionManagerSweepRemovesIdleSessions(t *testing.T) {
	m := web.NewSessionManager(bareFactory,
		web.WithManagerLogger(testLogger()),
		web.WithSessionTTL(time.Minute),
	)

	m.GetOrCreate(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	m.GetOrCreate(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, 2, m.Len())

	// Сейчас сессии свежие.
	require.Zero(t, m.Sweep(time.Now()))
	require.Equal(t, 2, m.Len())

	// Спустя TTL обе бездействуют.
	removed := m.Sweep(time.Now().Add(2 * time.Minute))
	require.Equal(t, 2, removed)
	require.Equal(t, 0, m.Len())
}

func TestSessionManagerEvictsAtLimit(t *testing.T) {
	m := web.NewSessionManager(bareFactory,
		web.WithManagerLogger(testLogger()),
		web.WithMaxSessions(2),
	)

	m.GetOrCreate(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	m.GetOrCreate(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	m.GetOrCreate(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, 2, m.Len())
}

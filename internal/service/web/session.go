// Package web реализует HTTP-поверхность витрины для браузера: сессии с
// корзиной и checkout, тонкие JSON-обработчики и склейку с backend.
package web

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/cart"
	"github.com/vladislavdragonenkov/storefront/internal/checkout"
)

// SessionCookie — имя cookie с идентификатором сессии витрины.
const SessionCookie = "storefront_session"

const (
	defaultSessionTTL  = 2 * time.Hour
	defaultSweepPeriod = 10 * time.Minute
	defaultMaxSessions = 10000
)

// Session хранит состояние одного браузера: корзину и машину checkout.
type Session struct {
	ID         string
	Cart       *cart.Store
	Checkout   *checkout.Orchestrator
	Reconciler *checkout.Reconciler

	mu       sync.Mutex
	lastSeen time.Time
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) seen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// SessionFactory собирает состояние новой сессии.
type SessionFactory func(id string) *Session

// ManagerOptions задает параметры менеджера сессий.
type ManagerOptions struct {
	Logger      *log.Entry
	TTL         time.Duration
	SweepPeriod time.Duration
	MaxSessions int
}

// ManagerOption настраивает SessionManager.
type ManagerOption func(*ManagerOptions)

// WithManagerLogger задает logger для менеджера.
func WithManagerLogger(logger *log.Entry) ManagerOption {
	return func(opts *ManagerOptions) {
		opts.Logger = logger
	}
}

// WithSessionTTL задает срок жизни бездействующей сессии.
func WithSessionTTL(ttl time.Duration) ManagerOption {
	return func(opts *ManagerOptions) {
		opts.TTL = ttl
	}
}

// WithSweepPeriod задает интервал между циклами очистки.
func WithSweepPeriod(period time.Duration) ManagerOption {
	return func(opts *ManagerOptions) {
		opts.SweepPeriod = period
	}
}

// WithMaxSessions ограничивает число одновременных сессий.
func WithMaxSessions(limit int) ManagerOption {
	return func(opts *ManagerOptions) {
		opts.MaxSessions = limit
	}
}

// SessionManager выдаёт сессию по cookie и убирает бездействующие.
type SessionManager struct {
	factory SessionFactory
	logger  *log.Entry
	ttl     time.Duration
	period  time.Duration
	limit   int

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewSessionManager создает менеджер сессий.
func NewSessionManager(factory SessionFactory, options ...ManagerOption) *SessionManager {
	opts := ManagerOptions{
		TTL:         defaultSessionTTL,
		SweepPeriod: defaultSweepPeriod,
		MaxSessions: defaultMaxSessions,
	}
	for _, option := range options {
		option(&opts)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.WithField("component", "session-manager")
	}
	if opts.TTL <= 0 {
		opts.TTL = defaultSessionTTL
	}
	if opts.SweepPeriod <= 0 {
		opts.SweepPeriod = defaultSweepPeriod
	}
	if opts.MaxSessions <= 0 {
		opts.MaxSessions = defaultMaxSessions
	}

	return &SessionManager{
		factory:  factory,
		logger:   logger,
		ttl:      opts.TTL,
		period:   opts.SweepPeriod,
		limit:    opts.MaxSessions,
		sessions: make(map[string]*Session),
	}
}

// GetOrCreate возвращает сессию запроса, создавая её и cookie при отсутствии.
func (m *SessionManager) GetOrCreate(w http.ResponseWriter, r *http.Request) *Session {
	now := time.Now()

	if cookie, err := r.Cookie(SessionCookie); err == nil {
		m.mu.Lock()
		if session, ok := m.sessions[cookie.Value]; ok {
			m.mu.Unlock()
			session.touch(now)
			return session
		}
		m.mu.Unlock()
	}

	id := uuid.NewString()
	session := m.factory(id)
	session.ID = id
	session.touch(now)

	m.mu.Lock()
	if len(m.sessions) >= m.limit {
		m.evictOldestLocked()
	}
	m.sessions[id] = session
	m.mu.Unlock()

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	m.logger.WithField("session_id", id).Debug("session created")
	return session
}

// Len возвращает число активных сессий.
func (m *SessionManager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Run запускает периодическую очистку бездействующих сессий до отмены ctx.
func (m *SessionManager) Run(ctx context.Context) {
	ticker := time.NewTicker(m.period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep(time.Now())
		}
	}
}

// Sweep удаляет сессии, бездействующие дольше TTL, и возвращает их число.
func (m *SessionManager) Sweep(now time.Time) int {
	cutoff := now.Add(-m.ttl)

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, session := range m.sessions {
		if session.seen().Before(cutoff) {
			delete(m.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		m.logger.WithField("removed", removed).Info("idle sessions swept")
	}
	return removed
}

// evictOldestLocked удаляет самую старую сессию при переполнении.
func (m *SessionManager) evictOldestLocked() {
	var oldestID string
	var oldestSeen time.Time
	for id, session := range m.sessions {
		seen := session.seen()
		if oldestID == "" || seen.Before(oldestSeen) {
			oldestID = id
			oldestSeen = seen
		}
	}
	if oldestID != "" {
		delete(m.sessions, oldestID)
		m.logger.WithField("session_id", oldestID).Warn("session evicted, session limit reached")
	}
}

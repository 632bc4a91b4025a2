package authctx

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/unimarket/authctx/internal/logging"
	"github.com/unimarket/authctx/pkg/domain"
	"github.com/unimarket/authctx/pkg/observability"
	"github.com/unimarket/authctx/pkg/ports"
)

// ErrNoBroadcaster is returned by Listen when the store was built without WithBroadcaster.
var ErrNoBroadcaster = errors.New("no broadcaster configured")

// Tier names used in logs and metrics.
const (
	tierTab    = "tab"
	tierShared = "shared"
)

// State is a read-only projection of the store.
type State struct {
	User        *domain.Session `json:"user"`
	Token       string          `json:"token"`
	Role        string          `json:"role"`
	FullName    string          `json:"fullName"`
	Email       string          `json:"email"`
	PhoneNumber string          `json:"phoneNumber"`
	AvatarURL   string          `json:"avatarUrl"`
	TabID       string          `json:"tabId"`
	Loading     bool            `json:"loading"`
}

// Store is the single authoritative holder of the current Session and Token
// of one execution context. It mirrors every mutation into the tab-scoped and
// the cross-tab tiers and exchanges logout/reset signals with sibling contexts.
//
// Storage failures never escape the store: they are logged, counted and
// treated as "no data". Mutations are serialised by one mutex, so a caller
// never observes memory updated but storage not yet written.
type Store struct {
	tab         ports.Tier
	shared      ports.Tier
	broadcaster ports.Broadcaster
	logger      *slog.Logger
	metrics     *observability.Metrics
	now         func() time.Time

	mu          sync.RWMutex
	tabID       string
	user        *domain.Session
	token       string
	role        string
	fullName    string
	email       string
	phoneNumber string
	avatarURL   string
	loading     bool
	ready       chan struct{}
	readyOnce   sync.Once

	events *eventHub
}

// New creates a Store over a tab-scoped tier and a cross-tab tier.
// The store starts in the loading state; call Initialize once before trusting User or Token.
func New(tab, shared ports.Tier, opts ...Option) *Store {
	s := &Store{
		tab:     tab,
		shared:  shared,
		logger:  logging.NewNop(),
		now:     time.Now,
		role:    domain.DefaultRole,
		loading: true,
		ready:   make(chan struct{}),
		events:  newEventHub(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Initialize restores a prior session, if any. It never fails: restore errors
// are logged and leave the store logged out. Loading is false afterwards in every case.
func (s *Store) Initialize(ctx context.Context) {
	defer s.finishLoading()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.ensureTabID(ctx)

	sess, source := s.restore(ctx)
	s.metrics.RestoreCompleted(source)
	if sess == nil {
		s.logger.Debug("No session restored", "tab_id", s.tabID)
		return
	}
	s.apply(sess)
	s.logger.Info("Session restored", "tab_id", s.tabID, "source", source, "user_id", sess.ID)
}

func (s *Store) finishLoading() {
	s.mu.Lock()
	s.loading = false
	s.mu.Unlock()
	s.readyOnce.Do(func() { close(s.ready) })
}

// SetUser replaces the session. A nil session logs the context out locally
// (memory and both tiers) without broadcasting.
func (s *Store) SetUser(ctx context.Context, sess *domain.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess == nil {
		s.clearMemory()
		s.purge(ctx, domain.SessionKeys(), s.tiers()...)
		return
	}

	merged := sess.Clone()
	if merged.Token == "" {
		merged.Token = s.currentToken(ctx)
	}
	merged.Normalize()

	s.apply(merged)
	s.persistSession(ctx, merged)
}

// UpdateUser shallow-merges p into the current session. It is a no-op when logged out.
func (s *Store) UpdateUser(ctx context.Context, p domain.Patch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updateLocked(ctx, p)
}

func (s *Store) updateLocked(ctx context.Context, p domain.Patch) {
	if s.user == nil || p.IsEmpty() {
		return
	}
	merged := s.user.Merge(p)
	s.apply(merged)
	s.persistSession(ctx, merged)
	if merged.Token == "" {
		// persistSession never writes an empty token; drop the stale one.
		s.purge(ctx, []string{domain.KeyToken}, s.tiers()...)
	}
}

// SetRole updates the role. It goes through UpdateUser when a session exists,
// otherwise only the bare projection changes. Same for the setters below.
func (s *Store) SetRole(ctx context.Context, role string) {
	s.setField(ctx, domain.Patch{Role: &role}, func() {
		s.role = role
		if s.role == "" {
			s.role = domain.DefaultRole
		}
	})
}

// SetFullName updates the display name.
func (s *Store) SetFullName(ctx context.Context, name string) {
	s.setField(ctx, domain.Patch{FullName: &name}, func() { s.fullName = name })
}

// SetEmail updates the email.
func (s *Store) SetEmail(ctx context.Context, email string) {
	s.setField(ctx, domain.Patch{Email: &email}, func() { s.email = email })
}

// SetPhoneNumber updates the phone number.
func (s *Store) SetPhoneNumber(ctx context.Context, phone string) {
	s.setField(ctx, domain.Patch{PhoneNumber: &phone}, func() { s.phoneNumber = phone })
}

// SetAvatarURL updates the avatar URL.
func (s *Store) SetAvatarURL(ctx context.Context, url string) {
	s.setField(ctx, domain.Patch{AvatarURL: &url}, func() { s.avatarURL = url })
}

func (s *Store) setField(ctx context.Context, p domain.Patch, bare func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.user != nil {
		s.updateLocked(ctx, p)
		return
	}
	bare()
}

// SetToken stores the bearer credential in memory and both tiers, and keeps
// the session's embedded token in step. An empty token removes the stored
// token from both tiers but leaves the session itself in place; use Logout
// to end the session.
func (s *Store) SetToken(ctx context.Context, token string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if token == "" {
		s.token = ""
		s.purge(ctx, []string{domain.KeyToken}, s.tiers()...)
		return
	}

	s.token = token
	s.writeAll(ctx, []kv{{domain.KeyToken, token}})

	if s.user != nil {
		merged := s.user.Clone()
		merged.Token = token
		s.user = merged
		s.persistSession(ctx, merged)
	}
}

// Logout ends the session in this context, purges both tiers and tells
// sibling contexts to do the same and to reset their transient UI state.
func (s *Store) Logout(ctx context.Context) {
	s.mu.Lock()
	s.clearMemory()
	s.purge(ctx, domain.SessionKeys(), s.tiers()...)
	s.mu.Unlock()

	s.logger.Info("Logged out", "tab_id", s.TabID())

	// Published outside the lock: a broadcaster may block on I/O.
	s.publish(ctx, domain.SignalLogout)
	s.publish(ctx, domain.SignalClearSearchHistory)
}

func (s *Store) publish(ctx context.Context, kind domain.SignalKind) {
	if s.broadcaster == nil {
		return
	}
	if err := s.broadcaster.Publish(ctx, domain.NewSignal(kind, s.now())); err != nil {
		s.logger.Warn("Failed to broadcast signal", "kind", kind, "err", err)
		return
	}
	s.metrics.SignalPublished(string(kind))
}

// Listen consumes signals from sibling contexts until ctx is done.
// A received logout clears this context locally (memory and tab tier only)
// and is never re-broadcast.
func (s *Store) Listen(ctx context.Context) error {
	if s.broadcaster == nil {
		return ErrNoBroadcaster
	}
	signals, err := s.broadcaster.Subscribe(ctx)
	if err != nil {
		return err
	}

	for sig := range signals {
		s.metrics.SignalReceived(string(sig.Kind))
		switch sig.Kind {
		case domain.SignalLogout:
			s.clearLocal(ctx)
			s.events.emit(Event(sig.Kind.Topic()))
		case domain.SignalClearSearchHistory:
			s.events.emit(Event(sig.Kind.Topic()))
		default:
			s.logger.Debug("Ignoring unknown signal", "kind", sig.Kind)
		}
	}
	return nil
}

func (s *Store) clearLocal(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.logger.Info("Logout received from another context", "tab_id", s.tabID)
	s.clearMemory()
	// The originating context already purged the shared tier.
	s.purge(ctx, domain.SessionKeys(), namedTier{tierTab, s.tab})
}

// apply projects sess onto the individual fields. Caller holds mu.
func (s *Store) apply(sess *domain.Session) {
	s.user = sess
	s.token = sess.Token
	s.role = sess.Role
	s.fullName = sess.FullName
	s.email = sess.Email
	s.phoneNumber = sess.PhoneNumber
	s.avatarURL = sess.AvatarURL
}

func (s *Store) clearMemory() {
	s.user = nil
	s.token = ""
	s.role = domain.DefaultRole
	s.fullName = ""
	s.email = ""
	s.phoneNumber = ""
	s.avatarURL = ""
}

// currentToken returns the in-memory token, falling back to storage.
func (s *Store) currentToken(ctx context.Context) string {
	if s.token != "" {
		return s.token
	}
	return s.recoverToken(ctx)
}

// Read projection.

// User returns a copy of the current session, or nil when logged out.
func (s *Store) User() *domain.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user.Clone()
}

// Token returns the bearer credential.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Role returns the role, "User" when unknown.
func (s *Store) Role() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.role
}

func (s *Store) FullName() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fullName
}

func (s *Store) Email() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.email
}

func (s *Store) PhoneNumber() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.phoneNumber
}

func (s *Store) AvatarURL() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.avatarURL
}

// TabID returns the identity of this context. Diagnostic only, never used for authorization.
func (s *Store) TabID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tabID
}

// Loading reports whether Initialize has not completed yet.
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Ready is closed once Initialize completes.
func (s *Store) Ready() <-chan struct{} {
	return s.ready
}

// Snapshot returns every projected field at once.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return State{
		User:        s.user.Clone(),
		Token:       s.token,
		Role:        s.role,
		FullName:    s.fullName,
		Email:       s.email,
		PhoneNumber: s.phoneNumber,
		AvatarURL:   s.avatarURL,
		TabID:       s.tabID,
		Loading:     s.loading,
	}
}

// AuthorizationHeader returns the value collaborators attach to authenticated
// requests, or "" when there is no token.
func (s *Store) AuthorizationHeader() string {
	if tok := s.Token(); tok != "" {
		return "Bearer " + tok
	}
	return ""
}

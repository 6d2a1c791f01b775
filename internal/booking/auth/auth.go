// Package auth owns the session/credential lifecycle: OTP login and
// refresh-on-demand after a 401.
package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"

	"github.com/vietddude/slotbot/internal/booking/metrics"
	"github.com/vietddude/slotbot/internal/core/domain"
)

// Client is the subset of the API client the manager needs.
type Client interface {
	GenerateOTP(ctx context.Context, mobile string) (string, error)
	ValidateOTP(ctx context.Context, hashedCode, txnID string) (string, error)
}

// CodePrompter supplies the one-time code delivered out of band. The
// call blocks until the operator enters the code.
type CodePrompter interface {
	Code(ctx context.Context) (string, error)
}

// Error wraps a failed login or refresh.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return fmt.Sprintf("auth %s: %v", e.Op, e.Err) }
func (e *Error) Unwrap() error { return e.Err }

// Manager holds the single live session. It is driven by the strictly
// sequential engine, so no locking is needed: a completed refresh is
// visible to the very next operation by construction.
type Manager struct {
	client  Client
	prompt  CodePrompter
	log     *slog.Logger
	session domain.Session
}

// NewManager creates a credential manager.
func NewManager(client Client, prompt CodePrompter, log *slog.Logger) *Manager {
	if log == nil {
		log = slog.Default()
	}
	return &Manager{client: client, prompt: prompt, log: log}
}

// Session returns the current session. Zero until Login succeeds.
func (m *Manager) Session() domain.Session {
	return m.session
}

// Login issues the OTP challenge for identity, blocks for the code,
// and exchanges it for a token. On success the live session is
// replaced wholesale.
func (m *Manager) Login(ctx context.Context, identity string) (domain.Session, error) {
	txnID, err := m.client.GenerateOTP(ctx, identity)
	if err != nil {
		return domain.Session{}, &Error{Op: "login", Err: err}
	}
	m.log.Info("OTP sent", "identity", identity)

	code, err := m.prompt.Code(ctx)
	if err != nil {
		return domain.Session{}, &Error{Op: "login", Err: err}
	}

	token, err := m.client.ValidateOTP(ctx, hashCode(code), txnID)
	if err != nil {
		return domain.Session{}, &Error{Op: "login", Err: err}
	}

	m.session = domain.Session{Token: token, Identity: identity}
	m.log.Info("Logged in", "identity", identity)
	return m.session, nil
}

// Refresh re-runs the login flow with the previously recorded identity.
// It always yields a fresh token; callers serialize through the
// single-threaded scheduling model.
func (m *Manager) Refresh(ctx context.Context) (domain.Session, error) {
	if m.session.Identity == "" {
		return domain.Session{}, &Error{Op: "refresh", Err: fmt.Errorf("no prior login")}
	}
	m.log.Warn("Token expired, requesting a new one", "identity", m.session.Identity)
	metrics.TokenRefreshesTotal.Inc()
	session, err := m.Login(ctx, m.session.Identity)
	if err != nil {
		return domain.Session{}, &Error{Op: "refresh", Err: err}
	}
	return session, nil
}

func hashCode(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}

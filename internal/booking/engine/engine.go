// Package engine coordinates the credential manager, the availability
// search, and the booking attempts through the shared bounded retry
// loop. It is the surface the CLI layer consumes.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/vietddude/slotbot/internal/booking/metrics"
	"github.com/vietddude/slotbot/internal/core/classify"
	"github.com/vietddude/slotbot/internal/core/domain"
	"github.com/vietddude/slotbot/internal/core/retry"
	"github.com/vietddude/slotbot/internal/infra/cowin"
	"github.com/vietddude/slotbot/internal/infra/storage"
)

// Searcher issues one availability query.
type Searcher interface {
	Search(ctx context.Context, token, date string, pref domain.Preference) ([]domain.CandidateSlot, error)
}

// API is the subset of the remote client the booking path needs.
type API interface {
	Captcha(ctx context.Context, token string) (string, error)
	Schedule(ctx context.Context, token string, req cowin.ScheduleRequest) (string, error)
}

// Credentials owns the live session.
type Credentials interface {
	Login(ctx context.Context, identity string) (domain.Session, error)
	Refresh(ctx context.Context) (domain.Session, error)
	Session() domain.Session
}

// Config holds the retry knobs of the two loops.
type Config struct {
	FindAttempts  int           `yaml:"find_attempts"`
	FindInterval  time.Duration `yaml:"find_interval"`
	BookAttempts  int           `yaml:"book_attempts"`
	BookInterval  time.Duration `yaml:"book_interval"`
	RateLimitWait time.Duration `yaml:"rate_limit_wait"`
}

func (c Config) withDefaults() Config {
	if c.FindAttempts == 0 {
		c.FindAttempts = 5
	}
	if c.FindInterval == 0 {
		c.FindInterval = 5 * time.Second
	}
	if c.BookAttempts == 0 {
		c.BookAttempts = 5
	}
	if c.BookInterval == 0 {
		c.BookInterval = 3 * time.Second
	}
	if c.RateLimitWait == 0 {
		c.RateLimitWait = 30 * time.Second
	}
	return c
}

// BookingError is a failed claim, categorized for the caller. Conflict
// means the slot was taken by another client and retrying the same
// candidate is pointless; the caller should move on to the next one.
type BookingError struct {
	Class classify.Class
	Err   error
}

func (e *BookingError) Error() string {
	return fmt.Sprintf("booking %s: %v", e.Class, e.Err)
}

func (e *BookingError) Unwrap() error { return e.Err }

// IsConflict reports whether err is a terminal slot-taken failure.
func IsConflict(err error) bool {
	var bookErr *BookingError
	return errors.As(err, &bookErr) && bookErr.Class == classify.Conflict
}

// Engine runs the booking pipeline strictly sequentially: at most one
// outstanding request, suspension only on network waits, backoff
// sleeps, and the out-of-band OTP entry.
type Engine struct {
	cfg     Config
	auth    Credentials
	search  Searcher
	api     API
	history storage.HistoryRepository
	log     *slog.Logger
	runID   string
}

// New creates an engine. history may be nil to disable auditing.
func New(cfg Config, auth Credentials, search Searcher, api API, history storage.HistoryRepository, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	if history == nil {
		history = storage.NopHistory{}
	}
	runID := uuid.NewString()
	return &Engine{
		cfg:     cfg.withDefaults(),
		auth:    auth,
		search:  search,
		api:     api,
		history: history,
		log:     log.With("run", runID[:8]),
		runID:   runID,
	}
}

// RunID identifies this booking run in logs and audit records.
func (e *Engine) RunID() string { return e.runID }

// Authenticate performs the initial login for identity.
func (e *Engine) Authenticate(ctx context.Context, identity string) (domain.Session, error) {
	return e.auth.Login(ctx, identity)
}

// FindAvailableSlot polls availability until an eligible candidate
// appears, within the configured attempt budget. It returns the first
// eligible slot in the service's order.
func (e *Engine) FindAvailableSlot(ctx context.Context, date string, pref domain.Preference) (domain.CandidateSlot, error) {
	policy := retry.Policy[[]domain.CandidateSlot]{
		MaxAttempts: e.cfg.FindAttempts,
		Delay:       e.cfg.FindInterval,
		Acceptable:  func(slots []domain.CandidateSlot) bool { return len(slots) > 0 },
	}

	slots, err := retry.Run(ctx, policy, func(ctx context.Context) ([]domain.CandidateSlot, error) {
		found, err := e.search.Search(ctx, e.auth.Session().Token, date, pref)
		if err != nil {
			return nil, e.recoverable(ctx, err)
		}
		if len(found) == 0 {
			e.log.Info("No eligible slots yet", "date", date)
		}
		return found, nil
	})
	if err != nil {
		return domain.CandidateSlot{}, err
	}

	e.log.Info("Eligible slot found",
		"center", slots[0].Name, "date", slots[0].Date, "candidates", len(slots))
	return slots[0], nil
}

// ClaimSlot attempts to book the candidate within the configured
// attempt budget, acquiring a fresh anti-automation challenge per
// attempt and always submitting the first advertised time slot.
func (e *Engine) ClaimSlot(ctx context.Context, candidate domain.CandidateSlot, pref domain.Preference) (domain.BookingResult, error) {
	if len(candidate.TimeSlots) == 0 {
		return domain.BookingResult{}, &BookingError{
			Class: classify.Fatal,
			Err:   fmt.Errorf("candidate session %s has no time slots", candidate.SessionID),
		}
	}
	if !pref.Dose.Valid() || pref.BeneficiaryID == "" {
		return domain.BookingResult{}, &BookingError{
			Class: classify.Fatal,
			Err:   fmt.Errorf("preference is missing derived booking fields"),
		}
	}

	policy := retry.Policy[domain.BookingResult]{
		MaxAttempts: e.cfg.BookAttempts,
		Delay:       e.cfg.BookInterval,
	}

	result, err := retry.Run(ctx, policy, func(ctx context.Context) (domain.BookingResult, error) {
		return e.bookOnce(ctx, candidate, pref)
	})
	if err != nil {
		return domain.BookingResult{}, err
	}

	e.record(ctx, candidate, pref, result)
	return result, nil
}

// bookOnce is a single attempt: fresh challenge, then claim.
func (e *Engine) bookOnce(ctx context.Context, candidate domain.CandidateSlot, pref domain.Preference) (domain.BookingResult, error) {
	token := e.auth.Session().Token

	challenge, err := e.api.Captcha(ctx, token)
	if err != nil {
		metrics.BookingAttemptsTotal.WithLabelValues(classify.Classify(err).String()).Inc()
		return domain.BookingResult{}, e.recoverable(ctx, err)
	}

	e.log.Info("Submitting claim",
		"center", candidate.CenterID, "session", candidate.SessionID, "slot", candidate.TimeSlots[0])

	confirmation, err := e.api.Schedule(ctx, token, cowin.ScheduleRequest{
		Dose:          int(pref.Dose),
		SessionID:     candidate.SessionID,
		CenterID:      candidate.CenterID,
		Slot:          candidate.TimeSlots[0],
		Beneficiaries: []string{pref.BeneficiaryID},
		Captcha:       challenge,
	})
	if err != nil {
		metrics.BookingAttemptsTotal.WithLabelValues(classify.Classify(err).String()).Inc()
		return domain.BookingResult{}, e.bookingFailure(ctx, err)
	}

	metrics.BookingAttemptsTotal.WithLabelValues("success").Inc()
	return domain.BookingResult{ConfirmationNumber: confirmation}, nil
}

// recoverable resolves the recoverable classes in place: a 401 triggers
// exactly one credential refresh and the attempt is retried on the new
// token; a 429 honors the server-specified wait. Everything else aborts
// the loop immediately.
func (e *Engine) recoverable(ctx context.Context, err error) error {
	switch classify.Classify(err) {
	case classify.AuthExpired:
		if _, refreshErr := e.auth.Refresh(ctx); refreshErr != nil {
			return refreshErr
		}
		return retry.Recoverable(err)
	case classify.RateLimited:
		wait := e.cfg.RateLimitWait
		if serverWait, ok := classify.RetryAfterOf(err); ok {
			wait = serverWait
		}
		e.log.Warn("Rate limited, backing off", "wait", wait)
		return retry.RecoverableAfter(err, wait)
	}
	return err
}

// bookingFailure wraps claim outcomes in BookingError. Conflict is
// terminal for this candidate: the slot is provably gone, so retrying
// it would only burn the attempt budget.
func (e *Engine) bookingFailure(ctx context.Context, err error) error {
	switch classify.Classify(err) {
	case classify.AuthExpired, classify.RateLimited:
		return e.recoverable(ctx, err)
	case classify.Conflict:
		e.log.Warn("Slot already claimed by another client", "error", err)
		return &BookingError{Class: classify.Conflict, Err: err}
	}
	return &BookingError{Class: classify.Fatal, Err: err}
}

func (e *Engine) record(ctx context.Context, candidate domain.CandidateSlot, pref domain.Preference, result domain.BookingResult) {
	rec := storage.BookingRecord{
		RunID:              e.runID,
		BeneficiaryID:      pref.BeneficiaryID,
		CenterID:           candidate.CenterID,
		CenterName:         candidate.Name,
		SessionID:          candidate.SessionID,
		Slot:               candidate.TimeSlots[0],
		Date:               candidate.Date,
		Vaccine:            string(candidate.Vaccine),
		Dose:               int(pref.Dose),
		ConfirmationNumber: result.ConfirmationNumber,
		CreatedAt:          time.Now().UTC(),
	}
	if err := e.history.Record(ctx, rec); err != nil {
		e.log.Warn("Failed to record booking history", "error", err)
	}
	e.log.Info("Appointment booked", "confirmation", result.ConfirmationNumber)
}

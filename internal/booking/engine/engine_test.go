package engine

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/vietddude/slotbot/internal/core/classify"
	"github.com/vietddude/slotbot/internal/core/domain"
	"github.com/vietddude/slotbot/internal/core/retry"
	"github.com/vietddude/slotbot/internal/infra/cowin"
	"github.com/vietddude/slotbot/internal/infra/storage"
)

// fastConfig keeps the loops bounded without real sleeps.
func fastConfig() Config {
	return Config{
		FindAttempts:  5,
		FindInterval:  time.Millisecond,
		BookAttempts:  5,
		BookInterval:  time.Millisecond,
		RateLimitWait: time.Millisecond,
	}
}

type fakeCreds struct {
	session      domain.Session
	refreshCalls int
	refreshErr   error
}

func (f *fakeCreds) Login(ctx context.Context, identity string) (domain.Session, error) {
	f.session = domain.Session{Token: "tok-1", Identity: identity}
	return f.session, nil
}

func (f *fakeCreds) Refresh(ctx context.Context) (domain.Session, error) {
	f.refreshCalls++
	if f.refreshErr != nil {
		return domain.Session{}, f.refreshErr
	}
	f.session.Token = fmt.Sprintf("tok-%d", f.refreshCalls+1)
	return f.session, nil
}

func (f *fakeCreds) Session() domain.Session { return f.session }

// scriptedSearch replays canned results, one per call.
type scriptedSearch struct {
	results [][]domain.CandidateSlot
	errs    []error
	calls   int
	tokens  []string
}

func (s *scriptedSearch) Search(ctx context.Context, token, date string, pref domain.Preference) ([]domain.CandidateSlot, error) {
	i := s.calls
	s.calls++
	s.tokens = append(s.tokens, token)
	var err error
	if i < len(s.errs) {
		err = s.errs[i]
	}
	var result []domain.CandidateSlot
	if i < len(s.results) {
		result = s.results[i]
	}
	return result, err
}

type scriptedAPI struct {
	captchaCalls  int
	scheduleCalls int
	scheduleErrs  []error
	confirmation  string
	requests      []cowin.ScheduleRequest
	tokens        []string
}

func (a *scriptedAPI) Captcha(ctx context.Context, token string) (string, error) {
	a.captchaCalls++
	return fmt.Sprintf("captcha-%d", a.captchaCalls), nil
}

func (a *scriptedAPI) Schedule(ctx context.Context, token string, req cowin.ScheduleRequest) (string, error) {
	i := a.scheduleCalls
	a.scheduleCalls++
	a.requests = append(a.requests, req)
	a.tokens = append(a.tokens, token)
	if i < len(a.scheduleErrs) && a.scheduleErrs[i] != nil {
		return "", a.scheduleErrs[i]
	}
	return a.confirmation, nil
}

type memHistory struct {
	records []storage.BookingRecord
}

func (m *memHistory) Record(ctx context.Context, rec storage.BookingRecord) error {
	m.records = append(m.records, rec)
	return nil
}

func (m *memHistory) Recent(ctx context.Context, limit int) ([]storage.BookingRecord, error) {
	return m.records, nil
}

func testCandidate() domain.CandidateSlot {
	return domain.CandidateSlot{
		CenterID:      101,
		SessionID:     "s-1",
		Name:          "District Hospital",
		Vaccine:       domain.VaccineCovishield,
		Charge:        domain.ChargeFree,
		Dose1Capacity: 5,
		Date:          "02-06-2021",
		TimeSlots:     []string{"10:00-11:00", "11:00-12:00"},
	}
}

func testPref() domain.Preference {
	return domain.Preference{
		Vaccine:       domain.VaccineCovishield,
		Charge:        domain.ChargeFree,
		Dose:          domain.DoseFirst,
		BeneficiaryID: "ben-1",
	}
}

func TestFindAvailableSlot_ReturnsFirstCandidate(t *testing.T) {
	creds := &fakeCreds{session: domain.Session{Token: "tok-1", Identity: "999"}}
	search := &scriptedSearch{results: [][]domain.CandidateSlot{
		nil,
		{testCandidate(), {SessionID: "s-2"}},
	}}
	eng := New(fastConfig(), creds, search, &scriptedAPI{}, nil, nil)

	slot, err := eng.FindAvailableSlot(context.Background(), "02-06-2021", testPref())
	if err != nil {
		t.Fatalf("FindAvailableSlot failed: %v", err)
	}
	if slot.SessionID != "s-1" {
		t.Errorf("SessionID = %q, want s-1 (first in service order)", slot.SessionID)
	}
	if search.calls != 2 {
		t.Errorf("search calls = %d, want 2", search.calls)
	}
}

func TestFindAvailableSlot_ExhaustsBudget(t *testing.T) {
	creds := &fakeCreds{session: domain.Session{Token: "tok-1"}}
	search := &scriptedSearch{}
	eng := New(fastConfig(), creds, search, &scriptedAPI{}, nil, nil)

	_, err := eng.FindAvailableSlot(context.Background(), "02-06-2021", testPref())

	var exhausted *retry.ExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("err = %v, want ExhaustedError", err)
	}
	if exhausted.Attempts != 5 {
		t.Errorf("Attempts = %d, want 5", exhausted.Attempts)
	}
	if !errors.Is(err, retry.ErrNoResult) {
		t.Errorf("cause = %v, want ErrNoResult", exhausted.Cause)
	}
	if search.calls != 5 {
		t.Errorf("search calls = %d, want 5", search.calls)
	}
}

func TestFindAvailableSlot_RefreshesOnExpiredToken(t *testing.T) {
	creds := &fakeCreds{session: domain.Session{Token: "tok-1", Identity: "999"}}
	search := &scriptedSearch{
		errs: []error{&classify.APIError{Op: "calendar_by_pin", Status: 401}},
		results: [][]domain.CandidateSlot{
			nil,
			{testCandidate()},
		},
	}
	eng := New(fastConfig(), creds, search, &scriptedAPI{}, nil, nil)

	if _, err := eng.FindAvailableSlot(context.Background(), "02-06-2021", testPref()); err != nil {
		t.Fatalf("FindAvailableSlot failed: %v", err)
	}
	if creds.refreshCalls != 1 {
		t.Errorf("refresh calls = %d, want 1", creds.refreshCalls)
	}
	if len(search.tokens) != 2 || search.tokens[1] != "tok-2" {
		t.Errorf("retried search must use the refreshed token, got %v", search.tokens)
	}
}

func TestFindAvailableSlot_RefreshFailureIsFatal(t *testing.T) {
	creds := &fakeCreds{
		session:    domain.Session{Token: "tok-1", Identity: "999"},
		refreshErr: errors.New("otp rejected"),
	}
	search := &scriptedSearch{
		errs: []error{
			&classify.APIError{Op: "calendar_by_pin", Status: 401},
			&classify.APIError{Op: "calendar_by_pin", Status: 401},
		},
	}
	eng := New(fastConfig(), creds, search, &scriptedAPI{}, nil, nil)

	_, err := eng.FindAvailableSlot(context.Background(), "02-06-2021", testPref())
	if err == nil {
		t.Fatal("want error")
	}
	if search.calls != 1 {
		t.Errorf("search calls = %d, want 1 (failed refresh aborts the loop)", search.calls)
	}
}

func TestClaimSlot_BooksWithFreshChallenge(t *testing.T) {
	creds := &fakeCreds{session: domain.Session{Token: "tok-1", Identity: "999"}}
	api := &scriptedAPI{confirmation: "ABC123"}
	history := &memHistory{}
	eng := New(fastConfig(), creds, &scriptedSearch{}, api, history, nil)

	result, err := eng.ClaimSlot(context.Background(), testCandidate(), testPref())
	if err != nil {
		t.Fatalf("ClaimSlot failed: %v", err)
	}
	if result.ConfirmationNumber != "ABC123" {
		t.Errorf("ConfirmationNumber = %q", result.ConfirmationNumber)
	}
	if api.captchaCalls != 1 || api.scheduleCalls != 1 {
		t.Errorf("captcha=%d schedule=%d calls, want 1/1", api.captchaCalls, api.scheduleCalls)
	}

	req := api.requests[0]
	if req.Dose != 1 || req.SessionID != "s-1" || req.CenterID != 101 {
		t.Errorf("request = %+v", req)
	}
	if req.Slot != "10:00-11:00" {
		t.Errorf("Slot = %q, want the first advertised time slot", req.Slot)
	}
	if len(req.Beneficiaries) != 1 || req.Beneficiaries[0] != "ben-1" {
		t.Errorf("Beneficiaries = %v", req.Beneficiaries)
	}
	if req.Captcha != "captcha-1" {
		t.Errorf("Captcha = %q", req.Captcha)
	}

	if len(history.records) != 1 {
		t.Fatalf("history records = %d, want 1", len(history.records))
	}
	if history.records[0].ConfirmationNumber != "ABC123" || history.records[0].BeneficiaryID != "ben-1" {
		t.Errorf("record = %+v", history.records[0])
	}
}

func TestFindAndClaim_SingleAttemptEach(t *testing.T) {
	creds := &fakeCreds{session: domain.Session{Token: "tok-1", Identity: "999"}}
	search := &scriptedSearch{results: [][]domain.CandidateSlot{{testCandidate()}}}
	api := &scriptedAPI{confirmation: "ABC123"}
	eng := New(fastConfig(), creds, search, api, nil, nil)

	slot, err := eng.FindAvailableSlot(context.Background(), "02-06-2021", testPref())
	if err != nil {
		t.Fatalf("FindAvailableSlot failed: %v", err)
	}
	result, err := eng.ClaimSlot(context.Background(), slot, testPref())
	if err != nil {
		t.Fatalf("ClaimSlot failed: %v", err)
	}
	if result.ConfirmationNumber != "ABC123" {
		t.Errorf("ConfirmationNumber = %q", result.ConfirmationNumber)
	}
	if search.calls != 1 {
		t.Errorf("search calls = %d, want 1", search.calls)
	}
	if api.scheduleCalls != 1 {
		t.Errorf("schedule calls = %d, want 1", api.scheduleCalls)
	}
}

func TestClaimSlot_ConflictIsTerminal(t *testing.T) {
	creds := &fakeCreds{session: domain.Session{Token: "tok-1", Identity: "999"}}
	api := &scriptedAPI{scheduleErrs: []error{
		&classify.APIError{Op: "schedule", Status: 409, Message: "slot not available"},
	}}
	eng := New(fastConfig(), creds, &scriptedSearch{}, api, nil, nil)

	_, err := eng.ClaimSlot(context.Background(), testCandidate(), testPref())
	if !IsConflict(err) {
		t.Fatalf("err = %v, want conflict", err)
	}
	if api.scheduleCalls != 1 {
		t.Errorf("schedule calls = %d, want 1 (conflicts are not retried)", api.scheduleCalls)
	}
	if api.captchaCalls != 1 {
		t.Errorf("captcha calls = %d, want 1", api.captchaCalls)
	}
}

func TestClaimSlot_RetriesTransientFailures(t *testing.T) {
	creds := &fakeCreds{session: domain.Session{Token: "tok-1", Identity: "999"}}
	api := &scriptedAPI{
		confirmation: "ABC123",
		scheduleErrs: []error{
			&classify.APIError{Op: "schedule", Status: 429},
			nil,
		},
	}
	eng := New(fastConfig(), creds, &scriptedSearch{}, api, nil, nil)

	result, err := eng.ClaimSlot(context.Background(), testCandidate(), testPref())
	if err != nil {
		t.Fatalf("ClaimSlot failed: %v", err)
	}
	if result.ConfirmationNumber != "ABC123" {
		t.Errorf("ConfirmationNumber = %q", result.ConfirmationNumber)
	}
	if api.scheduleCalls != 2 {
		t.Errorf("schedule calls = %d, want 2", api.scheduleCalls)
	}
	// Every attempt must carry its own challenge.
	if api.captchaCalls != 2 {
		t.Errorf("captcha calls = %d, want 2", api.captchaCalls)
	}
}

func TestClaimSlot_ExpiredTokenDuringBooking(t *testing.T) {
	creds := &fakeCreds{session: domain.Session{Token: "tok-1", Identity: "999"}}
	api := &scriptedAPI{
		confirmation: "ABC123",
		scheduleErrs: []error{
			&classify.APIError{Op: "schedule", Status: 401},
			nil,
		},
	}
	eng := New(fastConfig(), creds, &scriptedSearch{}, api, nil, nil)

	if _, err := eng.ClaimSlot(context.Background(), testCandidate(), testPref()); err != nil {
		t.Fatalf("ClaimSlot failed: %v", err)
	}
	if creds.refreshCalls != 1 {
		t.Errorf("refresh calls = %d, want 1", creds.refreshCalls)
	}
	if len(api.tokens) != 2 || api.tokens[1] != "tok-2" {
		t.Errorf("retried claim must use the refreshed token, got %v", api.tokens)
	}
}

func TestClaimSlot_RejectsIncompleteInput(t *testing.T) {
	creds := &fakeCreds{session: domain.Session{Token: "tok-1"}}
	api := &scriptedAPI{}
	eng := New(fastConfig(), creds, &scriptedSearch{}, api, nil, nil)

	noSlots := testCandidate()
	noSlots.TimeSlots = nil
	if _, err := eng.ClaimSlot(context.Background(), noSlots, testPref()); err == nil {
		t.Error("want error for candidate without time slots")
	}

	noDose := testPref()
	noDose.Dose = 0
	if _, err := eng.ClaimSlot(context.Background(), testCandidate(), noDose); err == nil {
		t.Error("want error for preference without a dose")
	}

	if api.captchaCalls != 0 {
		t.Errorf("captcha calls = %d, want 0 (validation precedes any request)", api.captchaCalls)
	}
}

func TestClaimSlot_ExhaustsBudget(t *testing.T) {
	creds := &fakeCreds{session: domain.Session{Token: "tok-1", Identity: "999"}}
	errs := make([]error, 5)
	for i := range errs {
		errs[i] = &classify.APIError{Op: "schedule", Status: 429}
	}
	api := &scriptedAPI{scheduleErrs: errs}
	eng := New(fastConfig(), creds, &scriptedSearch{}, api, nil, nil)

	_, err := eng.ClaimSlot(context.Background(), testCandidate(), testPref())
	var exhausted *retry.ExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("err = %v, want ExhaustedError", err)
	}
	if api.scheduleCalls != 5 {
		t.Errorf("schedule calls = %d, want 5", api.scheduleCalls)
	}
}

func TestClaimSlot_CancelledContext(t *testing.T) {
	creds := &fakeCreds{session: domain.Session{Token: "tok-1", Identity: "999"}}
	api := &scriptedAPI{scheduleErrs: []error{
		&classify.APIError{Op: "schedule", Status: 429},
	}}
	cfg := fastConfig()
	cfg.RateLimitWait = time.Minute
	eng := New(cfg, creds, &scriptedSearch{}, api, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := eng.ClaimSlot(ctx, testCandidate(), testPref())
		done <- err
	}()
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("err = %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("claim did not observe cancellation")
	}
}

package control

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/vietddude/slotbot/internal/booking/engine"
	"github.com/vietddude/slotbot/internal/core/classify"
	"github.com/vietddude/slotbot/internal/core/domain"
	"github.com/vietddude/slotbot/internal/core/retry"
	"github.com/vietddude/slotbot/internal/infra/cowin"
)

// Geography resolves states and districts for preference capture.
type Geography interface {
	States(ctx context.Context) ([]cowin.StateRecord, error)
	Districts(ctx context.Context, stateID int) ([]cowin.DistrictRecord, error)
}

// UI is the interactive surface the run needs from the CLI layer.
type UI interface {
	// Mobile asks for the operator's registered mobile number.
	Mobile(ctx context.Context) (string, error)
	// Code asks for the one-time code delivered out of band.
	Code(ctx context.Context) (string, error)
	// SelectBeneficiaries picks which pending beneficiaries to book for.
	SelectBeneficiaries(ctx context.Context, pending []domain.Beneficiary) ([]domain.Beneficiary, error)
	// ConfirmPreference shows a stored preference and asks whether to
	// reuse it.
	ConfirmPreference(ctx context.Context, pref domain.Preference) (bool, error)
	// CapturePreference builds a fresh preference interactively. The
	// second return reports whether it should be persisted.
	CapturePreference(ctx context.Context, b domain.Beneficiary, geo Geography) (domain.Preference, bool, error)
	// ReportBooking renders a confirmed appointment.
	ReportBooking(b domain.Beneficiary, slot domain.CandidateSlot, pref domain.Preference, result domain.BookingResult)
}

// Run executes one full booking session: login, beneficiary selection,
// preference resolution, then find-and-claim per beneficiary.
func (a *App) Run(ctx context.Context, ui UI) error {
	identity, err := ui.Mobile(ctx)
	if err != nil {
		return err
	}
	if _, err := a.engine.Authenticate(ctx, identity); err != nil {
		return err
	}

	pending, err := a.pendingBeneficiaries(ctx)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		a.log.Info("All beneficiaries are fully vaccinated, nothing to book")
		return nil
	}

	selected, err := ui.SelectBeneficiaries(ctx, pending)
	if err != nil {
		return err
	}

	var firstErr error
	for _, b := range selected {
		if err := a.bookFor(ctx, ui, b); err != nil {
			if ctx.Err() != nil {
				return err
			}
			a.log.Error("Booking failed", "beneficiary", b.Name, "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (a *App) bookFor(ctx context.Context, ui UI, b domain.Beneficiary) error {
	pref, err := a.preferenceFor(ctx, ui, b)
	if err != nil {
		return err
	}
	merged := domain.MergeBeneficiary(pref, b)

	date := domain.NextVaccinationDate(merged, time.Now())
	slot, err := a.engine.FindAvailableSlot(ctx, date, merged)
	if err != nil {
		var exhausted *retry.ExhaustedError
		if errors.As(err, &exhausted) {
			a.log.Warn("No slot appeared within the attempt budget", "beneficiary", b.Name, "date", date)
		}
		return err
	}

	result, err := a.engine.ClaimSlot(ctx, slot, merged)
	if err != nil {
		if engine.IsConflict(err) {
			a.log.Warn("Candidate was claimed by another client, giving up on it",
				"beneficiary", b.Name, "session", slot.SessionID)
		}
		return err
	}

	ui.ReportBooking(b, slot, merged, result)
	return nil
}

// preferenceFor loads the stored preference for the beneficiary or
// captures a new one, persisting it when the operator asks to.
func (a *App) preferenceFor(ctx context.Context, ui UI, b domain.Beneficiary) (domain.Preference, error) {
	stored, found, err := a.store.Load(ctx, b.ReferenceID)
	if err != nil {
		a.log.Warn("Failed to load stored preference", "beneficiary", b.Name, "error", err)
	}
	if found {
		use, err := ui.ConfirmPreference(ctx, stored)
		if err != nil {
			return domain.Preference{}, err
		}
		if use {
			return stored, nil
		}
	}

	pref, save, err := ui.CapturePreference(ctx, b, a)
	if err != nil {
		return domain.Preference{}, err
	}
	if save {
		if err := a.store.Save(ctx, b.ReferenceID, pref); err != nil {
			a.log.Warn("Failed to save preference", "beneficiary", b.Name, "error", err)
		}
	}
	return pref, nil
}

// pendingBeneficiaries lists the account's beneficiaries who still
// need a dose.
func (a *App) pendingBeneficiaries(ctx context.Context) ([]domain.Beneficiary, error) {
	records, err := withAuthRetry(ctx, a, func(token string) ([]cowin.BeneficiaryRecord, error) {
		return a.client.Beneficiaries(ctx, token)
	})
	if err != nil {
		return nil, fmt.Errorf("list beneficiaries: %w", err)
	}

	var pending []domain.Beneficiary
	for _, rec := range records {
		b := toBeneficiary(rec)
		if b.VaccinationStatus == domain.StatusVaccinated {
			continue
		}
		pending = append(pending, b)
	}
	return pending, nil
}

// States implements Geography.
func (a *App) States(ctx context.Context) ([]cowin.StateRecord, error) {
	return withAuthRetry(ctx, a, func(token string) ([]cowin.StateRecord, error) {
		return a.client.States(ctx, token)
	})
}

// Districts implements Geography.
func (a *App) Districts(ctx context.Context, stateID int) ([]cowin.DistrictRecord, error) {
	return withAuthRetry(ctx, a, func(token string) ([]cowin.DistrictRecord, error) {
		return a.client.Districts(ctx, token, stateID)
	})
}

// withAuthRetry runs one authenticated call, refreshing the credential
// and retrying once if the token has expired.
func withAuthRetry[T any](ctx context.Context, a *App, call func(token string) (T, error)) (T, error) {
	result, err := call(a.auth.Session().Token)
	if err == nil || classify.Classify(err) != classify.AuthExpired {
		return result, err
	}
	if _, refreshErr := a.auth.Refresh(ctx); refreshErr != nil {
		var zero T
		return zero, refreshErr
	}
	return call(a.auth.Session().Token)
}

func toBeneficiary(rec cowin.BeneficiaryRecord) domain.Beneficiary {
	year, _ := strconv.Atoi(rec.BirthYear)
	return domain.Beneficiary{
		ReferenceID:       rec.ReferenceID,
		Name:              rec.Name,
		BirthYear:         year,
		Gender:            rec.Gender,
		VaccinationStatus: rec.VaccinationStatus,
		Vaccine:           rec.Vaccine,
		Dose1Date:         rec.Dose1Date,
		IDDocumentKind:    rec.PhotoIDType,
	}
}

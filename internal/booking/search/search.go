// Package search normalizes raw center records into candidate slots
// and applies the preference-derived eligibility filter.
package search

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/vietddude/slotbot/internal/booking/metrics"
	"github.com/vietddude/slotbot/internal/core/classify"
	"github.com/vietddude/slotbot/internal/core/domain"
	"github.com/vietddude/slotbot/internal/infra/cowin"
)

// Client is the subset of the API client the engine needs.
type Client interface {
	CalendarByPin(ctx context.Context, token, pincode, date string, vaccine domain.VaccineKind) ([]cowin.CenterRecord, error)
	CalendarByDistrict(ctx context.Context, token string, districtID int, date string, vaccine domain.VaccineKind) ([]cowin.CenterRecord, error)
}

// Engine issues parameterized availability searches.
type Engine struct {
	client Client
	log    *slog.Logger
	now    func() time.Time
}

// NewEngine creates a search engine.
func NewEngine(client Client, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{client: client, log: log, now: time.Now}
}

// Search queries availability for date under the preference's search
// mode and returns the eligible candidate slots, preserving the input
// order. Authorization failures are surfaced unclassified; the caller
// coordinates the credential refresh.
func (e *Engine) Search(ctx context.Context, token, date string, pref domain.Preference) ([]domain.CandidateSlot, error) {
	var (
		centers []cowin.CenterRecord
		err     error
	)
	switch pref.Mode {
	case domain.SearchByPincode:
		e.log.Info("Searching slots", "vaccine", pref.Vaccine, "date", date, "pincode", pref.Pincode)
		centers, err = e.client.CalendarByPin(ctx, token, pref.Pincode, date, pref.Vaccine)
	case domain.SearchByDistrict:
		e.log.Info("Searching slots", "vaccine", pref.Vaccine, "date", date, "district", pref.DistrictName)
		centers, err = e.client.CalendarByDistrict(ctx, token, pref.DistrictID, date, pref.Vaccine)
	default:
		return nil, fmt.Errorf("search: unknown mode %q", pref.Mode)
	}
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	metrics.SearchAttemptsTotal.Inc()

	slots, err := Expand(centers)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	eligible := Filter(slots, pref, e.now())
	metrics.CandidatesFoundTotal.Add(float64(len(eligible)))
	return eligible, nil
}

// Expand flattens center records into candidate slots, one per offered
// session. For paid centers the fee is looked up from the center's
// per-vaccine fee table; a missing or unparsable entry is a malformed
// response.
func Expand(centers []cowin.CenterRecord) ([]domain.CandidateSlot, error) {
	var out []domain.CandidateSlot
	for _, center := range centers {
		for _, session := range center.Sessions {
			slot := domain.CandidateSlot{
				CenterID:      center.CenterID,
				SessionID:     session.SessionID,
				Name:          center.Name,
				Address:       address(center),
				Vaccine:       domain.VaccineKind(session.Vaccine),
				Charge:        domain.ChargeKind(center.FeeType),
				MinAge:        session.MinAgeLimit,
				Dose1Capacity: session.Dose1Capacity,
				Dose2Capacity: session.Dose2Capacity,
				Date:          session.Date,
				TimeSlots:     session.Slots,
			}
			if slot.Charge == domain.ChargePaid {
				fee, err := vaccineFee(session.Vaccine, center.VaccineFees)
				if err != nil {
					return nil, fmt.Errorf("center %d: %w", center.CenterID, err)
				}
				slot.Fee = fee
			}
			out = append(out, slot)
		}
	}
	return out, nil
}

// Filter returns the slots eligible under the preference. It is pure
// and stable with respect to input order.
func Filter(slots []domain.CandidateSlot, pref domain.Preference, now time.Time) []domain.CandidateSlot {
	var out []domain.CandidateSlot
	for _, slot := range slots {
		if slot.Eligible(pref, now) {
			out = append(out, slot)
		}
	}
	return out
}

func address(center cowin.CenterRecord) string {
	return fmt.Sprintf("%s, %s %s - %d", center.Address, center.DistrictName, center.StateName, center.Pincode)
}

func vaccineFee(vaccine string, fees []cowin.VaccineFee) (int, error) {
	for _, entry := range fees {
		if entry.Vaccine == vaccine {
			fee, err := strconv.Atoi(entry.Fee)
			if err != nil {
				return 0, fmt.Errorf("fee %q for vaccine %s: %w", entry.Fee, vaccine, classify.ErrMalformedResponse)
			}
			return fee, nil
		}
	}
	return 0, fmt.Errorf("no fee entry for vaccine %s: %w", vaccine, classify.ErrMalformedResponse)
}

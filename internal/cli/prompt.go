package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/vietddude/slotbot/internal/control"
	"github.com/vietddude/slotbot/internal/core/domain"
)

// TerminalUI implements control.UI with line-based terminal prompts.
type TerminalUI struct {
	in  *bufio.Reader
	out io.Writer
}

// NewTerminalUI creates a terminal UI reading from in and writing to out.
func NewTerminalUI(in io.Reader, out io.Writer) *TerminalUI {
	return &TerminalUI{in: bufio.NewReader(in), out: out}
}

func (u *TerminalUI) ask(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	fmt.Fprint(u.out, prompt)
	line, err := u.in.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// Mobile asks for the registered 10-digit mobile number.
func (u *TerminalUI) Mobile(ctx context.Context) (string, error) {
	for {
		mobile, err := u.ask(ctx, "Enter your mobile number: ")
		if err != nil {
			return "", err
		}
		if len(mobile) == 10 && isDigits(mobile) {
			return mobile, nil
		}
		fmt.Fprintln(u.out, "Please enter a valid 10-digit mobile number.")
	}
}

// Code asks for the one-time code delivered out of band.
func (u *TerminalUI) Code(ctx context.Context) (string, error) {
	for {
		code, err := u.ask(ctx, "Enter the OTP received: ")
		if err != nil {
			return "", err
		}
		if code != "" {
			return code, nil
		}
	}
}

// SelectBeneficiaries shows the pending beneficiaries and asks which to
// book for. A single pending beneficiary is selected automatically.
func (u *TerminalUI) SelectBeneficiaries(ctx context.Context, pending []domain.Beneficiary) ([]domain.Beneficiary, error) {
	fmt.Fprintln(u.out, "\nBeneficiaries yet to receive vaccination:")
	w := tabwriter.NewWriter(u.out, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "#\tNAME\tAGE\tGENDER\tSTATUS")
	for i, b := range pending {
		fmt.Fprintf(w, "%d\t%s\t%d\t%s\t%s\n",
			i, b.Name, time.Now().Year()-b.BirthYear, b.Gender, b.VaccinationStatus)
	}
	w.Flush()

	if len(pending) == 1 {
		return pending, nil
	}

	for {
		input, err := u.ask(ctx, "Enter comma-separated indexes to book slots for: ")
		if err != nil {
			return nil, err
		}
		selected, ok := pickByIndex(pending, input)
		if ok {
			return selected, nil
		}
		fmt.Fprintln(u.out, "Please enter valid indexes.")
	}
}

// ConfirmPreference renders a stored preference and asks whether to
// reuse it.
func (u *TerminalUI) ConfirmPreference(ctx context.Context, pref domain.Preference) (bool, error) {
	u.renderPreference(pref)
	for {
		choice, err := u.ask(ctx, "Press 1 to confirm, 2 to edit: ")
		if err != nil {
			return false, err
		}
		switch choice {
		case "1":
			return true, nil
		case "2":
			return false, nil
		}
	}
}

// CapturePreference builds a preference interactively.
func (u *TerminalUI) CapturePreference(ctx context.Context, b domain.Beneficiary, geo control.Geography) (domain.Preference, bool, error) {
	pref := domain.Preference{Name: b.Name, BirthYear: b.BirthYear}

	mode, err := u.askSearchMode(ctx)
	if err != nil {
		return domain.Preference{}, false, err
	}
	pref.Mode = mode

	switch mode {
	case domain.SearchByPincode:
		if err := u.askPincode(ctx, &pref); err != nil {
			return domain.Preference{}, false, err
		}
	case domain.SearchByDistrict:
		if err := u.askDistrict(ctx, geo, &pref); err != nil {
			return domain.Preference{}, false, err
		}
	}

	vaccine, err := u.askVaccine(ctx, b)
	if err != nil {
		return domain.Preference{}, false, err
	}
	pref.Vaccine = vaccine

	charge, err := u.askCharge(ctx)
	if err != nil {
		return domain.Preference{}, false, err
	}
	pref.Charge = charge

	u.renderPreference(pref)
	save, err := u.askYesNo(ctx, "Save this preference for future runs (y/n)? ")
	if err != nil {
		return domain.Preference{}, false, err
	}
	return pref, save, nil
}

// ReportBooking renders a confirmed appointment.
func (u *TerminalUI) ReportBooking(b domain.Beneficiary, slot domain.CandidateSlot, pref domain.Preference, result domain.BookingResult) {
	fmt.Fprintf(u.out, "\nAppointment booked for %s, confirmation number: %s\n", b.Name, result.ConfirmationNumber)
	w := tabwriter.NewWriter(u.out, 2, 4, 2, ' ', 0)
	fmt.Fprintf(w, "CENTER\t%s\n", slot.Name)
	fmt.Fprintf(w, "ADDRESS\t%s\n", slot.Address)
	fmt.Fprintf(w, "DATE\t%s\n", slot.Date)
	fmt.Fprintf(w, "SLOT\t%s\n", slot.TimeSlots[0])
	fmt.Fprintf(w, "VACCINE\t%s\n", slot.Vaccine)
	fmt.Fprintf(w, "CHARGE\t%s\n", slot.Charge)
	if slot.Charge == domain.ChargePaid {
		fmt.Fprintf(w, "FEE\t%d\n", slot.Fee)
	}
	w.Flush()
	if pref.IDDocumentKind != "" {
		fmt.Fprintf(u.out, "Do not forget to take your %s with you!\n", pref.IDDocumentKind)
	}
}

func (u *TerminalUI) askSearchMode(ctx context.Context) (domain.SearchMode, error) {
	for {
		input, err := u.ask(ctx, "Search by (1) pincode or (2) district? ")
		if err != nil {
			return "", err
		}
		switch input {
		case "1":
			return domain.SearchByPincode, nil
		case "2":
			return domain.SearchByDistrict, nil
		}
	}
}

func (u *TerminalUI) askPincode(ctx context.Context, pref *domain.Preference) error {
	for {
		pin, err := u.ask(ctx, "Enter your pincode: ")
		if err != nil {
			return err
		}
		if len(pin) == 6 && isDigits(pin) {
			pref.Pincode = pin
			return nil
		}
		fmt.Fprintln(u.out, "Please enter a valid 6-digit pincode.")
	}
}

func (u *TerminalUI) askDistrict(ctx context.Context, geo control.Geography, pref *domain.Preference) error {
	states, err := geo.States(ctx)
	if err != nil {
		return err
	}
	for _, s := range states {
		fmt.Fprintf(u.out, "%4d  %s\n", s.StateID, s.StateName)
	}
	for {
		input, err := u.ask(ctx, "Enter the state code: ")
		if err != nil {
			return err
		}
		id, err := strconv.Atoi(input)
		if err != nil {
			continue
		}
		for _, s := range states {
			if s.StateID == id {
				pref.StateID = s.StateID
				pref.StateName = s.StateName
			}
		}
		if pref.StateID != 0 {
			break
		}
	}

	districts, err := geo.Districts(ctx, pref.StateID)
	if err != nil {
		return err
	}
	for _, d := range districts {
		fmt.Fprintf(u.out, "%4d  %s\n", d.DistrictID, d.DistrictName)
	}
	for {
		input, err := u.ask(ctx, "Enter the district code: ")
		if err != nil {
			return err
		}
		id, err := strconv.Atoi(input)
		if err != nil {
			continue
		}
		for _, d := range districts {
			if d.DistrictID == id {
				pref.DistrictID = d.DistrictID
				pref.DistrictName = d.DistrictName
			}
		}
		if pref.DistrictID != 0 {
			return nil
		}
	}
}

func (u *TerminalUI) askVaccine(ctx context.Context, b domain.Beneficiary) (domain.VaccineKind, error) {
	// A partially vaccinated beneficiary must stick with the first
	// dose's vaccine.
	if b.Vaccine != "" {
		if v, err := domain.ParseVaccineKind(b.Vaccine); err == nil {
			return v, nil
		}
	}
	for {
		input, err := u.ask(ctx, "Preferred vaccine (COVISHIELD/COVAXIN/SPUTNIK): ")
		if err != nil {
			return "", err
		}
		v, err := domain.ParseVaccineKind(input)
		if err == nil {
			return v, nil
		}
		fmt.Fprintln(u.out, "Please enter a valid vaccine name.")
	}
}

func (u *TerminalUI) askCharge(ctx context.Context) (domain.ChargeKind, error) {
	for {
		input, err := u.ask(ctx, "Charge type (free/paid): ")
		if err != nil {
			return "", err
		}
		c, err := domain.ParseChargeKind(input)
		if err == nil {
			return c, nil
		}
		fmt.Fprintln(u.out, "Please enter free or paid.")
	}
}

func (u *TerminalUI) askYesNo(ctx context.Context, prompt string) (bool, error) {
	for {
		input, err := u.ask(ctx, prompt)
		if err != nil {
			return false, err
		}
		switch strings.ToLower(input) {
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
	}
}

func (u *TerminalUI) renderPreference(pref domain.Preference) {
	w := tabwriter.NewWriter(u.out, 2, 4, 2, ' ', 0)
	fmt.Fprintf(w, "NAME\t%s\n", pref.Name)
	fmt.Fprintf(w, "AGE\t%d\n", pref.Age(time.Now()))
	fmt.Fprintf(w, "VACCINE\t%s\n", pref.Vaccine)
	fmt.Fprintf(w, "CHARGE\t%s\n", pref.Charge)
	switch pref.Mode {
	case domain.SearchByPincode:
		fmt.Fprintf(w, "SEARCH\tby pincode %s\n", pref.Pincode)
	case domain.SearchByDistrict:
		fmt.Fprintf(w, "SEARCH\tby district %s, %s\n", pref.DistrictName, pref.StateName)
	}
	w.Flush()
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

func pickByIndex(pending []domain.Beneficiary, input string) ([]domain.Beneficiary, bool) {
	parts := strings.Split(input, ",")
	var selected []domain.Beneficiary
	for _, part := range parts {
		idx, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || idx < 0 || idx >= len(pending) {
			return nil, false
		}
		selected = append(selected, pending[idx])
	}
	return selected, len(selected) > 0
}

// Package cowin is the HTTP client for the remote scheduling service.
package cowin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/vietddude/slotbot/internal/booking/metrics"
	"github.com/vietddude/slotbot/internal/core/classify"
	"github.com/vietddude/slotbot/internal/core/domain"
)

// Config holds client settings.
type Config struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// Client issues JSON-over-HTTPS calls against the scheduling service.
// It is not safe for concurrent use by design: the engine runs strictly
// sequentially with at most one outstanding request.
type Client struct {
	base       string
	httpClient *http.Client
}

// NewClient creates a client for the given base URL.
func NewClient(cfg Config) *Client {
	base := cfg.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		base: base,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 5,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// GenerateOTP requests a one-time-code challenge for the mobile number
// and returns the server's transaction id.
func (c *Client) GenerateOTP(ctx context.Context, mobile string) (string, error) {
	body := map[string]string{"mobile": mobile, "secret": otpSecret}
	var out otpResponse
	if err := c.do(ctx, "generate_otp", http.MethodPost, pathGenerateOTP, "", body, &out); err != nil {
		return "", err
	}
	if out.TxnID == "" {
		return "", fmt.Errorf("generate_otp: missing txnId: %w", classify.ErrMalformedResponse)
	}
	return out.TxnID, nil
}

// ValidateOTP exchanges the hashed code and transaction id for a bearer
// token.
func (c *Client) ValidateOTP(ctx context.Context, hashedCode, txnID string) (string, error) {
	body := map[string]string{"otp": hashedCode, "txnId": txnID}
	var out tokenResponse
	if err := c.do(ctx, "validate_otp", http.MethodPost, pathValidateOTP, "", body, &out); err != nil {
		return "", err
	}
	if out.Token == "" {
		return "", fmt.Errorf("validate_otp: missing token: %w", classify.ErrMalformedResponse)
	}
	return out.Token, nil
}

// Beneficiaries lists the beneficiaries registered under the account.
func (c *Client) Beneficiaries(ctx context.Context, token string) ([]BeneficiaryRecord, error) {
	var out beneficiariesResponse
	if err := c.do(ctx, "beneficiaries", http.MethodGet, pathBeneficiaries, token, nil, &out); err != nil {
		return nil, err
	}
	return out.Beneficiaries, nil
}

// States lists the administrative states.
func (c *Client) States(ctx context.Context, token string) ([]StateRecord, error) {
	var out statesResponse
	if err := c.do(ctx, "states", http.MethodGet, pathStates, token, nil, &out); err != nil {
		return nil, err
	}
	return out.States, nil
}

// Districts lists the districts of one state.
func (c *Client) Districts(ctx context.Context, token string, stateID int) ([]DistrictRecord, error) {
	var out districtsResponse
	path := fmt.Sprintf(pathDistricts, stateID)
	if err := c.do(ctx, "districts", http.MethodGet, path, token, nil, &out); err != nil {
		return nil, err
	}
	return out.Districts, nil
}

// CalendarByPin searches centers around a postal code for the week
// starting at date.
func (c *Client) CalendarByPin(ctx context.Context, token, pincode, date string, vaccine domain.VaccineKind) ([]CenterRecord, error) {
	q := url.Values{}
	q.Set("pincode", pincode)
	q.Set("date", date)
	q.Set("vaccine", string(vaccine))
	var out centersResponse
	if err := c.do(ctx, "calendar_by_pin", http.MethodGet, pathCalendarByPin+"?"+q.Encode(), token, nil, &out); err != nil {
		return nil, err
	}
	return out.Centers, nil
}

// CalendarByDistrict searches centers in a district for the week
// starting at date.
func (c *Client) CalendarByDistrict(ctx context.Context, token string, districtID int, date string, vaccine domain.VaccineKind) ([]CenterRecord, error) {
	q := url.Values{}
	q.Set("district_id", strconv.Itoa(districtID))
	q.Set("date", date)
	q.Set("vaccine", string(vaccine))
	var out centersResponse
	if err := c.do(ctx, "calendar_by_district", http.MethodGet, pathCalendarByDistrict+"?"+q.Encode(), token, nil, &out); err != nil {
		return nil, err
	}
	return out.Centers, nil
}

// Captcha fetches a fresh anti-automation challenge token.
func (c *Client) Captcha(ctx context.Context, token string) (string, error) {
	var out captchaResponse
	if err := c.do(ctx, "captcha", http.MethodGet, pathCaptcha, token, nil, &out); err != nil {
		return "", err
	}
	if out.Captcha == "" {
		return "", fmt.Errorf("captcha: missing challenge: %w", classify.ErrMalformedResponse)
	}
	return out.Captcha, nil
}

// Schedule submits a claim for one session and returns the appointment
// confirmation number.
func (c *Client) Schedule(ctx context.Context, token string, req ScheduleRequest) (string, error) {
	var out scheduleResponse
	if err := c.do(ctx, "schedule", http.MethodPost, pathSchedule, token, req, &out); err != nil {
		return "", err
	}
	if out.ConfirmationNumber == "" {
		return "", fmt.Errorf("schedule: missing confirmation number: %w", classify.ErrMalformedResponse)
	}
	return out.ConfirmationNumber, nil
}

// do runs one request and decodes the response. Non-2xx statuses come
// back as *classify.APIError so callers can route them through the
// shared classifier.
func (c *Client) do(ctx context.Context, op, method, path, token string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: marshal request: %w", op, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return fmt.Errorf("%s: create request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("Origin", "https://selfregistration.cowin.gov.in")
	req.Header.Set("Referer", "https://selfregistration.cowin.gov.in/")
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/90.0.4430.212 Safari/537.36")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.APIRequestsTotal.WithLabelValues(op, "transport_error").Inc()
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	metrics.APILatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
	metrics.APIRequestsTotal.WithLabelValues(op, strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.apiError(op, resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, classify.ErrMalformedResponse)
	}
	return nil
}

func (c *Client) apiError(op string, resp *http.Response) error {
	apiErr := &classify.APIError{Op: op, Status: resp.StatusCode}
	if resp.StatusCode == 429 {
		apiErr.RetryAfter = parseRetryAfter(resp.Header.Get("Retry-After"))
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err == nil && len(data) > 0 {
		var body errorResponse
		if json.Unmarshal(data, &body) == nil && body.Error != "" {
			apiErr.Message = body.Error
		} else {
			apiErr.Message = string(data)
		}
	}
	return apiErr
}

// parseRetryAfter handles the delay-seconds form of the header. The
// HTTP-date form is rare on this service and falls back to zero, which
// callers replace with a default wait.
func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

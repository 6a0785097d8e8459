package otp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"activeclub/gateway/internal/config"
	"activeclub/gateway/internal/session"
)

var (
	ErrRequestFailed      = errors.New("otp request failed")
	ErrVerificationFailed = errors.New("otp verification failed")
)

// Client talks to the OTP backend. Verification is the only path that creates
// a session.
type Client struct {
	baseURL  string
	apiKey   string
	http     *http.Client
	sessions *session.Store
	log      zerolog.Logger
}

func NewClient(cfg config.OTPConfig, sessions *session.Store, log zerolog.Logger) *Client {
	return &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:   cfg.APIKey,
		http:     &http.Client{Timeout: cfg.Timeout},
		sessions: sessions,
		log:      log,
	}
}

// FormatPhoneNumber canonicalizes a raw phone number to +974 international
// form: formatting characters and any leading + are stripped, the 974 country
// code is prefixed unless already present. Idempotent.
func FormatPhoneNumber(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if !strings.HasPrefix(digits, "974") {
		digits = "974" + digits
	}
	return "+" + digits
}

type RequestResult struct {
	Success   bool   `json:"success"`
	Phone     string `json:"phone"`
	ExpiresIn int64  `json:"expires_in"`
	Message   string `json:"message"`
}

type VerifyResult struct {
	Success   bool   `json:"success"`
	CapToken  string `json:"cap_token"`
	ExpiresIn int64  `json:"expires_in"`
}

// RequestOTP asks the backend to send a one-time code to the given number.
func (c *Client) RequestOTP(ctx context.Context, phoneNumber string) (*RequestResult, error) {
	phone := FormatPhoneNumber(phoneNumber)

	var results []RequestResult
	status, err := c.post(ctx, "/request", map[string]string{"phone": phone}, &results)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	if status < 200 || status > 299 || len(results) == 0 {
		return nil, fmt.Errorf("%w: status %d", ErrRequestFailed, status)
	}

	result := results[0]
	if !result.Success {
		return nil, fmt.Errorf("%w: %s", ErrRequestFailed, result.Message)
	}

	c.log.Debug().Str("phone", phone).Int64("expires_in", result.ExpiresIn).Msg("otp requested")
	return &result, nil
}

// VerifyOTP checks the code and, on success, persists the issued session
// before returning.
func (c *Client) VerifyOTP(ctx context.Context, phoneNumber string, code string) (*VerifyResult, error) {
	phone := FormatPhoneNumber(phoneNumber)

	var results []VerifyResult
	status, err := c.post(ctx, "/verify", map[string]string{"phone": phone, "code": code}, &results)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrVerificationFailed, err)
	}
	if status < 200 || status > 299 || len(results) == 0 {
		return nil, fmt.Errorf("%w: status %d", ErrVerificationFailed, status)
	}

	result := results[0]
	if !result.Success {
		return nil, ErrVerificationFailed
	}

	expiresIn := time.Duration(result.ExpiresIn) * time.Second
	if err := c.sessions.Save(ctx, result.CapToken, phone, expiresIn); err != nil {
		return nil, err
	}

	c.log.Info().Str("phone", phone).Msg("otp verified, session created")
	return &result, nil
}

// Logout delegates to the session store; the backend holds no logout state.
func (c *Client) Logout(ctx context.Context) error {
	return c.sessions.Clear(ctx)
}

func (c *Client) post(ctx context.Context, path string, body any, out any) (int, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return 0, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("call otp backend: %w", err)
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.StatusCode, fmt.Errorf("decode response: %w", err)
	}
	return resp.StatusCode, nil
}

package otp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"activeclub/gateway/internal/config"
	"activeclub/gateway/internal/kv"
	"activeclub/gateway/internal/session"
)

func TestFormatPhoneNumber(t *testing.T) {
	cases := map[string]string{
		"55512345":        "+97455512345",
		"+974 5551-2345":  "+97455512345",
		"(974) 555 12345": "+97455512345",
		"97455512345":     "+97455512345",
		"+97455512345":    "+97455512345",
	}
	for input, want := range cases {
		require.Equal(t, want, FormatPhoneNumber(input), "input %q", input)
	}
}

func TestFormatPhoneNumberIdempotent(t *testing.T) {
	inputs := []string{"55512345", "+974 5551 2345", "974-555-12345", "  5 5 5 1 2 3 4 5 "}
	for _, input := range inputs {
		once := FormatPhoneNumber(input)
		require.Equal(t, once, FormatPhoneNumber(once))
		require.Regexp(t, `^\+974[0-9]*$`, once)
	}
}

func newTestClient(t *testing.T, baseURL string) (*Client, *session.Store) {
	t.Helper()
	sessions := session.NewStore(kv.NewMemory(), config.SessionConfig{
		MinTTL:             720 * time.Hour,
		RevalidateInterval: 5 * time.Minute,
	}, zerolog.Nop())
	client := NewClient(config.OTPConfig{
		BaseURL: baseURL,
		APIKey:  "test-key",
		Timeout: 5 * time.Second,
	}, sessions, zerolog.Nop())
	return client, sessions
}

func TestRequestOTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/request", r.URL.Path)
		require.Equal(t, "test-key", r.Header.Get("X-API-Key"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "+97455512345", body["phone"])

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"success":true,"phone":"+97455512345","expires_in":120,"message":"sent"}]`))
	}))
	defer srv.Close()

	client, _ := newTestClient(t, srv.URL)

	result, err := client.RequestOTP(context.Background(), "5551-2345")
	require.NoError(t, err)
	require.True(t, result.Success)
	require.Equal(t, "+97455512345", result.Phone)
	require.Equal(t, int64(120), result.ExpiresIn)
}

func TestRequestOTPBackendRejects(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"success":false,"message":"invalid number"}]`))
	}))
	defer srv.Close()

	client, _ := newTestClient(t, srv.URL)

	_, err := client.RequestOTP(context.Background(), "55512345")
	require.ErrorIs(t, err, ErrRequestFailed)
	require.Contains(t, err.Error(), "invalid number")
}

func TestRequestOTPNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	client, _ := newTestClient(t, srv.URL)

	_, err := client.RequestOTP(context.Background(), "55512345")
	require.ErrorIs(t, err, ErrRequestFailed)
}

func TestVerifyOTPCreatesSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/verify", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "+97455512345", body["phone"])
		require.Equal(t, "123456", body["code"])

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"success":true,"cap_token":"cap-token-1","expires_in":3600}]`))
	}))
	defer srv.Close()

	client, sessions := newTestClient(t, srv.URL)

	result, err := client.VerifyOTP(context.Background(), "55512345", "123456")
	require.NoError(t, err)
	require.True(t, result.Success)
	require.Equal(t, "cap-token-1", result.CapToken)

	sess, err := sessions.Load(context.Background())
	require.NoError(t, err)
	require.NotNil(t, sess)
	require.Equal(t, "cap-token-1", sess.Token)
	require.Equal(t, "+97455512345", sess.PhoneNumber)
	// Backend window of one hour is floored to 30 days.
	require.WithinDuration(t, time.Now().Add(720*time.Hour), sess.ExpiresAt, 5*time.Second)
}

func TestVerifyOTPWrongCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"success":false}]`))
	}))
	defer srv.Close()

	client, sessions := newTestClient(t, srv.URL)

	_, err := client.VerifyOTP(context.Background(), "55512345", "000000")
	require.ErrorIs(t, err, ErrVerificationFailed)

	sess, err := sessions.Load(context.Background())
	require.NoError(t, err)
	require.Nil(t, sess)
}

func TestLogout(t *testing.T) {
	client, sessions := newTestClient(t, "http://unused")
	ctx := context.Background()

	require.NoError(t, sessions.Save(ctx, "tok", "+97455512345", time.Hour))
	require.NoError(t, client.Logout(ctx))

	sess, err := sessions.Load(ctx)
	require.NoError(t, err)
	require.Nil(t, sess)
}

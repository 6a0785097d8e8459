package session

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"activeclub/gateway/internal/config"
	"activeclub/gateway/internal/kv"
)

const (
	keyToken  = "auth_token"
	keyPhone  = "phone_number"
	keyExpiry = "session_expiry"
)

// Session is the locally persisted proof of authentication. It is valid iff
// all three fields are present and now < ExpiresAt. Callers always receive a
// copy; the persisted record is only ever replaced wholesale.
type Session struct {
	Token       string
	PhoneNumber string
	ExpiresAt   time.Time
}

type Store struct {
	store  kv.Store
	minTTL time.Duration
	log    zerolog.Logger
}

func NewStore(store kv.Store, cfg config.SessionConfig, log zerolog.Logger) *Store {
	return &Store{
		store:  store,
		minTTL: cfg.MinTTL,
		log:    log,
	}
}

// Save replaces the persisted session. The expiry window is floored at
// MinTTL, so a short-lived backend token still yields a long-lived session.
func (s *Store) Save(ctx context.Context, token string, phoneNumber string, expiresIn time.Duration) error {
	if expiresIn < s.minTTL {
		expiresIn = s.minTTL
	}
	expiresAt := time.Now().Add(expiresIn)

	err := s.store.SetMulti(ctx, map[string]string{
		keyToken:  token,
		keyPhone:  phoneNumber,
		keyExpiry: strconv.FormatInt(expiresAt.UnixMilli(), 10),
	})
	if err != nil {
		return fmt.Errorf("persist session: %w", err)
	}

	s.log.Debug().
		Str("phone", phoneNumber).
		Time("expires_at", expiresAt).
		Msg("session saved")
	return nil
}

// Load returns the current session, or nil when none exists. An expired
// record is cleared on read, so expiry needs no background timer to hold.
func (s *Store) Load(ctx context.Context) (*Session, error) {
	values, present, err := s.store.GetMulti(ctx, keyToken, keyPhone, keyExpiry)
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}
	for _, ok := range present {
		if !ok {
			return nil, nil
		}
	}

	expiryMillis, err := strconv.ParseInt(values[2], 10, 64)
	if err != nil {
		s.log.Warn().Str("session_expiry", values[2]).Msg("unparseable session expiry, clearing")
		if clearErr := s.Clear(ctx); clearErr != nil {
			return nil, clearErr
		}
		return nil, nil
	}

	expiresAt := time.UnixMilli(expiryMillis)
	if !time.Now().Before(expiresAt) {
		s.log.Info().Time("expired_at", expiresAt).Msg("session expired")
		if err := s.Clear(ctx); err != nil {
			return nil, err
		}
		return nil, nil
	}

	return &Session{
		Token:       values[0],
		PhoneNumber: values[1],
		ExpiresAt:   expiresAt,
	}, nil
}

// Clear removes the persisted session. Clearing an absent session is a no-op.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.store.Delete(ctx, keyToken, keyPhone, keyExpiry); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

func (s *Store) IsAuthenticated(ctx context.Context) (bool, error) {
	sess, err := s.Load(ctx)
	if err != nil {
		return false, err
	}
	return sess != nil, nil
}

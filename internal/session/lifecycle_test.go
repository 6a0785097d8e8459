package session

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"activeclub/gateway/internal/config"
)

func newTestLifecycle(t *testing.T, store *Store) *Lifecycle {
	t.Helper()
	return NewLifecycle(store, config.SessionConfig{
		MinTTL:             720 * time.Hour,
		RevalidateInterval: 5 * time.Minute,
	}, zerolog.Nop())
}

func TestRevalidateTransitions(t *testing.T) {
	store, _ := newTestStore(t)
	lc := newTestLifecycle(t, store)
	ctx := context.Background()

	require.Equal(t, StateUnauthenticated, lc.State())

	require.NoError(t, store.Save(ctx, "tok", "+97455512345", time.Hour))
	lc.Revalidate(ctx)
	require.Equal(t, StateAuthenticated, lc.State())

	// Session disappears (expiry, external clear): next revalidation drops
	// back to unauthenticated and notifies.
	var reasons []string
	lc.OnInvalidated(func(reason string) { reasons = append(reasons, reason) })

	require.NoError(t, store.Clear(ctx))
	lc.Revalidate(ctx)
	require.Equal(t, StateUnauthenticated, lc.State())
	require.Equal(t, []string{"expired"}, reasons)
}

func TestRevalidateIsIdempotent(t *testing.T) {
	store, _ := newTestStore(t)
	lc := newTestLifecycle(t, store)
	ctx := context.Background()

	var notified int
	lc.OnInvalidated(func(string) { notified++ })

	// Already unauthenticated: repeated triggers change nothing and never
	// re-notify.
	lc.Revalidate(ctx)
	lc.Foreground(ctx)
	require.Equal(t, StateUnauthenticated, lc.State())
	require.Zero(t, notified)
}

func TestInvalidateClearsSession(t *testing.T) {
	store, _ := newTestStore(t)
	lc := newTestLifecycle(t, store)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "tok", "+97455512345", time.Hour))
	lc.MarkAuthenticated()

	var reasons []string
	lc.OnInvalidated(func(reason string) { reasons = append(reasons, reason) })

	lc.Invalidate(ctx, "logout")
	require.Equal(t, StateUnauthenticated, lc.State())
	require.Equal(t, []string{"logout"}, reasons)

	sess, err := store.Load(ctx)
	require.NoError(t, err)
	require.Nil(t, sess)
}

func TestForegroundPicksUpFreshLogin(t *testing.T) {
	store, _ := newTestStore(t)
	lc := newTestLifecycle(t, store)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "tok", "+97455512345", time.Hour))
	lc.Foreground(ctx)
	require.Equal(t, StateAuthenticated, lc.State())
}

package api

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/rent-ledger/ledger"
)

func TestScheduler_RunNow_BackfillsRoster(t *testing.T) {
	h := newTestHandler(t, marchClock())
	createTenantHTTP(t, NewRouter(h), "A. Sharma", "10000", "2024-01-01")

	s := NewBackfillScheduler(h.Engine, 0, slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.RunNow()

	charges, _, err := h.Store.ListEvents(context.Background(), ledger.TenantID(1))
	require.NoError(t, err)
	assert.Len(t, charges, 3, "January through March charged by the run")
}

func TestScheduler_DisabledInterval_StartIsNoOp(t *testing.T) {
	h := newTestHandler(t, marchClock())
	s := NewBackfillScheduler(h.Engine, 0, slog.New(slog.NewTextHandler(io.Discard, nil)))

	s.Start()
	s.Stop() // must not panic or block on a scheduler that never ran
}

func TestScheduler_StartAndStop_Idempotent(t *testing.T) {
	h := newTestHandler(t, marchClock())
	createTenantHTTP(t, NewRouter(h), "A. Sharma", "10000", "2024-01-01")

	s := NewBackfillScheduler(h.Engine, time.Hour, slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.Start()
	s.Start() // second start must not spawn a second loop
	s.Stop()
	s.Stop() // second stop must not close the channel twice

	// The immediate run on start already brought charges current.
	charges, _, err := h.Store.ListEvents(context.Background(), ledger.TenantID(1))
	require.NoError(t, err)
	assert.Len(t, charges, 3)
}

package schedule

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigService(t *testing.T) {
	t.Run("EmptySpecConstrainsNothing", func(t *testing.T) {
		svc, err := NewConfigService("")
		require.NoError(t, err)

		end, ok, err := svc.ActiveWindowEnd(context.Background(), "tenant", time.Now())
		require.NoError(t, err)
		assert.True(t, ok)
		assert.True(t, end.IsZero())
	})

	t.Run("InvalidEntries", func(t *testing.T) {
		invalid := []string{
			"tenant",
			"tenant=06:00",
			"tenant=25:00-26:00",
			"tenant=09:00-08:00",
			"tenant=junk-10:00",
		}
		for _, spec := range invalid {
			_, err := NewConfigService(spec)
			assert.Error(t, err, "spec %q should be rejected", spec)
		}
	})
}

func TestActiveWindowEnd(t *testing.T) {
	ctx := context.Background()
	svc, err := NewConfigService("tenant=06:00-23:00;maintenance=07:30-19:00")
	require.NoError(t, err)

	day := func(hour, minute int) time.Time {
		return time.Date(2026, time.August, 24, hour, minute, 0, 0, time.UTC)
	}

	t.Run("InsideWindow", func(t *testing.T) {
		end, ok, err := svc.ActiveWindowEnd(ctx, "tenant", day(10, 0))
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, day(23, 0), end)
	})

	t.Run("BeforeWindow", func(t *testing.T) {
		_, ok, err := svc.ActiveWindowEnd(ctx, "tenant", day(5, 59))
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("AtWindowEndIsOutside", func(t *testing.T) {
		_, ok, err := svc.ActiveWindowEnd(ctx, "tenant", day(23, 0))
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("RoleMatchIsCaseInsensitive", func(t *testing.T) {
		end, ok, err := svc.ActiveWindowEnd(ctx, "MAINTENANCE", day(8, 0))
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, day(19, 0), end)
	})

	t.Run("UnlistedRoleIsUnconstrained", func(t *testing.T) {
		end, ok, err := svc.ActiveWindowEnd(ctx, "admin", day(3, 0))
		require.NoError(t, err)
		assert.True(t, ok)
		assert.True(t, end.IsZero())
	})
}

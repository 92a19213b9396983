package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasLevel(t *testing.T) {
	// Every ordered pair must agree with index comparison.
	for i, current := range levelOrder {
		for j, required := range levelOrder {
			assert.Equal(t, i >= j, HasLevel(current, required),
				"HasLevel(%s, %s)", current, required)
		}
	}

	t.Run("unknown levels never satisfy", func(t *testing.T) {
		assert.False(t, HasLevel("platinum", LevelNone))
		assert.False(t, HasLevel(LevelFull, "platinum"))
	})
}

func TestDefaultFlags(t *testing.T) {
	tests := []struct {
		level Level
		want  map[Flag]bool
	}{
		{LevelNone, map[Flag]bool{FlagEssential: true, FlagFunctional: false, FlagAnalytics: false, FlagPerformance: false, FlagMarketing: false, FlagPersonalization: false, FlagThirdParty: false}},
		{LevelEssential, map[Flag]bool{FlagEssential: true, FlagFunctional: false, FlagAnalytics: false, FlagPerformance: false, FlagMarketing: false, FlagPersonalization: false, FlagThirdParty: false}},
		{LevelFunctional, map[Flag]bool{FlagEssential: true, FlagFunctional: true, FlagAnalytics: false, FlagPerformance: false, FlagMarketing: false, FlagPersonalization: false, FlagThirdParty: false}},
		{LevelAnalytics, map[Flag]bool{FlagEssential: true, FlagFunctional: true, FlagAnalytics: true, FlagPerformance: true, FlagMarketing: false, FlagPersonalization: false, FlagThirdParty: false}},
		{LevelMarketing, map[Flag]bool{FlagEssential: true, FlagFunctional: true, FlagAnalytics: true, FlagPerformance: true, FlagMarketing: true, FlagPersonalization: true, FlagThirdParty: false}},
		{LevelFull, map[Flag]bool{FlagEssential: true, FlagFunctional: true, FlagAnalytics: true, FlagPerformance: true, FlagMarketing: true, FlagPersonalization: true, FlagThirdParty: true}},
	}
	for _, tt := range tests {
		t.Run(string(tt.level), func(t *testing.T) {
			assert.Equal(t, tt.want, DefaultFlags(tt.level))
		})
	}
}

func TestRecordApply(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("defaults follow the level", func(t *testing.T) {
		r := NewRecord(now, "1.0", 365*24*time.Hour)
		require.NoError(t, r.Apply(LevelAnalytics, nil, MethodBannerAccept, now.Add(time.Hour)))
		assert.Equal(t, LevelAnalytics, r.Level)
		assert.True(t, r.Granular[FlagAnalytics])
		assert.False(t, r.Granular[FlagMarketing])
		assert.Equal(t, now.Add(time.Hour), r.LastUpdated)
	})

	t.Run("overrides replace only named flags", func(t *testing.T) {
		r := NewRecord(now, "1.0", 0)
		overrides := map[Flag]bool{FlagPerformance: false}
		require.NoError(t, r.Apply(LevelAnalytics, overrides, MethodSettingsUpdate, now))
		assert.False(t, r.Granular[FlagPerformance])
		assert.True(t, r.Granular[FlagAnalytics], "unnamed flags keep level defaults")
	})

	t.Run("essential cannot be overridden to false", func(t *testing.T) {
		r := NewRecord(now, "1.0", 0)
		for _, level := range levelOrder {
			require.NoError(t, r.Apply(level, map[Flag]bool{FlagEssential: false}, MethodSettingsUpdate, now))
			assert.True(t, r.Granular[FlagEssential], "level %s", level)
		}
	})

	t.Run("unknown level rejected", func(t *testing.T) {
		r := NewRecord(now, "1.0", 0)
		assert.Error(t, r.Apply("platinum", nil, MethodBannerAccept, now))
	})

	t.Run("unknown flag rejected", func(t *testing.T) {
		r := NewRecord(now, "1.0", 0)
		assert.Error(t, r.Apply(LevelFull, map[Flag]bool{"telepathy": true}, MethodBannerAccept, now))
	})

	t.Run("update after withdrawal reactivates", func(t *testing.T) {
		r := NewRecord(now, "1.0", 0)
		r.Withdraw(now.Add(time.Hour))
		require.NotNil(t, r.WithdrawnAt)
		require.NoError(t, r.Apply(LevelFunctional, nil, MethodBannerAccept, now.Add(2*time.Hour)))
		assert.Nil(t, r.WithdrawnAt)
		assert.Equal(t, LevelFunctional, r.Level)
	})
}

func TestRecordWithdraw(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	r := NewRecord(now, "1.0", 365*24*time.Hour)
	require.NoError(t, r.Apply(LevelFull, nil, MethodBannerAccept, now))

	withdrawnAt := now.Add(30 * 24 * time.Hour)
	r.Withdraw(withdrawnAt)

	assert.Equal(t, LevelNone, r.Level)
	assert.Equal(t, MethodGDPRRequest, r.Method)
	require.NotNil(t, r.WithdrawnAt)
	assert.Equal(t, withdrawnAt, *r.WithdrawnAt)
	assert.True(t, r.Granular[FlagEssential])
	for _, flag := range AllFlags {
		if flag == FlagEssential {
			continue
		}
		assert.False(t, r.Granular[flag], "flag %s must be cleared", flag)
	}
}

func TestRecordExpiry(t *testing.T) {
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	r := NewRecord(created, "1.0", 365*24*time.Hour)

	assert.False(t, r.IsExpired(created.Add(364*24*time.Hour)))
	assert.True(t, r.IsExpired(created.Add(365*24*time.Hour)))
}

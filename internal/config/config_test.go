package config

import (
	"testing"
	"time"

	"github.com/liaptui/backend/internal/game"
	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("WIN_SCORE", "")
	t.Setenv("BOT_MIN_DELAY_MS", "")

	cfg := Load()
	assert.Equal(t, 50, cfg.WinScore)
	assert.Equal(t, 20, cfg.MaxRounds)
	assert.Equal(t, 500*time.Millisecond, cfg.BotMinDelay)
	assert.Equal(t, 100, cfg.OfflineQueueSize)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("WIN_SCORE", "30")
	t.Setenv("BOT_MIN_DELAY_MS", "10")
	t.Setenv("BOT_MAX_DELAY_MS", "20")
	t.Setenv("WEAK_HAND_MODE", "total")
	t.Setenv("WEAK_HAND_THRESHOLD", "12")
	t.Setenv("MIGRATE_ON_START", "true")

	cfg := Load()
	assert.True(t, cfg.MigrateOnStart)

	opts := cfg.GameOptions()
	assert.Equal(t, 30, opts.WinScore)
	assert.Equal(t, 10*time.Millisecond, opts.BotMinDelay)
	assert.Equal(t, 20*time.Millisecond, opts.BotMaxDelay)
	assert.Equal(t, game.WeakHandRule{Mode: game.WeakByTotal, Threshold: 12}, opts.WeakHand)
}

func TestGameOptionsFallsBackToStrongestMode(t *testing.T) {
	cfg := &Config{WeakHandMode: "bogus", WeakHandThreshold: 9, WinScore: 50}
	assert.Equal(t, game.WeakByStrongest, cfg.GameOptions().WeakHand.Mode)
}

func TestInvalidIntFallsBack(t *testing.T) {
	t.Setenv("MAX_ROUNDS", "many")
	assert.Equal(t, 20, Load().MaxRounds)
}

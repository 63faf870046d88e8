package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(wd) })
}

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 30, cfg.Timeline.FPS)
	assert.Equal(t, 120, cfg.Timeline.FramesPerCue)
	assert.Equal(t, 120, cfg.Timeline.MinimumFrames)
	assert.Equal(t, 10*time.Minute, cfg.Render.Timeout)
	assert.Equal(t, "tts-1", cfg.OpenAI.SpeechModel)
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("DATABASE_URL", "postgres://db/test")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("CHATSHORTS_TIMELINE_FRAMES_PER_CUE", "90")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres://db/test", cfg.Database.URL)
	assert.Equal(t, "sk-test", cfg.OpenAI.APIKey)
	assert.Equal(t, 90, cfg.Timeline.FramesPerCue)
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	yaml := []byte("timeline:\n  fps: 24\nrender:\n  width: 720\n  height: 1280\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), yaml, 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 24, cfg.Timeline.FPS)
	assert.Equal(t, 720, cfg.Render.Width)
	assert.Equal(t, 1280, cfg.Render.Height)
	assert.Equal(t, 120, cfg.Timeline.FramesPerCue)
}

func TestTimelineOptions(t *testing.T) {
	opts := TimelineConfig{FPS: 24, FramesPerCue: 48, MinimumFrames: 96, FallbackAvatar: "fallback.png"}.Options()

	assert.Equal(t, 24, opts.FPS)
	assert.Equal(t, 48, opts.FramesPerCue)
	assert.Equal(t, 96, opts.MinimumFrames)
	assert.Equal(t, "fallback.png", opts.FallbackImage)
	assert.Nil(t, opts.DefaultAvatars)
}

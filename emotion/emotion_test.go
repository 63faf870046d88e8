package emotion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		raw  string
		want Label
	}{
		{"happy", Happy},
		{"HAPPY", Happy},
		{"  Sad ", Sad},
		{"CUTE", Happy},
		{"sarcastic", Confused},
		{"normal", Neutral},
		{"furious", Angry},
		{"shocked", Surprised},
		{"hyped", Excited},
		{"unknown-garbage", Neutral},
		{"", Neutral},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, Resolve(tt.raw))
		})
	}
}

func TestResolveAlwaysCanonical(t *testing.T) {
	for _, raw := range []string{"x", "Excited!", "ời", "neutral ", "CONFUSED"} {
		assert.True(t, IsCanonical(Resolve(raw)), raw)
	}
}

func TestSynonymsTargetCanon(t *testing.T) {
	for key, l := range synonyms {
		assert.True(t, IsCanonical(l), "synonym %q maps outside the canon", key)
		assert.False(t, IsCanonical(Label(key)), "synonym %q shadows a canonical label", key)
	}
}

func TestResolveAvatarImage(t *testing.T) {
	full := &Avatar{
		ID:         1,
		PreviewURL: "preview.png",
		Images: map[Label]string{
			Neutral: "neutral.png",
			Happy:   "happy.png",
		},
	}

	t.Run("exact match", func(t *testing.T) {
		got := ResolveAvatarImage(full, Happy)
		require.NotNil(t, got)
		assert.Equal(t, "happy.png", *got)
	})

	t.Run("neutral fallback", func(t *testing.T) {
		got := ResolveAvatarImage(full, Angry)
		require.NotNil(t, got)
		assert.Equal(t, "neutral.png", *got)
	})

	t.Run("preview only", func(t *testing.T) {
		previewOnly := &Avatar{ID: 2, PreviewURL: "only.png"}
		for _, l := range All {
			got := ResolveAvatarImage(previewOnly, l)
			require.NotNil(t, got, l)
			assert.Equal(t, "only.png", *got)
		}
	})

	t.Run("no avatar", func(t *testing.T) {
		assert.Nil(t, ResolveAvatarImage(nil, Happy))
	})

	t.Run("result is a copy", func(t *testing.T) {
		got := ResolveAvatarImage(full, Happy)
		*got = "mutated.png"
		assert.Equal(t, "happy.png", full.Images[Happy])
	})
}

package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/drewmudry/chatshorts-api/internal/platform/platformtest"
	"github.com/drewmudry/chatshorts-api/models"
	"github.com/drewmudry/chatshorts-api/timeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const fixtureYAML = `
speakers:
  A: {avatar_id: 1, voice_id: nova}
  B: {voice_id: onyx}
avatars:
  - id: 1
    name: Mia
    preview_url: mia.png
    images:
      neutral: mia-neutral.png
      happy: mia-happy.png
lines:
  - {speaker: A, text: "Hey"}
  - {speaker: B, text: "Hi"}
  - {speaker: A, text: "Great news", emotion: Cute}
`

func previewOf(t *testing.T, src string, frames []int) previewOutput {
	f, err := ParseFixture([]byte(src))
	require.NoError(t, err)

	var buf bytes.Buffer
	opts := timeline.Options{FramesPerCue: 120, MinimumFrames: 120, FPS: 30, FallbackImage: "global.png"}
	require.NoError(t, Preview(context.Background(), f, opts, frames, &buf))

	var out previewOutput
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &out))
	return out
}

func TestPreviewPrintsEveryCue(t *testing.T) {
	out := previewOf(t, fixtureYAML, nil)

	assert.Equal(t, 360, out.TotalFrames)
	assert.Equal(t, 30, out.FPS)
	assert.Equal(t, 12.0, out.Seconds)
	require.Len(t, out.Frames, 3)

	assert.Equal(t, []int{0, 120, 240}, []int{out.Frames[0].Frame, out.Frames[1].Frame, out.Frames[2].Frame})
	assert.Equal(t, "mia-neutral.png", out.Frames[0].Avatars["A"])
	assert.Equal(t, "global.png", out.Frames[1].Avatars["B"])
	assert.Equal(t, "happy", out.Frames[2].Emotion)
	assert.Equal(t, "mia-happy.png", out.Frames[2].Avatars["A"])
	for _, f := range out.Frames {
		assert.Contains(t, f.Audio, "none")
	}
}

func TestPreviewSelectedFrames(t *testing.T) {
	out := previewOf(t, fixtureYAML, []int{-5, 130, 10000})

	require.Len(t, out.Frames, 3)
	assert.Equal(t, 0, out.Frames[0].Frame)
	assert.Equal(t, 1, out.Frames[1].Cue)
	assert.Equal(t, 359, out.Frames[2].Frame)
	assert.Equal(t, 2, out.Frames[2].Cue)
}

func TestPreviewFromChatText(t *testing.T) {
	out := previewOf(t, `
chat_text: |
  Sam: did you see that?!
  Jo: yes
speakers:
  A: {voice_id: nova}
  B: {voice_id: onyx}
`, nil)

	require.Len(t, out.Frames, 2)
	assert.Equal(t, "surprised", out.Frames[0].Emotion)
	assert.Equal(t, "B", out.Frames[1].Speaker)
}

func TestPreviewRejectsUnknownAvatarEmotion(t *testing.T) {
	f, err := ParseFixture([]byte(`
avatars:
  - {id: 1, name: X, preview_url: x.png, images: {grumpy: x-grumpy.png}}
lines:
  - {speaker: A, text: hi}
speakers:
  A: {voice_id: nova}
`))
	require.NoError(t, err)
	assert.Error(t, Preview(context.Background(), f, timeline.Options{}, nil, &bytes.Buffer{}))
}

func TestSeedAvatars(t *testing.T) {
	db := platformtest.NewDB(t)

	created, err := SeedAvatars(db, []byte(`
avatars:
  - name: Mia
    preview_url: mia.png
    images: {neutral: mia-neutral.png, sad: mia-sad.png}
  - name: Leo
    preview_url: leo.png
`))
	require.NoError(t, err)
	require.Len(t, created, 2)
	assert.Len(t, created[0].Emotions, 2)

	var count int64
	require.NoError(t, db.Model(&models.AvatarEmotion{}).Count(&count).Error)
	assert.EqualValues(t, 2, count)
}

func TestSeedAvatarsIsAllOrNothing(t *testing.T) {
	db := platformtest.NewDB(t)

	_, err := SeedAvatars(db, []byte(`
avatars:
  - {name: Mia, preview_url: mia.png}
  - {name: Bad, preview_url: bad.png, images: {grumpy: bad.png}}
`))
	require.Error(t, err)

	var count int64
	require.NoError(t, db.Model(&models.Avatar{}).Count(&count).Error)
	assert.Zero(t, count)
}

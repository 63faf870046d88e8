package conversation

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/drewmudry/chatshorts-api/emotion"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSynth struct {
	calls  []string
	failOn map[string]bool
}

func (f *fakeSynth) Synthesize(ctx context.Context, text, voiceID string) ([]byte, error) {
	f.calls = append(f.calls, text)
	if f.failOn[text] {
		return nil, errors.New("upstream 500")
	}
	return []byte("mp3:" + voiceID + ":" + text), nil
}

type memStore struct {
	keys []string
}

func (m *memStore) Store(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	m.keys = append(m.keys, key)
	return fmt.Sprintf("https://cdn.test/%s", key), nil
}

type memCatalog map[uint]emotion.Avatar

func (m memCatalog) GetAvatar(ctx context.Context, id uint) (*emotion.Avatar, error) {
	a, ok := m[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (m memCatalog) ListAvatars(ctx context.Context) ([]emotion.Avatar, error) {
	var out []emotion.Avatar
	for _, a := range m {
		out = append(out, a)
	}
	return out, nil
}

func uintPtr(v uint) *uint { return &v }

func TestEnrichPreservesOrderAndLength(t *testing.T) {
	synth := &fakeSynth{failOn: map[string]bool{"second": true}}
	store := &memStore{}
	catalog := memCatalog{
		7: {ID: 7, PreviewURL: "a-preview.png", Images: map[emotion.Label]string{
			emotion.Neutral: "a-neutral.png",
			emotion.Happy:   "a-happy.png",
		}},
	}
	e := NewEnricher(synth, store, catalog)

	lines := []Line{
		{Speaker: RoleA, Text: "first", Emotion: "CUTE"},
		{Speaker: RoleB, Text: "second", Emotion: "angry"},
		{Speaker: RoleA, Text: "third", Emotion: "whatever"},
	}
	assign := Assignment{
		RoleA: {AvatarID: uintPtr(7), VoiceID: "nova"},
		RoleB: {VoiceID: "onyx"},
	}

	cues, err := e.Enrich(context.Background(), lines, assign)
	require.NoError(t, err)
	require.Len(t, cues, len(lines))

	assert.Equal(t, []string{"first", "second", "third"}, synth.calls)
	assert.Len(t, store.keys, 2, "one stored asset per successful synthesis")

	for i, cue := range cues {
		assert.Equal(t, i, cue.Index)
		assert.Equal(t, lines[i].Speaker, cue.Speaker)
	}

	assert.Equal(t, emotion.Happy, cues[0].Emotion)
	require.NotNil(t, cues[0].AvatarImage)
	assert.Equal(t, "a-happy.png", *cues[0].AvatarImage)
	assert.True(t, cues[0].HasAudio())

	assert.Nil(t, cues[1].AudioURL)
	assert.Contains(t, cues[1].AudioError, "upstream 500")
	assert.Nil(t, cues[1].AvatarImage, "speaker B has no avatar")
	assert.Equal(t, emotion.Angry, cues[1].Emotion)

	assert.Equal(t, emotion.Neutral, cues[2].Emotion)
	require.NotNil(t, cues[2].AvatarImage)
	assert.Equal(t, "a-neutral.png", *cues[2].AvatarImage)
}

func TestEnrichValidationFailsBeforeSynthesis(t *testing.T) {
	tests := []struct {
		name   string
		lines  []Line
		assign Assignment
	}{
		{"empty", nil, Assignment{RoleA: {VoiceID: "nova"}}},
		{"blank text", []Line{{Speaker: RoleA, Text: "  "}}, Assignment{RoleA: {VoiceID: "nova"}}},
		{"unknown speaker", []Line{{Speaker: "C", Text: "hi"}}, Assignment{RoleA: {VoiceID: "nova"}}},
		{"missing voice", []Line{{Speaker: RoleB, Text: "hi"}}, Assignment{RoleA: {VoiceID: "nova"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			synth := &fakeSynth{}
			e := NewEnricher(synth, &memStore{}, memCatalog{})

			cues, err := e.Enrich(context.Background(), tt.lines, tt.assign)
			require.Error(t, err)
			assert.Nil(t, cues)

			var verr *ValidationError
			assert.True(t, errors.As(err, &verr))
			assert.Empty(t, synth.calls)
		})
	}
}

func TestEnrichMissingAvatarIsNotAnError(t *testing.T) {
	e := NewEnricher(&fakeSynth{}, &memStore{}, memCatalog{})
	cues, err := e.Enrich(context.Background(),
		[]Line{{Speaker: RoleA, Text: "hello"}},
		Assignment{RoleA: {AvatarID: uintPtr(99), VoiceID: "nova"}},
	)
	require.NoError(t, err)
	require.Len(t, cues, 1)
	assert.Nil(t, cues[0].AvatarImage)
}

type brokenCatalog struct{ memCatalog }

func (brokenCatalog) GetAvatar(ctx context.Context, id uint) (*emotion.Avatar, error) {
	return nil, errors.New("connection refused")
}

func TestEnrichCatalogFailureAborts(t *testing.T) {
	synth := &fakeSynth{}
	e := NewEnricher(synth, &memStore{}, brokenCatalog{})
	_, err := e.Enrich(context.Background(),
		[]Line{{Speaker: RoleA, Text: "hello"}},
		Assignment{RoleA: {AvatarID: uintPtr(1), VoiceID: "nova"}},
	)
	require.Error(t, err)
	assert.Empty(t, synth.calls)
}

func TestEnrichEveryLineFails(t *testing.T) {
	synth := &fakeSynth{failOn: map[string]bool{"a": true, "b": true}}
	e := NewEnricher(synth, &memStore{}, nil)
	cues, err := e.Enrich(context.Background(),
		[]Line{{Speaker: RoleA, Text: "a"}, {Speaker: RoleB, Text: "b"}},
		Assignment{RoleA: {VoiceID: "nova"}, RoleB: {VoiceID: "onyx"}},
	)
	require.NoError(t, err)
	require.Len(t, cues, 2)
	for _, cue := range cues {
		assert.False(t, cue.HasAudio())
		assert.NotEmpty(t, cue.AudioError)
	}
}

package conversation

import (
	"context"

	"github.com/drewmudry/chatshorts-api/emotion"
)

// Role is one of the two abstract participants of a conversation.
type Role string

const (
	RoleA Role = "A"
	RoleB Role = "B"
)

// Roles lists both speaker roles in display order.
var Roles = []Role{RoleA, RoleB}

// Valid reports whether r is RoleA or RoleB.
func (r Role) Valid() bool {
	return r == RoleA || r == RoleB
}

// Line is a raw dialogue line as produced by upstream analysis.
type Line struct {
	Speaker Role   `json:"speaker" yaml:"speaker"`
	Text    string `json:"text" yaml:"text"`
	Emotion string `json:"emotion,omitempty" yaml:"emotion,omitempty"`
}

// Voice is the per-role avatar and voice assignment for one conversation.
type Voice struct {
	AvatarID *uint  `json:"avatar_id,omitempty" yaml:"avatar_id,omitempty"`
	VoiceID  string `json:"voice_id" yaml:"voice_id"`
}

// Assignment maps each role to its avatar and voice.
type Assignment map[Role]Voice

// Cue is one dialogue line after audio, emotion and avatar resolution.
// Cues are never modified after Enrich returns them.
type Cue struct {
	Index            int           `json:"index"`
	Speaker          Role          `json:"speaker"`
	Text             string        `json:"text"`
	RequestedEmotion string        `json:"requested_emotion,omitempty"`
	Emotion          emotion.Label `json:"emotion"`
	AudioURL         *string       `json:"audio_url"`
	AudioError       string        `json:"audio_error,omitempty"`
	AvatarImage      *string       `json:"avatar_image"`
}

// HasAudio reports whether synthesis succeeded for the cue.
func (c Cue) HasAudio() bool {
	return c.AudioURL != nil && *c.AudioURL != ""
}

// Synthesizer turns a line of text into encoded audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, voiceID string) ([]byte, error)
}

// AssetStore persists generated media and returns a public URL for it.
type AssetStore interface {
	Store(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// AvatarCatalog is the read-only avatar lookup used during enrichment.
// GetAvatar returns (nil, nil) when the avatar does not exist.
type AvatarCatalog interface {
	GetAvatar(ctx context.Context, id uint) (*emotion.Avatar, error)
	ListAvatars(ctx context.Context) ([]emotion.Avatar, error)
}

package models

import (
	"time"

	"github.com/drewmudry/chatshorts-api/conversation"
	"github.com/drewmudry/chatshorts-api/emotion"
)

type GenerationCue struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	GenerationID     uint      `gorm:"not null;uniqueIndex:idx_generation_sequence" json:"generation_id"`
	Sequence         int       `gorm:"not null;uniqueIndex:idx_generation_sequence" json:"sequence"`
	Speaker          string    `gorm:"size:1;not null" json:"speaker"`
	Text             string    `gorm:"type:text;not null" json:"text"`
	RequestedEmotion string    `gorm:"size:64" json:"requested_emotion,omitempty"`
	Emotion          string    `gorm:"size:32;not null" json:"emotion"`
	AudioURL         *string   `json:"audio_url"`
	AudioError       string    `gorm:"type:text" json:"audio_error,omitempty"`
	AvatarImage      *string   `json:"avatar_image"`
	CreatedAt        time.Time `json:"created_at"`
}

func (GenerationCue) TableName() string {
	return "generation_cues"
}

// NewGenerationCue converts an enriched cue into its row.
func NewGenerationCue(generationID uint, c conversation.Cue) GenerationCue {
	return GenerationCue{
		GenerationID:     generationID,
		Sequence:         c.Index,
		Speaker:          string(c.Speaker),
		Text:             c.Text,
		RequestedEmotion: c.RequestedEmotion,
		Emotion:          string(c.Emotion),
		AudioURL:         c.AudioURL,
		AudioError:       c.AudioError,
		AvatarImage:      c.AvatarImage,
	}
}

// ToCue converts the row back into the cue the timeline is built from.
func (g GenerationCue) ToCue() conversation.Cue {
	return conversation.Cue{
		Index:            g.Sequence,
		Speaker:          conversation.Role(g.Speaker),
		Text:             g.Text,
		RequestedEmotion: g.RequestedEmotion,
		Emotion:          emotion.Label(g.Emotion),
		AudioURL:         g.AudioURL,
		AudioError:       g.AudioError,
		AvatarImage:      g.AvatarImage,
	}
}

// CuesFrom converts rows ordered by Sequence into cues.
func CuesFrom(rows []GenerationCue) []conversation.Cue {
	cues := make([]conversation.Cue, len(rows))
	for i, r := range rows {
		cues[i] = r.ToCue()
	}
	return cues
}

package models

import (
	"time"

	"github.com/drewmudry/chatshorts-api/emotion"
)

type Avatar struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	Name       string          `gorm:"not null" json:"name"`
	PreviewURL string          `gorm:"not null" json:"preview_url"`
	Emotions   []AvatarEmotion `gorm:"constraint:OnDelete:CASCADE" json:"emotions"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

func (Avatar) TableName() string {
	return "avatars"
}

// AvatarEmotion is one emotion image of an avatar. An avatar has at most
// one image per emotion.
type AvatarEmotion struct {
	ID       uint          `gorm:"primaryKey" json:"id"`
	AvatarID uint          `gorm:"not null;uniqueIndex:idx_avatar_emotion" json:"avatar_id"`
	Emotion  emotion.Label `gorm:"size:32;not null;uniqueIndex:idx_avatar_emotion" json:"emotion"`
	ImageURL string        `gorm:"not null" json:"image_url"`
}

func (AvatarEmotion) TableName() string {
	return "avatar_emotions"
}

// ToDomain converts the row into the lookup form used for image resolution.
func (a *Avatar) ToDomain() *emotion.Avatar {
	images := make(map[emotion.Label]string, len(a.Emotions))
	for _, e := range a.Emotions {
		images[e.Emotion] = e.ImageURL
	}
	return &emotion.Avatar{
		ID:         a.ID,
		Name:       a.Name,
		PreviewURL: a.PreviewURL,
		Images:     images,
	}
}

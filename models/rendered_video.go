package models

import "time"

// RenderedVideo is written once per completed render and never updated.
type RenderedVideo struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	GenerationID uint      `gorm:"not null;index" json:"generation_id"`
	URL          string    `gorm:"not null" json:"url"`
	TotalFrames  int       `json:"total_frames"`
	FPS          int       `json:"fps"`
	CreatedAt    time.Time `json:"created_at"`
}

func (RenderedVideo) TableName() string {
	return "rendered_videos"
}

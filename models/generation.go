package models

import (
	"time"

	"github.com/drewmudry/chatshorts-api/conversation"
)

// Generation statuses, in pipeline order.
const (
	StatusPending          = "pending"
	StatusProcessingEnrich = "processing_enrich"
	StatusPendingRender    = "pending_render"
	StatusRendering        = "rendering"
	StatusComplete         = "complete"

	StatusFailedValidation = "failed_validation"
	StatusFailedEnrich     = "failed_enrich"
	StatusFailedQueue      = "failed_queue"
	StatusFailedRender     = "failed_render"
	StatusFailedStale      = "failed_stale"
)

// Generation is one request to turn a conversation into a video.
type Generation struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	UserID uint   `gorm:"not null;index" json:"user_id"`
	Status string `gorm:"size:32;default:'pending';index" json:"status"`

	// Exactly one of ChatText and AnalysisJSON is set at creation.
	ChatText     string `gorm:"type:text" json:"chat_text,omitempty"`
	AnalysisJSON string `gorm:"type:text" json:"-"`

	SpeakerAAvatarID *uint  `json:"speaker_a_avatar_id,omitempty"`
	SpeakerAVoice    string `gorm:"size:64" json:"speaker_a_voice"`
	SpeakerBAvatarID *uint  `json:"speaker_b_avatar_id,omitempty"`
	SpeakerBVoice    string `gorm:"size:64" json:"speaker_b_voice"`

	BackgroundImage string `json:"background_image,omitempty"`
	Error           string `gorm:"type:text" json:"error,omitempty"`

	Cues   []GenerationCue `gorm:"constraint:OnDelete:CASCADE" json:"cues,omitempty"`
	Videos []RenderedVideo `json:"videos,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `gorm:"index" json:"updated_at"`
}

func (Generation) TableName() string {
	return "generations"
}

// Assignment returns the per-role avatar and voice assignment.
func (g *Generation) Assignment() conversation.Assignment {
	return conversation.Assignment{
		conversation.RoleA: {AvatarID: g.SpeakerAAvatarID, VoiceID: g.SpeakerAVoice},
		conversation.RoleB: {AvatarID: g.SpeakerBAvatarID, VoiceID: g.SpeakerBVoice},
	}
}

// SetAssignment stores a per-role assignment on the row.
func (g *Generation) SetAssignment(a conversation.Assignment) {
	g.SpeakerAAvatarID = a[conversation.RoleA].AvatarID
	g.SpeakerAVoice = a[conversation.RoleA].VoiceID
	g.SpeakerBAvatarID = a[conversation.RoleB].AvatarID
	g.SpeakerBVoice = a[conversation.RoleB].VoiceID
}

package render

import (
	"context"
	"fmt"

	"github.com/drewmudry/chatshorts-api/conversation"
)

// Props are the inputs a render needs: the finalized cues plus static
// assets. Encoding details stay behind the Renderer.
type Props struct {
	Cues                  []conversation.Cue           `json:"cues"`
	SpeakerDefaultAvatars map[conversation.Role]string `json:"speaker_default_avatars"`
	BackgroundImage       string                       `json:"background_image"`
}

// Renderer materializes a composition into a video and returns where the
// artifact can be fetched. Failures are *RenderError.
type Renderer interface {
	Render(ctx context.Context, compositionID string, props Props) (string, error)
}

// RenderError is a failed render: encoding, codec or timeout.
type RenderError struct {
	CompositionID string
	Op            string
	Err           error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render %s: %s: %v", e.CompositionID, e.Op, e.Err)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

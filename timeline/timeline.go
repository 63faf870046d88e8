// Package timeline maps an ordered cue list onto video frames.
//
// A Timeline is built once and never modified, so any number of goroutines
// may query it for arbitrary frames (preview scrubbing) without locking.
package timeline

import (
	"github.com/drewmudry/chatshorts-api/conversation"
	"github.com/drewmudry/chatshorts-api/emotion"
)

const (
	DefaultFramesPerCue  = 120
	DefaultMinimumFrames = 120
	DefaultFPS           = 30

	// MaxFramesPerCue bounds a cue's slot (about nine hours at 30 fps) so
	// frame counts never overflow.
	MaxFramesPerCue = 1 << 20

	placeholderText = "Waiting for conversation..."
)

// Options controls timeline sizing and the images used when a speaker has
// not shown an avatar yet.
type Options struct {
	FramesPerCue  int
	MinimumFrames int
	FPS           int

	// FallbackImage is shown for a role with no cue image and no default.
	FallbackImage string
	// DefaultAvatars is the static image per role, if one was assigned.
	DefaultAvatars map[conversation.Role]string
}

func (o Options) withDefaults() Options {
	if o.FramesPerCue <= 0 {
		o.FramesPerCue = DefaultFramesPerCue
	}
	if o.FramesPerCue > MaxFramesPerCue {
		o.FramesPerCue = MaxFramesPerCue
	}
	if o.MinimumFrames <= 0 {
		o.MinimumFrames = DefaultMinimumFrames
	}
	if o.FPS <= 0 {
		o.FPS = DefaultFPS
	}
	return o
}

// FrameState is what is on screen at one frame.
type FrameState struct {
	Frame    int                          `json:"frame"`
	CueIndex int                          `json:"cue_index"`
	Cue      conversation.Cue             `json:"cue"`
	Avatars  map[conversation.Role]string `json:"avatars"`
}

// AudioSlot schedules one cue's audio. Slots never overlap; clips longer
// than the slot are cut and shorter ones are padded with silence.
type AudioSlot struct {
	CueIndex       int    `json:"cue_index"`
	StartFrame     int    `json:"start_frame"`
	DurationFrames int    `json:"duration_frames"`
	URL            string `json:"url"`
}

// Segment is one cue's window on the timeline.
type Segment struct {
	CueIndex   int
	StartFrame int
	EndFrame   int // exclusive
	State      FrameState
}

// Frames returns the number of frames in the segment.
func (s Segment) Frames() int {
	return s.EndFrame - s.StartFrame
}

// Timeline is the frame-indexed presentation of a cue list.
type Timeline struct {
	opts  Options
	cues  []conversation.Cue
	total int

	// avatars[i][role] is the image shown for role while cue i is active.
	avatars []map[conversation.Role]string
}

// Build derives a timeline from cues. An empty list is replaced by a single
// placeholder cue so the result is always renderable. The input slice is
// copied and never modified.
func Build(cues []conversation.Cue, opts Options) *Timeline {
	opts = opts.withDefaults()

	own := make([]conversation.Cue, len(cues))
	copy(own, cues)
	if len(own) == 0 {
		own = []conversation.Cue{placeholderCue()}
	}

	total := len(own) * opts.FramesPerCue
	if total < opts.MinimumFrames {
		total = opts.MinimumFrames
	}

	t := &Timeline{
		opts:  opts,
		cues:  own,
		total: total,
	}
	t.avatars = t.buildAvatarTable()
	return t
}

func placeholderCue() conversation.Cue {
	return conversation.Cue{
		Index:   0,
		Speaker: conversation.RoleA,
		Text:    placeholderText,
		Emotion: emotion.Neutral,
	}
}

// buildAvatarTable walks the cues once, carrying each role's most recent
// image forward. A cue's own image is visible from its first frame.
func (t *Timeline) buildAvatarTable() []map[conversation.Role]string {
	current := make(map[conversation.Role]string, len(conversation.Roles))
	for _, role := range conversation.Roles {
		current[role] = t.defaultAvatar(role)
	}

	table := make([]map[conversation.Role]string, len(t.cues))
	for i, cue := range t.cues {
		if cue.AvatarImage != nil && *cue.AvatarImage != "" {
			current[cue.Speaker] = *cue.AvatarImage
		}
		row := make(map[conversation.Role]string, len(current))
		for role, img := range current {
			row[role] = img
		}
		table[i] = row
	}
	return table
}

func (t *Timeline) defaultAvatar(role conversation.Role) string {
	if img := t.opts.DefaultAvatars[role]; img != "" {
		return img
	}
	return t.opts.FallbackImage
}

// TotalFrames is max(MinimumFrames, len(cues)*FramesPerCue).
func (t *Timeline) TotalFrames() int { return t.total }

// FramesPerCue returns the fixed slot width.
func (t *Timeline) FramesPerCue() int { return t.opts.FramesPerCue }

// FPS returns the frame rate the timeline was built for.
func (t *Timeline) FPS() int { return t.opts.FPS }

// DurationSeconds is the total length at the configured frame rate.
func (t *Timeline) DurationSeconds() float64 {
	return float64(t.total) / float64(t.opts.FPS)
}

// Cues returns a copy of the cues the timeline was built from.
func (t *Timeline) Cues() []conversation.Cue {
	out := make([]conversation.Cue, len(t.cues))
	copy(out, t.cues)
	return out
}

// ClampFrame limits f to [0, TotalFrames-1].
func (t *Timeline) ClampFrame(f int) int {
	if f < 0 {
		return 0
	}
	if f >= t.total {
		return t.total - 1
	}
	return f
}

// ActiveCueIndex returns the index of the cue on screen at frame f.
// Out-of-range frames clamp; trailing frames past the last slot stay on the
// last cue.
func (t *Timeline) ActiveCueIndex(f int) int {
	idx := t.ClampFrame(f) / t.opts.FramesPerCue
	if idx >= len(t.cues) {
		idx = len(t.cues) - 1
	}
	return idx
}

// ActiveCue returns the cue on screen at frame f.
func (t *Timeline) ActiveCue(f int) conversation.Cue {
	return t.cues[t.ActiveCueIndex(f)]
}

// AvatarAt returns the image displayed for role at frame f.
func (t *Timeline) AvatarAt(f int, role conversation.Role) string {
	return t.avatars[t.ActiveCueIndex(f)][role]
}

// StateAt computes the full on-screen state for frame f.
func (t *Timeline) StateAt(f int) FrameState {
	return t.stateForCue(t.ClampFrame(f), t.ActiveCueIndex(f))
}

func (t *Timeline) stateForCue(frame, idx int) FrameState {
	row := t.avatars[idx]
	avatars := make(map[conversation.Role]string, len(row))
	for role, img := range row {
		avatars[role] = img
	}
	return FrameState{
		Frame:    frame,
		CueIndex: idx,
		Cue:      t.cues[idx],
		Avatars:  avatars,
	}
}

// AudioSlots lists the audio schedule, one slot per cue that has audio.
func (t *Timeline) AudioSlots() []AudioSlot {
	var slots []AudioSlot
	for i, cue := range t.cues {
		if !cue.HasAudio() {
			continue
		}
		slots = append(slots, AudioSlot{
			CueIndex:       i,
			StartFrame:     i * t.opts.FramesPerCue,
			DurationFrames: t.opts.FramesPerCue,
			URL:            *cue.AudioURL,
		})
	}
	return slots
}

// Segments splits the timeline into one window per cue. The last segment
// absorbs any frames added by the minimum-duration floor.
func (t *Timeline) Segments() []Segment {
	segs := make([]Segment, len(t.cues))
	for i := range t.cues {
		start := i * t.opts.FramesPerCue
		end := start + t.opts.FramesPerCue
		if i == len(t.cues)-1 {
			end = t.total
		}
		segs[i] = Segment{
			CueIndex:   i,
			StartFrame: start,
			EndFrame:   end,
			State:      t.stateForCue(start, i),
		}
	}
	return segs
}

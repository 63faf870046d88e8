package main

import (
	"context"
	"fmt"
	"io"

	"github.com/drewmudry/chatshorts-api/conversation"
	"github.com/drewmudry/chatshorts-api/emotion"
	"github.com/drewmudry/chatshorts-api/pipeline"
	"github.com/drewmudry/chatshorts-api/processing"
	"github.com/drewmudry/chatshorts-api/timeline"
	"gopkg.in/yaml.v3"
)

// Fixture is a self-contained conversation: dialogue, speaker assignment
// and the avatars it references.
type Fixture struct {
	ChatText string                  `yaml:"chat_text"`
	Lines    []conversation.Line     `yaml:"lines"`
	Speakers conversation.Assignment `yaml:"speakers"`
	Avatars  []FixtureAvatar         `yaml:"avatars"`
}

type FixtureAvatar struct {
	ID         uint              `yaml:"id"`
	Name       string            `yaml:"name"`
	PreviewURL string            `yaml:"preview_url"`
	Images     map[string]string `yaml:"images"`
}

func ParseFixture(data []byte) (*Fixture, error) {
	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse fixture: %w", err)
	}
	return &f, nil
}

// fixtureCatalog serves the fixture's inline avatars.
type fixtureCatalog map[uint]emotion.Avatar

func newFixtureCatalog(avatars []FixtureAvatar) (fixtureCatalog, error) {
	c := fixtureCatalog{}
	for _, fa := range avatars {
		a := emotion.Avatar{ID: fa.ID, Name: fa.Name, PreviewURL: fa.PreviewURL, Images: map[emotion.Label]string{}}
		for raw, url := range fa.Images {
			label := emotion.Label(raw)
			if !emotion.IsCanonical(label) {
				return nil, fmt.Errorf("avatar %d: unknown emotion %q", fa.ID, raw)
			}
			a.Images[label] = url
		}
		c[fa.ID] = a
	}
	return c, nil
}

func (c fixtureCatalog) GetAvatar(ctx context.Context, id uint) (*emotion.Avatar, error) {
	a, ok := c[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (c fixtureCatalog) ListAvatars(ctx context.Context) ([]emotion.Avatar, error) {
	out := make([]emotion.Avatar, 0, len(c))
	for _, a := range c {
		out = append(out, a)
	}
	return out, nil
}

// discardStore is never reached in preview; SilentSynthesizer fails first.
type discardStore struct{}

func (discardStore) Store(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	return "", fmt.Errorf("preview does not store assets")
}

type previewFrame struct {
	Frame   int               `yaml:"frame"`
	Cue     int               `yaml:"cue"`
	Speaker string            `yaml:"speaker"`
	Text    string            `yaml:"text"`
	Emotion string            `yaml:"emotion"`
	Audio   string            `yaml:"audio"`
	Avatars map[string]string `yaml:"avatars"`
}

type previewOutput struct {
	TotalFrames int            `yaml:"total_frames"`
	FPS         int            `yaml:"fps"`
	Seconds     float64        `yaml:"duration_seconds"`
	Frames      []previewFrame `yaml:"frames"`
}

// Preview enriches the fixture without speech synthesis and writes the
// requested frame states as YAML. With no frames given, the first frame of
// every cue is printed.
func Preview(ctx context.Context, f *Fixture, opts timeline.Options, frames []int, w io.Writer) error {
	catalog, err := newFixtureCatalog(f.Avatars)
	if err != nil {
		return err
	}
	enricher := conversation.NewEnricher(processing.SilentSynthesizer{}, discardStore{}, catalog)
	p := pipeline.New(processing.StubAnalyzer{}, enricher, catalog, nil)

	lines := f.Lines
	if len(lines) == 0 {
		lines, err = p.Lines(ctx, f.ChatText, nil)
		if err != nil {
			return err
		}
	}

	cues, err := p.Compose(ctx, lines, f.Speakers)
	if err != nil {
		return err
	}
	opts.DefaultAvatars, err = p.DefaultAvatars(ctx, f.Speakers)
	if err != nil {
		return err
	}
	tl := timeline.Build(cues, opts)

	if len(frames) == 0 {
		for _, seg := range tl.Segments() {
			frames = append(frames, seg.StartFrame)
		}
	}

	out := previewOutput{
		TotalFrames: tl.TotalFrames(),
		FPS:         tl.FPS(),
		Seconds:     tl.DurationSeconds(),
	}
	for _, frame := range frames {
		out.Frames = append(out.Frames, newPreviewFrame(tl.StateAt(frame)))
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(out); err != nil {
		return err
	}
	return enc.Close()
}

func newPreviewFrame(s timeline.FrameState) previewFrame {
	pf := previewFrame{
		Frame:   s.Frame,
		Cue:     s.CueIndex,
		Speaker: string(s.Cue.Speaker),
		Text:    s.Cue.Text,
		Emotion: string(s.Cue.Emotion),
		Avatars: map[string]string{},
	}
	switch {
	case s.Cue.HasAudio():
		pf.Audio = *s.Cue.AudioURL
	case s.Cue.AudioError != "":
		pf.Audio = "none (" + s.Cue.AudioError + ")"
	default:
		pf.Audio = "none"
	}
	for role, img := range s.Avatars {
		pf.Avatars[string(role)] = img
	}
	return pf
}

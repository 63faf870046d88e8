// Package pipeline wires analysis, enrichment and rendering into the
// conversation-to-video flow.
package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/drewmudry/chatshorts-api/avatars"
	"github.com/drewmudry/chatshorts-api/conversation"
	"github.com/drewmudry/chatshorts-api/processing"
	"github.com/drewmudry/chatshorts-api/render"
	log "github.com/sirupsen/logrus"
)

type Pipeline struct {
	Analyzer processing.AnalysisProvider
	Enricher *conversation.Enricher
	Catalog  conversation.AvatarCatalog
	Renderer render.Renderer
}

func New(analyzer processing.AnalysisProvider, enricher *conversation.Enricher, catalog conversation.AvatarCatalog, renderer render.Renderer) *Pipeline {
	return &Pipeline{
		Analyzer: analyzer,
		Enricher: enricher,
		Catalog:  catalog,
		Renderer: renderer,
	}
}

// Request is one conversation to turn into a video. Either Analysis or
// ChatText must be set; Analysis wins when both are.
type Request struct {
	CompositionID   string
	ChatText        string
	Analysis        *processing.Analysis
	Assignment      conversation.Assignment
	BackgroundImage string
}

// Result carries whatever was produced, even when rendering failed.
type Result struct {
	Cues     []conversation.Cue `json:"cues"`
	VideoURL string             `json:"video_url,omitempty"`
}

// Lines resolves the request's analysis into validated dialogue lines.
func (p *Pipeline) Lines(ctx context.Context, chatText string, analysis *processing.Analysis) ([]conversation.Line, error) {
	if analysis == nil {
		if strings.TrimSpace(chatText) == "" {
			return nil, conversation.Invalid("either analysis or chat text is required")
		}
		if p.Analyzer == nil {
			return nil, fmt.Errorf("no analysis provider configured")
		}
		a, err := p.Analyzer.Analyze(ctx, chatText)
		if err != nil {
			return nil, err
		}
		analysis = a
	}
	return analysis.Lines()
}

// Compose enriches lines into cues.
func (p *Pipeline) Compose(ctx context.Context, lines []conversation.Line, assign conversation.Assignment) ([]conversation.Cue, error) {
	cues, err := p.Enricher.Enrich(ctx, lines, assign)
	if err != nil {
		return nil, err
	}

	failed := 0
	for _, c := range cues {
		if !c.HasAudio() {
			failed++
		}
	}
	log.Printf("Composed %d cues (%d without audio)", len(cues), failed)
	return cues, nil
}

// DefaultAvatars returns the static image for each role with an assigned
// avatar that exists in the catalog.
func (p *Pipeline) DefaultAvatars(ctx context.Context, assign conversation.Assignment) (map[conversation.Role]string, error) {
	return avatars.RoleDefaults(ctx, p.Catalog, assign)
}

// Render hands finalized cues to the renderer. A *render.RenderError is
// returned unchanged.
func (p *Pipeline) Render(ctx context.Context, compositionID string, cues []conversation.Cue, assign conversation.Assignment, background string) (string, error) {
	defaults, err := p.DefaultAvatars(ctx, assign)
	if err != nil {
		return "", err
	}
	return p.Renderer.Render(ctx, compositionID, render.Props{
		Cues:                  cues,
		SpeakerDefaultAvatars: defaults,
		BackgroundImage:       background,
	})
}

// Run executes the whole flow synchronously. When rendering fails the
// returned Result still holds the enriched cues alongside the error.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Result, error) {
	lines, err := p.Lines(ctx, req.ChatText, req.Analysis)
	if err != nil {
		return nil, err
	}

	cues, err := p.Compose(ctx, lines, req.Assignment)
	if err != nil {
		return nil, err
	}

	result := &Result{Cues: cues}
	url, err := p.Render(ctx, req.CompositionID, cues, req.Assignment, req.BackgroundImage)
	if err != nil {
		return result, err
	}
	result.VideoURL = url
	return result, nil
}

package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/drewmudry/chatshorts-api/conversation"
	"github.com/drewmudry/chatshorts-api/metrics"
	"github.com/drewmudry/chatshorts-api/models"
	"github.com/drewmudry/chatshorts-api/processing"
	"github.com/drewmudry/chatshorts-api/tasks"
	"github.com/drewmudry/chatshorts-api/timeline"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// CompositionID names the rendered artifact of a generation.
func CompositionID(generationID uint) string {
	return fmt.Sprintf("gen-%d", generationID)
}

func (p *Processor) setStatus(g *models.Generation, status, msg string) {
	if err := p.DB.Model(g).Updates(map[string]interface{}{"status": status, "error": msg}).Error; err != nil {
		log.Printf("Error updating status of generation %d to %s: %v", g.ID, status, err)
	}
}

// HandleEnrich processes tasks from QueueGenerationEnrich.
func (p *Processor) HandleEnrich(ctx context.Context, payload string) error {
	var task tasks.EnrichTaskPayload
	if err := json.Unmarshal([]byte(payload), &task); err != nil {
		return err
	}

	logger := log.WithField("generation", task.GenerationID)
	logger.Println("Enriching generation")

	var gen models.Generation
	if err := p.DB.First(&gen, task.GenerationID).Error; err != nil {
		return err
	}
	if gen.Status != models.StatusPending {
		logger.Printf("Skipping generation in status %s", gen.Status)
		return nil
	}

	p.setStatus(&gen, models.StatusProcessingEnrich, "")

	var analysis *processing.Analysis
	if gen.AnalysisJSON != "" {
		analysis = &processing.Analysis{}
		if err := json.Unmarshal([]byte(gen.AnalysisJSON), analysis); err != nil {
			p.setStatus(&gen, models.StatusFailedValidation, "stored analysis is not valid JSON")
			return err
		}
	}

	lines, err := p.Pipeline.Lines(ctx, gen.ChatText, analysis)
	if err == nil {
		var cues []conversation.Cue
		cues, err = p.Pipeline.Compose(ctx, lines, gen.Assignment())
		if err == nil {
			err = p.saveCues(&gen, cues)
		}
	}
	if err != nil {
		var verr *conversation.ValidationError
		if errors.As(err, &verr) {
			p.setStatus(&gen, models.StatusFailedValidation, verr.Error())
		} else {
			p.setStatus(&gen, models.StatusFailedEnrich, err.Error())
		}
		return err
	}

	// ---
	// Chain to the next step: Render
	// ---
	nextTask := tasks.RenderTaskPayload{GenerationID: gen.ID}
	if err := p.Enqueue(ctx, tasks.QueueGenerationRender, nextTask); err != nil {
		p.setStatus(&gen, models.StatusFailedQueue, err.Error())
		return err
	}

	logger.Println("Queued generation for rendering")
	p.setStatus(&gen, models.StatusPendingRender, "")
	return nil
}

// saveCues persists every cue in a single transaction.
func (p *Processor) saveCues(gen *models.Generation, cues []conversation.Cue) error {
	err := p.DB.Transaction(func(tx *gorm.DB) error {
		for _, c := range cues {
			row := models.NewGenerationCue(gen.ID, c)
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save cues: %w", err)
	}

	for _, c := range cues {
		outcome := "ok"
		if !c.HasAudio() {
			outcome = "missing"
		}
		metrics.CuesEnriched.WithLabelValues(outcome).Inc()
	}
	return nil
}

// HandleRender processes tasks from QueueGenerationRender.
func (p *Processor) HandleRender(ctx context.Context, payload string) error {
	var task tasks.RenderTaskPayload
	if err := json.Unmarshal([]byte(payload), &task); err != nil {
		return err
	}
	return p.RenderGeneration(ctx, task.GenerationID)
}

// RenderGeneration renders the stored cues of a generation. On failure the
// generation is marked failed_render, its cues are kept and no completed
// record is written.
func (p *Processor) RenderGeneration(ctx context.Context, generationID uint) error {
	logger := log.WithField("generation", generationID)

	var gen models.Generation
	if err := p.DB.Preload("Cues", func(db *gorm.DB) *gorm.DB {
		return db.Order("sequence")
	}).First(&gen, generationID).Error; err != nil {
		return err
	}

	p.setStatus(&gen, models.StatusRendering, "")
	logger.Printf("Rendering %d cues", len(gen.Cues))

	background := gen.BackgroundImage
	if background == "" {
		background = p.DefaultBackground
	}

	cues := models.CuesFrom(gen.Cues)
	start := time.Now()
	url, err := p.Pipeline.Render(ctx, CompositionID(gen.ID), cues, gen.Assignment(), background)
	metrics.RenderDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.Renders.WithLabelValues("error").Inc()
		p.setStatus(&gen, models.StatusFailedRender, err.Error())
		return err
	}

	tl := timeline.Build(cues, p.Timeline)
	video := models.RenderedVideo{
		GenerationID: gen.ID,
		URL:          url,
		TotalFrames:  tl.TotalFrames(),
		FPS:          tl.FPS(),
	}
	if err := p.DB.Create(&video).Error; err != nil {
		metrics.Renders.WithLabelValues("error").Inc()
		p.setStatus(&gen, models.StatusFailedRender, err.Error())
		return err
	}

	metrics.Renders.WithLabelValues("ok").Inc()
	p.setStatus(&gen, models.StatusComplete, "")
	logger.Printf("Completed generation: %s", url)
	return nil
}

// Package app wires the generation pipeline from configuration. It is shared
// by the worker and the CLI.
package app

import (
	"github.com/drewmudry/chatshorts-api/avatars"
	"github.com/drewmudry/chatshorts-api/config"
	"github.com/drewmudry/chatshorts-api/conversation"
	"github.com/drewmudry/chatshorts-api/pipeline"
	"github.com/drewmudry/chatshorts-api/processing"
	"github.com/drewmudry/chatshorts-api/render"
	"github.com/drewmudry/chatshorts-api/storage"
	"github.com/drewmudry/chatshorts-api/worker"
	"github.com/go-redis/redis/v8"
	"github.com/openai/openai-go/v3/option"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Providers returns the analysis provider and synthesizer for cfg. Without
// an API key both fall back to their offline stand-ins.
func Providers(cfg config.OpenAIConfig) (processing.AnalysisProvider, conversation.Synthesizer) {
	if cfg.APIKey == "" {
		log.Warn("OPENAI_API_KEY not set, using stub analysis and silent speech")
		return processing.StubAnalyzer{}, processing.SilentSynthesizer{}
	}

	var opts []option.RequestOption
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}
	return processing.NewOpenAIAnalyzer(cfg.APIKey, cfg.ChatModel, opts...),
		processing.NewOpenAISynthesizer(cfg.APIKey, cfg.SpeechModel, cfg.DefaultVoice, opts...)
}

// NewPipeline builds the full enrich and render pipeline backed by db.
func NewPipeline(cfg *config.Config, db *gorm.DB) (*pipeline.Pipeline, error) {
	store, err := storage.NewLocalStore(cfg.Storage.Dir, cfg.Storage.PublicURL)
	if err != nil {
		return nil, err
	}

	analyzer, synth := Providers(cfg.OpenAI)
	catalog := avatars.NewCatalog(db)
	renderer := render.NewFFmpegRenderer(
		cfg.Render.FFmpegPath,
		cfg.Render.Width,
		cfg.Render.Height,
		cfg.Render.Timeout,
		cfg.Render.WorkDir,
		cfg.Timeline.Options(),
		store,
	)
	renderer.FontFile = cfg.Render.FontFile

	return pipeline.New(analyzer, conversation.NewEnricher(synth, store, catalog), catalog, renderer), nil
}

// NewProcessor builds a worker processor with the default queues registered.
func NewProcessor(cfg *config.Config, db *gorm.DB, rdb *redis.Client) (*worker.Processor, error) {
	p, err := NewPipeline(cfg, db)
	if err != nil {
		return nil, err
	}
	proc := worker.NewProcessor(db, rdb, p, cfg.Timeline.Options(), cfg.Timeline.Background)
	proc.RegisterDefaults()
	return proc, nil
}

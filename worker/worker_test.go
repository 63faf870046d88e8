package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/drewmudry/chatshorts-api/avatars"
	"github.com/drewmudry/chatshorts-api/conversation"
	"github.com/drewmudry/chatshorts-api/internal/platform/platformtest"
	"github.com/drewmudry/chatshorts-api/models"
	"github.com/drewmudry/chatshorts-api/pipeline"
	"github.com/drewmudry/chatshorts-api/processing"
	"github.com/drewmudry/chatshorts-api/render"
	"github.com/drewmudry/chatshorts-api/tasks"
	"github.com/drewmudry/chatshorts-api/timeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type flakySynth struct{ fail map[string]bool }

func (f flakySynth) Synthesize(ctx context.Context, text, voiceID string) ([]byte, error) {
	if f.fail[text] {
		return nil, errors.New("tts timeout")
	}
	return []byte(text), nil
}

type pathStore struct{}

func (pathStore) Store(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	return "/assets/" + key, nil
}

type stubRenderer struct {
	err   error
	calls int
	props render.Props
}

func (s *stubRenderer) Render(ctx context.Context, id string, props render.Props) (string, error) {
	s.calls++
	s.props = props
	if s.err != nil {
		return "", s.err
	}
	return "/assets/videos/" + id + ".mp4", nil
}

type fixture struct {
	db       *gorm.DB
	proc     *Processor
	renderer *stubRenderer
}

func newFixture(t *testing.T, synth conversation.Synthesizer) *fixture {
	db := platformtest.NewDB(t)
	rdb, _ := platformtest.NewRedis(t)

	catalog := avatars.NewCatalog(db)
	renderer := &stubRenderer{}
	p := pipeline.New(processing.StubAnalyzer{}, conversation.NewEnricher(synth, pathStore{}, catalog), catalog, renderer)

	proc := NewProcessor(db, rdb, p, timeline.Options{FramesPerCue: 120, MinimumFrames: 120, FPS: 30}, "default-bg.png")
	proc.RegisterDefaults()
	return &fixture{db: db, proc: proc, renderer: renderer}
}

func (f *fixture) createGeneration(t *testing.T, g models.Generation) models.Generation {
	if g.Status == "" {
		g.Status = models.StatusPending
	}
	if g.SpeakerAVoice == "" {
		g.SpeakerAVoice = "nova"
	}
	if g.SpeakerBVoice == "" {
		g.SpeakerBVoice = "onyx"
	}
	require.NoError(t, f.db.Create(&g).Error)
	return g
}

func (f *fixture) reload(t *testing.T, id uint) models.Generation {
	var g models.Generation
	require.NoError(t, f.db.Preload("Cues", func(db *gorm.DB) *gorm.DB { return db.Order("sequence") }).
		Preload("Videos").First(&g, id).Error)
	return g
}

func payload(t *testing.T, v interface{}) string {
	s, err := tasks.Marshal(v)
	require.NoError(t, err)
	return s
}

func TestHandleEnrich(t *testing.T) {
	f := newFixture(t, flakySynth{fail: map[string]bool{"Not much.": true}})
	ctx := context.Background()

	gen := f.createGeneration(t, models.Generation{
		UserID:   1,
		ChatText: "Sam: Hey, what's up?\nJo: Not much.\nSam: I got the job!",
	})

	require.NoError(t, f.proc.HandleEnrich(ctx, payload(t, tasks.EnrichTaskPayload{GenerationID: gen.ID})))

	got := f.reload(t, gen.ID)
	assert.Equal(t, models.StatusPendingRender, got.Status)
	require.Len(t, got.Cues, 3)
	assert.NotNil(t, got.Cues[0].AudioURL)
	assert.Nil(t, got.Cues[1].AudioURL)
	assert.Contains(t, got.Cues[1].AudioError, "tts timeout")
	assert.Equal(t, "excited", got.Cues[2].Emotion)

	queued, err := f.proc.RDB.LRange(ctx, tasks.QueueGenerationRender, 0, -1).Result()
	require.NoError(t, err)
	require.Len(t, queued, 1)
	var next tasks.RenderTaskPayload
	require.NoError(t, json.Unmarshal([]byte(queued[0]), &next))
	assert.Equal(t, gen.ID, next.GenerationID)
}

func TestHandleEnrichInlineAnalysis(t *testing.T) {
	f := newFixture(t, flakySynth{})
	analysis, _ := json.Marshal(processing.Analysis{
		Speakers: []processing.AnalysisSpeaker{{ID: "s1", Name: "Sam"}},
		Messages: []processing.AnalysisMessage{{SpeakerID: "s1", Text: "solo", Emotion: "CUTE"}},
	})
	gen := f.createGeneration(t, models.Generation{UserID: 1, AnalysisJSON: string(analysis)})

	require.NoError(t, f.proc.HandleEnrich(context.Background(), payload(t, tasks.EnrichTaskPayload{GenerationID: gen.ID})))

	got := f.reload(t, gen.ID)
	require.Len(t, got.Cues, 1)
	assert.Equal(t, "happy", got.Cues[0].Emotion)
	assert.Equal(t, "A", got.Cues[0].Speaker)
}

func TestHandleEnrichValidationFailure(t *testing.T) {
	f := newFixture(t, flakySynth{})
	ctx := context.Background()
	gen := f.createGeneration(t, models.Generation{UserID: 1, ChatText: "no speakers in here"})

	err := f.proc.HandleEnrich(ctx, payload(t, tasks.EnrichTaskPayload{GenerationID: gen.ID}))
	var verr *conversation.ValidationError
	require.True(t, errors.As(err, &verr))

	got := f.reload(t, gen.ID)
	assert.Equal(t, models.StatusFailedValidation, got.Status)
	assert.NotEmpty(t, got.Error)
	assert.Empty(t, got.Cues)

	n, err := f.proc.RDB.LLen(ctx, tasks.QueueGenerationRender).Result()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestHandleEnrichSkipsNonPending(t *testing.T) {
	f := newFixture(t, flakySynth{})
	gen := f.createGeneration(t, models.Generation{UserID: 1, ChatText: "Sam: hi", Status: models.StatusComplete})

	require.NoError(t, f.proc.HandleEnrich(context.Background(), payload(t, tasks.EnrichTaskPayload{GenerationID: gen.ID})))
	assert.Empty(t, f.reload(t, gen.ID).Cues)
}

func enrichedGeneration(t *testing.T, f *fixture) models.Generation {
	gen := f.createGeneration(t, models.Generation{UserID: 1, ChatText: "Sam: one\nJo: two"})
	require.NoError(t, f.proc.HandleEnrich(context.Background(), payload(t, tasks.EnrichTaskPayload{GenerationID: gen.ID})))
	return gen
}

func TestHandleRender(t *testing.T) {
	f := newFixture(t, flakySynth{})
	gen := enrichedGeneration(t, f)

	require.NoError(t, f.proc.HandleRender(context.Background(), payload(t, tasks.RenderTaskPayload{GenerationID: gen.ID})))

	got := f.reload(t, gen.ID)
	assert.Equal(t, models.StatusComplete, got.Status)
	require.Len(t, got.Videos, 1)
	assert.Equal(t, "/assets/videos/gen-"+itoa(gen.ID)+".mp4", got.Videos[0].URL)
	assert.Equal(t, 240, got.Videos[0].TotalFrames)
	assert.Equal(t, 30, got.Videos[0].FPS)

	assert.Equal(t, "default-bg.png", f.renderer.props.BackgroundImage)
	require.Len(t, f.renderer.props.Cues, 2)
	assert.Equal(t, conversation.RoleB, f.renderer.props.Cues[1].Speaker)
}

func TestHandleRenderFailureKeepsCues(t *testing.T) {
	f := newFixture(t, flakySynth{})
	f.renderer.err = &render.RenderError{CompositionID: "gen-1", Op: "concat", Err: errors.New("codec not found")}
	gen := enrichedGeneration(t, f)

	err := f.proc.HandleRender(context.Background(), payload(t, tasks.RenderTaskPayload{GenerationID: gen.ID}))
	var rerr *render.RenderError
	require.True(t, errors.As(err, &rerr))

	got := f.reload(t, gen.ID)
	assert.Equal(t, models.StatusFailedRender, got.Status)
	assert.Contains(t, got.Error, "codec not found")
	assert.Len(t, got.Cues, 2)
	assert.Empty(t, got.Videos)
}

func TestDispatchUnknownQueue(t *testing.T) {
	f := newFixture(t, flakySynth{})
	assert.Error(t, f.proc.Dispatch(context.Background(), "q_nope", "{}"))
}

func TestListenProcessesQueuedTasks(t *testing.T) {
	f := newFixture(t, flakySynth{})
	gen := f.createGeneration(t, models.Generation{UserID: 1, ChatText: "Sam: hi\nJo: yo"})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, f.proc.Enqueue(ctx, tasks.QueueGenerationEnrich, tasks.EnrichTaskPayload{GenerationID: gen.ID}))

	go f.proc.Listen(ctx, tasks.Queues...)

	require.Eventually(t, func() bool {
		var g models.Generation
		if err := f.db.First(&g, gen.ID).Error; err != nil {
			return false
		}
		return g.Status == models.StatusComplete
	}, 5*time.Second, 20*time.Millisecond)
}

func itoa(v uint) string {
	b, _ := json.Marshal(v)
	return string(b)
}

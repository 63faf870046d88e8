package generations

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/drewmudry/chatshorts-api/avatars"
	"github.com/drewmudry/chatshorts-api/conversation"
	"github.com/drewmudry/chatshorts-api/metrics"
	"github.com/drewmudry/chatshorts-api/models"
	"github.com/drewmudry/chatshorts-api/processing"
	"github.com/drewmudry/chatshorts-api/tasks"
	"github.com/drewmudry/chatshorts-api/timeline"
	"github.com/drewmudry/chatshorts-api/worker"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type Handler struct {
	DB       *gorm.DB
	Redis    *redis.Client
	Catalog  conversation.AvatarCatalog
	Timeline timeline.Options
}

func NewHandler(db *gorm.DB, rdb *redis.Client, catalog conversation.AvatarCatalog, opts timeline.Options) *Handler {
	return &Handler{DB: db, Redis: rdb, Catalog: catalog, Timeline: opts}
}

type SpeakerRequest struct {
	AvatarID *uint  `json:"avatar_id"`
	VoiceID  string `json:"voice_id"`
}

type CreateGenerationRequest struct {
	ChatText        string               `json:"chat_text"`
	Analysis        *processing.Analysis `json:"analysis"`
	SpeakerA        SpeakerRequest       `json:"speaker_a"`
	SpeakerB        SpeakerRequest       `json:"speaker_b"`
	BackgroundImage string               `json:"background_image"`
}

func (r CreateGenerationRequest) assignment() conversation.Assignment {
	return conversation.Assignment{
		conversation.RoleA: {AvatarID: r.SpeakerA.AvatarID, VoiceID: r.SpeakerA.VoiceID},
		conversation.RoleB: {AvatarID: r.SpeakerB.AvatarID, VoiceID: r.SpeakerB.VoiceID},
	}
}

// validate rejects malformed inline analysis before anything is stored.
func (r CreateGenerationRequest) validate() error {
	if r.Analysis == nil {
		if strings.TrimSpace(r.ChatText) == "" {
			return conversation.Invalid("either analysis or chat_text is required")
		}
		return nil
	}
	lines, err := r.Analysis.Lines()
	if err != nil {
		return err
	}
	return conversation.Validate(lines, r.assignment())
}

// GenerationResponse always includes the cues produced so far and their
// error markers, even when the render failed.
type GenerationResponse struct {
	models.Generation
	CueCount      int    `json:"cue_count"`
	MissingAudio  int    `json:"missing_audio"`
	VideoURL      string `json:"video_url,omitempty"`
	CompositionID string `json:"composition_id"`
}

func newResponse(g models.Generation) GenerationResponse {
	resp := GenerationResponse{
		Generation:    g,
		CueCount:      len(g.Cues),
		CompositionID: worker.CompositionID(g.ID),
	}
	for _, c := range g.Cues {
		if c.AudioURL == nil {
			resp.MissingAudio++
		}
	}
	if n := len(g.Videos); n > 0 {
		resp.VideoURL = g.Videos[n-1].URL
	}
	return resp
}

func (h *Handler) CreateGeneration(c *gin.Context) {
	userID := c.GetUint("user_id")
	var req CreateGenerationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := req.validate(); err != nil {
		var verr *conversation.ValidationError
		if errors.As(err, &verr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error(), "problems": verr.Problems})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	gen := models.Generation{
		UserID:          userID,
		Status:          models.StatusPending,
		ChatText:        req.ChatText,
		BackgroundImage: req.BackgroundImage,
	}
	gen.SetAssignment(req.assignment())
	if req.Analysis != nil {
		b, err := json.Marshal(req.Analysis)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid analysis"})
			return
		}
		gen.AnalysisJSON = string(b)
		gen.ChatText = ""
	}

	if err := h.DB.Create(&gen).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create generation"})
		return
	}

	task := tasks.EnrichTaskPayload{GenerationID: gen.ID}
	if err := worker.Enqueue(c.Request.Context(), h.Redis, tasks.QueueGenerationEnrich, task); err != nil {
		log.Printf("Error queueing generation %d: %v", gen.ID, err)
		h.DB.Model(&gen).Updates(map[string]interface{}{"status": models.StatusFailedQueue, "error": err.Error()})
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to queue generation"})
		return
	}

	metrics.GenerationsCreated.Inc()
	c.JSON(http.StatusAccepted, newResponse(gen))
}

func (h *Handler) GetUserGenerations(c *gin.Context) {
	userID := c.GetUint("user_id")
	var gens []models.Generation
	if err := h.DB.Where("user_id = ?", userID).Order("id desc").Find(&gens).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve generations"})
		return
	}

	c.JSON(http.StatusOK, gens)
}

// load fetches the caller's generation with its cues in playback order.
// It writes the error response itself and returns false on failure.
func (h *Handler) load(c *gin.Context) (models.Generation, bool) {
	var gen models.Generation
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid generation ID"})
		return gen, false
	}

	userID := c.GetUint("user_id")
	err = h.DB.
		Preload("Cues", func(db *gorm.DB) *gorm.DB { return db.Order("sequence") }).
		Preload("Videos", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		First(&gen, "id = ? AND user_id = ?", id, userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Generation not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		}
		return gen, false
	}
	return gen, true
}

func (h *Handler) GetGeneration(c *gin.Context) {
	gen, ok := h.load(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, newResponse(gen))
}

// timelineFor builds the same timeline the renderer sees, including each
// role's default avatar from the catalog.
func (h *Handler) timelineFor(c *gin.Context, gen models.Generation) (*timeline.Timeline, bool) {
	defaults, err := avatars.RoleDefaults(c.Request.Context(), h.Catalog, gen.Assignment())
	if err != nil {
		log.Printf("Error loading avatars for generation %d: %v", gen.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load avatars"})
		return nil, false
	}

	opts := h.Timeline
	opts.DefaultAvatars = defaults
	return timeline.Build(models.CuesFrom(gen.Cues), opts), true
}

// GetTimeline returns the sizing and audio schedule of a generation.
func (h *Handler) GetTimeline(c *gin.Context) {
	gen, ok := h.load(c)
	if !ok {
		return
	}

	tl, ok := h.timelineFor(c, gen)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"generation_id":    gen.ID,
		"total_frames":     tl.TotalFrames(),
		"frames_per_cue":   tl.FramesPerCue(),
		"fps":              tl.FPS(),
		"duration_seconds": tl.DurationSeconds(),
		"audio":            tl.AudioSlots(),
		"cues":             tl.Cues(),
	})
}

// GetFrame returns what is on screen at one frame, for preview scrubbing.
// Frames outside the timeline clamp to its ends.
func (h *Handler) GetFrame(c *gin.Context) {
	frame, err := strconv.Atoi(c.Param("frame"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid frame"})
		return
	}

	gen, ok := h.load(c)
	if !ok {
		return
	}

	tl, ok := h.timelineFor(c, gen)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, tl.StateAt(frame))
}

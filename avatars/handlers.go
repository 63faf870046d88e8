package avatars

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/drewmudry/chatshorts-api/emotion"
	"github.com/drewmudry/chatshorts-api/models"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type Handler struct {
	DB *gorm.DB
}

func NewHandler(db *gorm.DB) *Handler {
	return &Handler{DB: db}
}

type EmotionImage struct {
	Emotion  string `json:"emotion" binding:"required"`
	ImageURL string `json:"image_url" binding:"required"`
}

type CreateAvatarRequest struct {
	Name       string         `json:"name" binding:"required"`
	PreviewURL string         `json:"preview_url" binding:"required"`
	Emotions   []EmotionImage `json:"emotions"`
}

// NewAvatar validates a request and builds the row. Emotion labels must be
// canonical and each may appear once.
func NewAvatar(req CreateAvatarRequest) (*models.Avatar, error) {
	avatar := &models.Avatar{Name: req.Name, PreviewURL: req.PreviewURL}
	seen := map[emotion.Label]bool{}
	for _, e := range req.Emotions {
		label := emotion.Label(e.Emotion)
		if !emotion.IsCanonical(label) {
			return nil, fmt.Errorf("unknown emotion %q", e.Emotion)
		}
		if seen[label] {
			return nil, fmt.Errorf("emotion %q listed more than once", e.Emotion)
		}
		seen[label] = true
		avatar.Emotions = append(avatar.Emotions, models.AvatarEmotion{Emotion: label, ImageURL: e.ImageURL})
	}
	return avatar, nil
}

func (h *Handler) CreateAvatar(c *gin.Context) {
	var req CreateAvatarRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	avatar, err := NewAvatar(req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.DB.Create(avatar).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create avatar"})
		return
	}

	c.JSON(http.StatusCreated, avatar)
}

func (h *Handler) ListAvatars(c *gin.Context) {
	var avatars []models.Avatar
	if err := h.DB.Preload("Emotions").Order("id").Find(&avatars).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve avatars"})
		return
	}

	c.JSON(http.StatusOK, avatars)
}

func (h *Handler) GetAvatar(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid avatar ID"})
		return
	}

	var avatar models.Avatar
	if err := h.DB.Preload("Emotions").First(&avatar, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Avatar not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		}
		return
	}

	c.JSON(http.StatusOK, avatar)
}

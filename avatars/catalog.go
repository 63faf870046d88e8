package avatars

import (
	"context"
	"errors"
	"fmt"

	"github.com/drewmudry/chatshorts-api/conversation"
	"github.com/drewmudry/chatshorts-api/emotion"
	"github.com/drewmudry/chatshorts-api/models"
	"gorm.io/gorm"
)

// Catalog is the database-backed avatar lookup used during enrichment.
type Catalog struct {
	DB *gorm.DB
}

func NewCatalog(db *gorm.DB) *Catalog {
	return &Catalog{DB: db}
}

// GetAvatar returns (nil, nil) when the avatar does not exist.
func (c *Catalog) GetAvatar(ctx context.Context, id uint) (*emotion.Avatar, error) {
	var avatar models.Avatar
	err := c.DB.WithContext(ctx).Preload("Emotions").First(&avatar, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return avatar.ToDomain(), nil
}

func (c *Catalog) ListAvatars(ctx context.Context) ([]emotion.Avatar, error) {
	var rows []models.Avatar
	if err := c.DB.WithContext(ctx).Preload("Emotions").Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]emotion.Avatar, 0, len(rows))
	for i := range rows {
		out = append(out, *rows[i].ToDomain())
	}
	return out, nil
}

// DefaultImage is the image shown for an assigned avatar before its
// speaker has spoken: the neutral image, else the preview.
func DefaultImage(a *emotion.Avatar) string {
	if img := emotion.ResolveAvatarImage(a, emotion.Neutral); img != nil {
		return *img
	}
	return ""
}

// RoleDefaults returns the default image for each role whose assigned
// avatar exists in catalog. Rendering and frame previews both use it, so
// they agree on what a speaker shows before their first cue.
func RoleDefaults(ctx context.Context, catalog conversation.AvatarCatalog, assign conversation.Assignment) (map[conversation.Role]string, error) {
	defaults := map[conversation.Role]string{}
	if catalog == nil {
		return defaults, nil
	}
	for _, role := range conversation.Roles {
		v, ok := assign[role]
		if !ok || v.AvatarID == nil {
			continue
		}
		a, err := catalog.GetAvatar(ctx, *v.AvatarID)
		if err != nil {
			return nil, fmt.Errorf("failed to load avatar %d: %w", *v.AvatarID, err)
		}
		if img := DefaultImage(a); img != "" {
			defaults[role] = img
		}
	}
	return defaults, nil
}

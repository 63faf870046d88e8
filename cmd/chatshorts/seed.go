package main

import (
	"fmt"

	"github.com/drewmudry/chatshorts-api/avatars"
	"github.com/drewmudry/chatshorts-api/models"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

type seedFile struct {
	Avatars []seedAvatar `yaml:"avatars"`
}

type seedAvatar struct {
	Name       string            `yaml:"name"`
	PreviewURL string            `yaml:"preview_url"`
	Images     map[string]string `yaml:"images"`
}

func (s seedAvatar) request() avatars.CreateAvatarRequest {
	req := avatars.CreateAvatarRequest{Name: s.Name, PreviewURL: s.PreviewURL}
	for label, url := range s.Images {
		req.Emotions = append(req.Emotions, avatars.EmotionImage{Emotion: label, ImageURL: url})
	}
	return req
}

// SeedAvatars validates every entry in data before inserting any of them,
// then creates them in one transaction.
func SeedAvatars(db *gorm.DB, data []byte) ([]models.Avatar, error) {
	var file seedFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse avatars file: %w", err)
	}

	rows := make([]models.Avatar, 0, len(file.Avatars))
	for i, a := range file.Avatars {
		if a.Name == "" || a.PreviewURL == "" {
			return nil, fmt.Errorf("avatar %d: name and preview_url are required", i)
		}
		row, err := avatars.NewAvatar(a.request())
		if err != nil {
			return nil, fmt.Errorf("avatar %q: %w", a.Name, err)
		}
		rows = append(rows, *row)
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		for i := range rows {
			if err := tx.Create(&rows[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to seed avatars: %w", err)
	}
	return rows, nil
}

package models

// All returns every model for migrations.
func All() []interface{} {
	return []interface{}{
		&Avatar{},
		&AvatarEmotion{},
		&Generation{},
		&GenerationCue{},
		&RenderedVideo{},
	}
}

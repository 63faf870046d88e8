package tasks

import "encoding/json"

// ---
// QUEUE DEFINITIONS
// ---
const (
	// QueueGenerationEnrich is the first step: analyze the chat and enrich
	// every line with audio and avatar images.
	QueueGenerationEnrich = "q_generation_enrich"

	// QueueGenerationRender is the second step: render the enriched cues.
	QueueGenerationRender = "q_generation_render"
)

// Queues lists every queue the worker listens on.
var Queues = []string{QueueGenerationEnrich, QueueGenerationRender}

// ---
// TASK PAYLOADS
// ---
// These are the structs that will be JSON-marshalled and sent to Redis.

// EnrichTaskPayload is the payload for QueueGenerationEnrich
type EnrichTaskPayload struct {
	GenerationID uint `json:"generation_id"`
}

// RenderTaskPayload is the payload for QueueGenerationRender
type RenderTaskPayload struct {
	GenerationID uint `json:"generation_id"`
}

// Marshal creates a JSON payload for a task.
func Marshal(payload interface{}) (string, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

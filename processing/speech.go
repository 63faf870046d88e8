package processing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// OpenAI TTS voices
const (
	VoiceAlloy   = "alloy"
	VoiceEcho    = "echo"
	VoiceFable   = "fable"
	VoiceOnyx    = "onyx"
	VoiceNova    = "nova"
	VoiceShimmer = "shimmer"
)

// maxSpeechInput is the longest input the speech endpoint accepts.
const maxSpeechInput = 4096

// OpenAISynthesizer turns one dialogue line into MP3 audio.
type OpenAISynthesizer struct {
	client       openai.Client
	model        string
	defaultVoice string
}

// NewOpenAISynthesizer creates a synthesizer. defaultVoice is used for lines
// whose role has no voice of its own.
func NewOpenAISynthesizer(apiKey, model, defaultVoice string, opts ...option.RequestOption) *OpenAISynthesizer {
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	if defaultVoice == "" {
		defaultVoice = VoiceNova
	}
	return &OpenAISynthesizer{
		client:       openai.NewClient(opts...),
		model:        model,
		defaultVoice: defaultVoice,
	}
}

func (s *OpenAISynthesizer) Synthesize(ctx context.Context, text, voiceID string) ([]byte, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("no text to synthesize")
	}
	if runes := []rune(text); len(runes) > maxSpeechInput {
		text = string(runes[:maxSpeechInput])
	}
	if voiceID == "" {
		voiceID = s.defaultVoice
	}

	res, err := s.client.Audio.Speech.New(ctx, openai.AudioSpeechNewParams{
		Model:          openai.SpeechModel(s.model),
		Input:          text,
		Voice:          openai.AudioSpeechNewParamsVoice(voiceID),
		ResponseFormat: openai.AudioSpeechNewParamsResponseFormatMP3,
	})
	if err != nil {
		return nil, fmt.Errorf("OpenAI speech error: %w", err)
	}
	defer res.Body.Close()

	audio, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read speech response: %w", err)
	}
	return audio, nil
}

// ErrSpeechDisabled is returned by SilentSynthesizer for every line.
var ErrSpeechDisabled = errors.New("speech synthesis is not configured")

// SilentSynthesizer produces no audio. Every cue it touches is kept with an
// audio error, so timelines still render with silent slots.
type SilentSynthesizer struct{}

func (SilentSynthesizer) Synthesize(ctx context.Context, text, voiceID string) ([]byte, error) {
	return nil, ErrSpeechDisabled
}

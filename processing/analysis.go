package processing

import (
	"context"
	"fmt"
	"strings"

	"github.com/drewmudry/chatshorts-api/conversation"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	log "github.com/sirupsen/logrus"
)

// Analysis is the upstream chat analysis: who speaks and what they say.
type Analysis struct {
	Speakers []AnalysisSpeaker `json:"speakers" jsonschema_description:"The two participants of the conversation, in order of first appearance."`
	Messages []AnalysisMessage `json:"messages" jsonschema_description:"Every chat message in order."`
}

type AnalysisSpeaker struct {
	ID   string `json:"id" jsonschema_description:"A short stable identifier for the speaker, e.g. s1."`
	Name string `json:"name" jsonschema_description:"The display name of the speaker as it appears in the chat."`
}

type AnalysisMessage struct {
	SpeakerID string `json:"speaker_id" jsonschema_description:"The id of the speaker who sent this message."`
	Text      string `json:"text" jsonschema_description:"The message text, cleaned of timestamps and names."`
	Emotion   string `json:"emotion" jsonschema_description:"One of neutral, happy, angry, sad, surprised, excited, confused."`
}

// Lines validates the analysis shape and maps it onto the two speaker
// roles: the first speaker is A, the second is B.
func (a *Analysis) Lines() ([]conversation.Line, error) {
	verr := conversation.Invalid()
	if a == nil {
		verr.Problems = append(verr.Problems, "analysis is missing")
		return nil, verr
	}
	if len(a.Speakers) == 0 || len(a.Speakers) > len(conversation.Roles) {
		verr.Problems = append(verr.Problems, fmt.Sprintf("analysis must name 1 or 2 speakers, got %d", len(a.Speakers)))
	}

	roles := make(map[string]conversation.Role, len(a.Speakers))
	for i, s := range a.Speakers {
		id := strings.TrimSpace(s.ID)
		if id == "" {
			verr.Problems = append(verr.Problems, fmt.Sprintf("speaker %d has no id", i))
			continue
		}
		if _, dup := roles[id]; dup {
			verr.Problems = append(verr.Problems, fmt.Sprintf("speaker id %q is listed twice", id))
			continue
		}
		if i < len(conversation.Roles) {
			roles[id] = conversation.Roles[i]
		}
	}

	if len(a.Messages) == 0 {
		verr.Problems = append(verr.Problems, "analysis has no messages")
	}

	lines := make([]conversation.Line, 0, len(a.Messages))
	for i, m := range a.Messages {
		role, ok := roles[strings.TrimSpace(m.SpeakerID)]
		if !ok {
			verr.Problems = append(verr.Problems, fmt.Sprintf("message %d: unknown speaker %q", i, m.SpeakerID))
		}
		if strings.TrimSpace(m.Text) == "" {
			verr.Problems = append(verr.Problems, fmt.Sprintf("message %d: text is empty", i))
		}
		lines = append(lines, conversation.Line{Speaker: role, Text: m.Text, Emotion: m.Emotion})
	}

	if len(verr.Problems) > 0 {
		return nil, verr
	}
	return lines, nil
}

// AnalysisProvider turns a raw chat transcript into an Analysis.
type AnalysisProvider interface {
	Analyze(ctx context.Context, chatText string) (*Analysis, error)
}

var analysisSchema = GenerateSchema[Analysis]()

// OpenAIAnalyzer extracts speakers, messages and emotions with a
// structured-output chat completion.
type OpenAIAnalyzer struct {
	client openai.Client
	model  string
}

// NewOpenAIAnalyzer creates an analyzer using the given API key and chat
// model.
func NewOpenAIAnalyzer(apiKey, model string, opts ...option.RequestOption) *OpenAIAnalyzer {
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &OpenAIAnalyzer{
		client: openai.NewClient(opts...),
		model:  model,
	}
}

func (a *OpenAIAnalyzer) Analyze(ctx context.Context, chatText string) (*Analysis, error) {
	if strings.TrimSpace(chatText) == "" {
		return nil, conversation.Invalid("chat text is empty")
	}

	prompt := fmt.Sprintf(`You are preparing a chat conversation to be acted out in a short vertical video by two animated characters.

Read the chat below and extract:
- the two speakers, in order of first appearance
- every message in order, attributed to its speaker
- the emotion the speaker most likely feels for each message, chosen from: neutral, happy, angry, sad, surprised, excited, confused

Keep the message text as written, but drop timestamps, names and reactions.

Chat:
%s`, chatText)

	analysis, err := getStructuredResponse[Analysis](ctx, a.client, a.model, "chat_analysis", prompt, analysisSchema)
	if err != nil {
		return nil, fmt.Errorf("failed to analyze chat: %w", err)
	}

	log.Printf("Analyzed chat: %d speakers, %d messages", len(analysis.Speakers), len(analysis.Messages))
	return analysis, nil
}

// StubAnalyzer is a deterministic offline analyzer. It reads "Name: text"
// lines, lists every name as a speaker in order of first appearance and
// guesses emotion from punctuation. Like the OpenAI analyzer, it leaves
// rejecting extra speakers to Analysis.Lines.
type StubAnalyzer struct{}

func (StubAnalyzer) Analyze(ctx context.Context, chatText string) (*Analysis, error) {
	analysis := &Analysis{}
	ids := map[string]string{}

	for _, raw := range strings.Split(chatText, "\n") {
		name, text, ok := strings.Cut(raw, ":")
		name, text = strings.TrimSpace(name), strings.TrimSpace(text)
		if !ok || name == "" || text == "" {
			continue
		}

		id, known := ids[name]
		if !known {
			id = fmt.Sprintf("s%d", len(analysis.Speakers)+1)
			ids[name] = id
			analysis.Speakers = append(analysis.Speakers, AnalysisSpeaker{ID: id, Name: name})
		}

		analysis.Messages = append(analysis.Messages, AnalysisMessage{
			SpeakerID: id,
			Text:      text,
			Emotion:   guessEmotion(text),
		})
	}

	return analysis, nil
}

func guessEmotion(text string) string {
	switch {
	case strings.HasSuffix(text, "?!") || strings.HasSuffix(text, "!?"):
		return "surprised"
	case strings.HasSuffix(text, "!"):
		return "excited"
	case strings.HasSuffix(text, "?"):
		return "confused"
	case strings.HasSuffix(text, "..."):
		return "sad"
	default:
		return "neutral"
	}
}

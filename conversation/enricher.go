package conversation

import (
	"context"
	"fmt"
	"strings"

	"github.com/drewmudry/chatshorts-api/emotion"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// Enricher turns raw lines into cues. Collaborators are injected so a
// request never touches package-level clients.
type Enricher struct {
	Synth   Synthesizer
	Store   AssetStore
	Catalog AvatarCatalog
}

// NewEnricher creates an Enricher. catalog may be nil when no avatars are
// ever assigned.
func NewEnricher(synth Synthesizer, store AssetStore, catalog AvatarCatalog) *Enricher {
	return &Enricher{Synth: synth, Store: store, Catalog: catalog}
}

// Validate checks the structure of a conversation without calling any
// collaborator.
func Validate(lines []Line, assign Assignment) error {
	verr := &ValidationError{}
	if len(lines) == 0 {
		verr.add("conversation has no lines")
	}
	speaking := map[Role]bool{}
	for i, line := range lines {
		if !line.Speaker.Valid() {
			verr.add("line %d: speaker %q is not one of A, B", i, line.Speaker)
		} else {
			speaking[line.Speaker] = true
		}
		if strings.TrimSpace(line.Text) == "" {
			verr.add("line %d: text is empty", i)
		}
	}
	for _, role := range Roles {
		if !speaking[role] {
			continue
		}
		if strings.TrimSpace(assign[role].VoiceID) == "" {
			verr.add("speaker %s has no voice assigned", role)
		}
	}
	if len(verr.Problems) > 0 {
		return verr
	}
	return nil
}

// Enrich resolves audio, emotion and avatar image for every line, in
// order and one line at a time. Structural problems fail the whole call
// before any synthesis; per-line synthesis failures only clear that cue's
// audio. The result always has one cue per line.
func (e *Enricher) Enrich(ctx context.Context, lines []Line, assign Assignment) ([]Cue, error) {
	if err := Validate(lines, assign); err != nil {
		return nil, err
	}

	avatars, err := e.loadAvatars(ctx, assign)
	if err != nil {
		return nil, err
	}

	cues := make([]Cue, 0, len(lines))
	for i, line := range lines {
		label := emotion.Resolve(line.Emotion)
		cue := Cue{
			Index:            i,
			Speaker:          line.Speaker,
			Text:             strings.TrimSpace(line.Text),
			RequestedEmotion: line.Emotion,
			Emotion:          label,
			AvatarImage:      emotion.ResolveAvatarImage(avatars[line.Speaker], label),
		}

		url, err := e.synthesize(ctx, cue.Text, assign[line.Speaker].VoiceID)
		if err != nil {
			serr := &SynthesisError{Index: i, Err: err}
			cue.AudioError = serr.Error()
			log.WithFields(log.Fields{"line": i, "speaker": line.Speaker}).Warnf("Synthesis failed, continuing without audio: %v", err)
		} else {
			cue.AudioURL = &url
		}

		cues = append(cues, cue)
	}

	return cues, nil
}

func (e *Enricher) synthesize(ctx context.Context, text, voiceID string) (string, error) {
	if e.Synth == nil {
		return "", fmt.Errorf("no synthesizer configured")
	}
	audio, err := e.Synth.Synthesize(ctx, text, voiceID)
	if err != nil {
		return "", err
	}
	if len(audio) == 0 {
		return "", fmt.Errorf("synthesizer returned no audio")
	}
	if e.Store == nil {
		return "", fmt.Errorf("no asset store configured")
	}
	key := fmt.Sprintf("audio/%s.mp3", uuid.NewString())
	url, err := e.Store.Store(ctx, key, audio, "audio/mpeg")
	if err != nil {
		return "", fmt.Errorf("failed to store audio: %w", err)
	}
	return url, nil
}

// loadAvatars looks up each role's avatar once per conversation. A missing
// avatar is not an error; a failing catalog is.
func (e *Enricher) loadAvatars(ctx context.Context, assign Assignment) (map[Role]*emotion.Avatar, error) {
	avatars := make(map[Role]*emotion.Avatar, len(Roles))
	for _, role := range Roles {
		v, ok := assign[role]
		if !ok || v.AvatarID == nil {
			continue
		}
		if e.Catalog == nil {
			continue
		}
		a, err := e.Catalog.GetAvatar(ctx, *v.AvatarID)
		if err != nil {
			return nil, fmt.Errorf("failed to load avatar %d for speaker %s: %w", *v.AvatarID, role, err)
		}
		if a == nil {
			log.Printf("Avatar %d for speaker %s not found, using fallback image", *v.AvatarID, role)
		}
		avatars[role] = a
	}
	return avatars, nil
}

package emotion

import "strings"

// Label is one of the canonical emotions used throughout rendering.
type Label string

const (
	Neutral   Label = "neutral"
	Happy     Label = "happy"
	Angry     Label = "angry"
	Sad       Label = "sad"
	Surprised Label = "surprised"
	Excited   Label = "excited"
	Confused  Label = "confused"
)

// All lists the canonical labels in a stable order.
var All = []Label{Neutral, Happy, Angry, Sad, Surprised, Excited, Confused}

// synonyms maps upstream labels onto the canon. Keys are lower-case.
var synonyms = map[string]Label{
	// happy
	"cute":     Happy,
	"joyful":   Happy,
	"joy":      Happy,
	"glad":     Happy,
	"cheerful": Happy,
	"smile":    Happy,
	"smiling":  Happy,
	"laugh":    Happy,
	"laughing": Happy,
	"playful":  Happy,
	"love":     Happy,
	"loving":   Happy,

	// angry
	"mad":        Angry,
	"furious":    Angry,
	"annoyed":    Angry,
	"irritated":  Angry,
	"frustrated": Angry,
	"rage":       Angry,

	// sad
	"upset":        Sad,
	"crying":       Sad,
	"cry":          Sad,
	"depressed":    Sad,
	"disappointed": Sad,
	"lonely":       Sad,
	"hurt":         Sad,

	// surprised
	"shocked":    Surprised,
	"shock":      Surprised,
	"amazed":     Surprised,
	"astonished": Surprised,
	"startled":   Surprised,
	"wow":        Surprised,

	// excited
	"hyped":        Excited,
	"thrilled":     Excited,
	"enthusiastic": Excited,
	"eager":        Excited,
	"energetic":    Excited,

	// confused
	"sarcastic": Confused,
	"puzzled":   Confused,
	"unsure":    Confused,
	"doubtful":  Confused,
	"skeptical": Confused,
	"thinking":  Confused,

	// neutral
	"normal":  Neutral,
	"calm":    Neutral,
	"default": Neutral,
	"none":    Neutral,
	"plain":   Neutral,
}

// Resolve normalizes a free-form emotion label from upstream analysis.
// It never fails: anything it does not recognize is Neutral.
func Resolve(raw string) Label {
	key := strings.ToLower(strings.TrimSpace(raw))
	if key == "" {
		return Neutral
	}
	if IsCanonical(Label(key)) {
		return Label(key)
	}
	if l, ok := synonyms[key]; ok {
		return l
	}
	return Neutral
}

// IsCanonical reports whether l is one of the seven canonical labels.
func IsCanonical(l Label) bool {
	for _, c := range All {
		if c == l {
			return true
		}
	}
	return false
}

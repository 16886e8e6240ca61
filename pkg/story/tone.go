package story

// ToneNeutral is the fallback tone when analysis fails or yields nothing.
const ToneNeutral = "neutral"

// TonePresets are the named emotional tones a story may carry. The
// synthesizer keeps a style directive per preset; anything outside this set
// falls back to neutral guidance.
var TonePresets = []string{
	"warm",
	"nostalgic",
	"bittersweet",
	"joyful",
	"solemn",
	"reflective",
	"humorous",
	"proud",
}

// KnownTone reports whether tone is one of the named presets.
func KnownTone(tone string) bool {
	for _, t := range TonePresets {
		if t == tone {
			return true
		}
	}
	return false
}

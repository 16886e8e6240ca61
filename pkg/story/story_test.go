package story_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/hearthside/loom/pkg/story"
)

var _ = Describe("KnownTone", func() {
	It("accepts every preset", func() {
		for _, tone := range story.TonePresets {
			Expect(story.KnownTone(tone)).To(BeTrue(), "preset %q", tone)
		}
	})

	It("rejects unknown tones", func() {
		Expect(story.KnownTone("sarcastic")).To(BeFalse())
		Expect(story.KnownTone("")).To(BeFalse())
	})

	It("treats neutral as outside the presets", func() {
		Expect(story.KnownTone(story.ToneNeutral)).To(BeFalse())
	})
})

var _ = Describe("AsBrief", func() {
	It("keeps only the search-result fields", func() {
		st := &story.Story{
			ID:           "s1",
			UserID:       "u1",
			Title:        "The Crossing",
			BriefSummary: "immigrated to America in Ellis Island",
			Narrative:    "long prose that briefs never carry",
			Tone:         "nostalgic",
			Version:      3,
		}

		brief := st.AsBrief()
		Expect(brief).To(Equal(story.Brief{
			ID:           "s1",
			Title:        "The Crossing",
			BriefSummary: "immigrated to America in Ellis Island",
			Tone:         "nostalgic",
			Version:      3,
		}))
	})
})

var _ = Describe("NewID", func() {
	It("generates unique IDs", func() {
		Expect(story.NewID()).NotTo(Equal(story.NewID()))
	})
})

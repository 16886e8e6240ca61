package engine

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/hearthside/loom/pkg/story"
	testutils "github.com/hearthside/loom/pkg/utils/test"
)

var _ = Describe("analyzeTone", func() {
	It("parses the generator's classification", func() {
		generator := testutils.NewMockGenerator().
			Script("Classify the emotional tone", `{"tone":"bittersweet","emotional_tags":["loss","gratitude"]}`)
		e := newTestEngine(generator)

		analysis := e.analyzeTone(context.Background(), "Events: passed away")

		Expect(analysis.Tone).To(Equal("bittersweet"))
		Expect(analysis.EmotionalTags).To(Equal([]string{"loss", "gratitude"}))
	})

	It("falls back to neutral when generation fails", func() {
		generator := testutils.NewMockGenerator()
		generator.FailAll = true
		e := newTestEngine(generator)

		analysis := e.analyzeTone(context.Background(), "Events: picnic")

		Expect(analysis.Tone).To(Equal(story.ToneNeutral))
		Expect(analysis.EmotionalTags).To(BeEmpty())
	})

	It("falls back to neutral on malformed JSON", func() {
		generator := testutils.NewMockGenerator().
			Script("Classify the emotional tone", "I'd say it feels warm.")
		e := newTestEngine(generator)

		Expect(e.analyzeTone(context.Background(), "facts").Tone).To(Equal(story.ToneNeutral))
	})

	It("coerces unknown tones to neutral", func() {
		generator := testutils.NewMockGenerator().
			Script("Classify the emotional tone", `{"tone":"sardonic","emotional_tags":[]}`)
		e := newTestEngine(generator)

		Expect(e.analyzeTone(context.Background(), "facts").Tone).To(Equal(story.ToneNeutral))
	})

	It("keeps at most three emotional tags", func() {
		generator := testutils.NewMockGenerator().
			Script("Classify the emotional tone", `{"tone":"warm","emotional_tags":["a","b","c","d"]}`)
		e := newTestEngine(generator)

		Expect(e.analyzeTone(context.Background(), "facts").EmotionalTags).To(HaveLen(3))
	})

	It("is neutral with no generator configured", func() {
		e := newTestEngine(nil)
		Expect(e.analyzeTone(context.Background(), "facts").Tone).To(Equal(story.ToneNeutral))
	})
})

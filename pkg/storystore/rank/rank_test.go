package rank_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/hearthside/loom/pkg/story"
	"github.com/hearthside/loom/pkg/storystore/rank"
)

var _ = Describe("Cosine", func() {
	It("returns 1 for identical vectors", func() {
		v := []float32{0.5, 0.2, 0.8}
		Expect(rank.Cosine(v, v)).To(BeNumerically("~", 1.0, 1e-6))
	})

	It("returns 0 for orthogonal vectors", func() {
		Expect(rank.Cosine([]float32{1, 0}, []float32{0, 1})).To(BeNumerically("~", 0, 1e-6))
	})

	It("returns -1 for opposite vectors", func() {
		Expect(rank.Cosine([]float32{1, 0}, []float32{-1, 0})).To(BeNumerically("~", -1.0, 1e-6))
	})

	It("returns 0 when lengths differ", func() {
		Expect(rank.Cosine([]float32{1, 2}, []float32{1, 2, 3})).To(BeZero())
	})

	It("returns 0 for empty vectors", func() {
		Expect(rank.Cosine(nil, nil)).To(BeZero())
	})

	It("returns 0 when either vector has zero magnitude", func() {
		Expect(rank.Cosine([]float32{0, 0}, []float32{1, 2})).To(BeZero())
	})
})

var _ = Describe("Tokens", func() {
	It("lowercases and splits on non-alphanumerics", func() {
		Expect(rank.Tokens("Ellis-Island, 1955!")).To(Equal([]string{"ellis", "island", "1955"}))
	})

	It("drops tokens of three or fewer characters", func() {
		Expect(rank.Tokens("the old farm far away")).To(Equal([]string{"farm", "away"}))
	})

	It("returns no tokens for empty text", func() {
		Expect(rank.Tokens("")).To(BeEmpty())
	})
})

var _ = Describe("Lexical", func() {
	var st *story.Story

	BeforeEach(func() {
		st = &story.Story{
			Title:   "The Crossing",
			Summary: "A story about Giuseppe, drawn from 3 shared memories.",
			Content: "Events: immigrated to America\nPeople: Giuseppe",
			People:  []string{"Giuseppe"},
			Places:  []string{"Ellis Island"},
			Dates:   []string{"1955"},
		}
	})

	It("scores 1 when every query token matches", func() {
		Expect(rank.Lexical("giuseppe crossing", st)).To(BeNumerically("~", 1.0, 1e-6))
	})

	It("scores the fraction of matching tokens", func() {
		Expect(rank.Lexical("giuseppe spaceship", st)).To(BeNumerically("~", 0.5, 1e-6))
	})

	It("matches against entity fields", func() {
		Expect(rank.Lexical("ellis island", st)).To(BeNumerically("~", 1.0, 1e-6))
	})

	It("scores 0 for queries with no usable tokens", func() {
		Expect(rank.Lexical("a an it", st)).To(BeZero())
	})
})

var _ = Describe("Combine", func() {
	It("returns the lexical score alone when there is no semantic signal", func() {
		Expect(rank.Combine(0.8, -1)).To(BeNumerically("~", 0.8, 1e-6))
	})

	It("weights semantic similarity over lexical overlap", func() {
		Expect(rank.Combine(1.0, 0.0)).To(BeNumerically("~", 0.3, 1e-6))
		Expect(rank.Combine(0.0, 1.0)).To(BeNumerically("~", 0.7, 1e-6))
		Expect(rank.Combine(1.0, 1.0)).To(BeNumerically("~", 1.0, 1e-6))
	})
})

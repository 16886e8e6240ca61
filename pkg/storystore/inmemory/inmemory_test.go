package inmemory_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/hearthside/loom/pkg/story"
	"github.com/hearthside/loom/pkg/storystore"
	"github.com/hearthside/loom/pkg/storystore/inmemory"
)

var _ = Describe("Store", func() {
	var (
		ctx   context.Context
		store *inmemory.Store
	)

	newStory := func(id story.ID, userID, title string) *story.Story {
		return &story.Story{
			ID:      id,
			UserID:  userID,
			Title:   title,
			Version: 1,
		}
	}

	BeforeEach(func() {
		ctx = context.Background()
		store = inmemory.New()
	})

	Describe("SaveStory", func() {
		It("persists a story", func() {
			Expect(store.SaveStory(ctx, newStory("s1", "u1", "The Crossing"))).To(Succeed())

			got, err := store.GetStory(ctx, "u1", "s1")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Title).To(Equal("The Crossing"))
		})

		It("rejects a duplicate ID", func() {
			Expect(store.SaveStory(ctx, newStory("s1", "u1", "first"))).To(Succeed())
			Expect(store.SaveStory(ctx, newStory("s1", "u1", "second"))).NotTo(Succeed())
		})

		It("rejects a story without an ID", func() {
			Expect(store.SaveStory(ctx, newStory("", "u1", "untitled"))).NotTo(Succeed())
		})

		It("rejects nil", func() {
			Expect(store.SaveStory(ctx, nil)).NotTo(Succeed())
		})

		It("stores a copy, not the caller's pointer", func() {
			st := newStory("s1", "u1", "original")
			Expect(store.SaveStory(ctx, st)).To(Succeed())

			st.Title = "mutated"

			got, err := store.GetStory(ctx, "u1", "s1")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Title).To(Equal("original"))
		})
	})

	Describe("GetStory", func() {
		It("returns a not-found error for unknown IDs", func() {
			_, err := store.GetStory(ctx, "u1", "missing")
			Expect(err).To(BeAssignableToTypeOf(storystore.NotFoundError{}))
		})

		It("scopes stories to their owning user", func() {
			Expect(store.SaveStory(ctx, newStory("s1", "u1", "private"))).To(Succeed())

			_, err := store.GetStory(ctx, "u2", "s1")
			Expect(err).To(BeAssignableToTypeOf(storystore.NotFoundError{}))
		})

		It("returns a copy the caller cannot use to mutate the store", func() {
			Expect(store.SaveStory(ctx, newStory("s1", "u1", "original"))).To(Succeed())

			got, err := store.GetStory(ctx, "u1", "s1")
			Expect(err).NotTo(HaveOccurred())
			got.Title = "mutated"

			again, err := store.GetStory(ctx, "u1", "s1")
			Expect(err).NotTo(HaveOccurred())
			Expect(again.Title).To(Equal("original"))
		})
	})

	Describe("UpdateStory", func() {
		It("overwrites an existing story", func() {
			Expect(store.SaveStory(ctx, newStory("s1", "u1", "before"))).To(Succeed())

			updated := newStory("s1", "u1", "after")
			updated.Version = 2
			Expect(store.UpdateStory(ctx, updated)).To(Succeed())

			got, err := store.GetStory(ctx, "u1", "s1")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Title).To(Equal("after"))
			Expect(got.Version).To(Equal(2))
		})

		It("fails for a story that was never saved", func() {
			err := store.UpdateStory(ctx, newStory("ghost", "u1", "ghost"))
			Expect(err).To(BeAssignableToTypeOf(storystore.NotFoundError{}))
		})
	})

	Describe("SearchStories", func() {
		BeforeEach(func() {
			crossing := newStory("s1", "u1", "The Crossing")
			crossing.Places = []string{"Ellis Island"}
			Expect(store.SaveStory(ctx, crossing)).To(Succeed())

			wedding := newStory("s2", "u1", "The Wedding")
			wedding.Places = []string{"the old farmhouse"}
			Expect(store.SaveStory(ctx, wedding)).To(Succeed())

			other := newStory("s3", "u2", "The Crossing")
			other.Places = []string{"Ellis Island"}
			Expect(store.SaveStory(ctx, other)).To(Succeed())
		})

		It("returns only matching stories for the user", func() {
			results, err := store.SearchStories(ctx, "u1",
				storystore.Query{Text: "ellis island"}, storystore.SearchOptions{Limit: 3})
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(1))
			Expect(results[0].Story.ID).To(Equal(story.ID("s1")))
		})

		It("excludes stories with zero relevance", func() {
			results, err := store.SearchStories(ctx, "u1",
				storystore.Query{Text: "spaceship"}, storystore.SearchOptions{Limit: 3})
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(BeEmpty())
		})

		It("ranks embedding similarity above lexical overlap", func() {
			near := newStory("s4", "u1", "Fireflies")
			near.Places = []string{"the lake"}
			near.Embedding = []float32{1, 0, 0}
			Expect(store.SaveStory(ctx, near)).To(Succeed())

			far := newStory("s5", "u1", "Fireflies too")
			far.Places = []string{"the lake"}
			far.Embedding = []float32{0, 1, 0}
			Expect(store.SaveStory(ctx, far)).To(Succeed())

			results, err := store.SearchStories(ctx, "u1",
				storystore.Query{Text: "fireflies lake", Embedding: []float32{1, 0, 0}},
				storystore.SearchOptions{Limit: 2})
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(2))
			Expect(results[0].Story.ID).To(Equal(story.ID("s4")))
			Expect(results[0].Score).To(BeNumerically(">", results[1].Score))
		})

		It("caps results at the requested limit", func() {
			for _, id := range []story.ID{"s6", "s7", "s8"} {
				st := newStory(id, "u1", "Summer at the lake")
				Expect(store.SaveStory(ctx, st)).To(Succeed())
			}

			results, err := store.SearchStories(ctx, "u1",
				storystore.Query{Text: "summer lake"}, storystore.SearchOptions{Limit: 2})
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(2))
		})
	})

	Describe("TouchAccess", func() {
		It("increments the access count and sets the timestamp", func() {
			Expect(store.SaveStory(ctx, newStory("s1", "u1", "touched"))).To(Succeed())

			at := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
			Expect(store.TouchAccess(ctx, "s1", at)).To(Succeed())
			Expect(store.TouchAccess(ctx, "s1", at.Add(time.Hour))).To(Succeed())

			got, err := store.GetStory(ctx, "u1", "s1")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.AccessCount).To(Equal(2))
			Expect(*got.LastAccessedAt).To(Equal(at.Add(time.Hour)))
		})

		It("fails for unknown stories", func() {
			err := store.TouchAccess(ctx, "missing", time.Now())
			Expect(err).To(BeAssignableToTypeOf(storystore.NotFoundError{}))
		})
	})

	Describe("version log", func() {
		It("appends and lists versions oldest first", func() {
			Expect(store.SaveStory(ctx, newStory("s1", "u1", "versioned"))).To(Succeed())

			for i := 1; i <= 3; i++ {
				Expect(store.AppendVersion(ctx, &story.Version{
					StoryID:       "s1",
					VersionNumber: i,
				})).To(Succeed())
			}

			log, err := store.ListVersions(ctx, "s1")
			Expect(err).NotTo(HaveOccurred())
			Expect(log).To(HaveLen(3))
			Expect(log[0].VersionNumber).To(Equal(1))
			Expect(log[2].VersionNumber).To(Equal(3))
		})

		It("rejects versions for unknown stories", func() {
			err := store.AppendVersion(ctx, &story.Version{StoryID: "missing", VersionNumber: 1})
			Expect(err).To(BeAssignableToTypeOf(storystore.NotFoundError{}))
		})

		It("returns an empty log for stories with no versions", func() {
			Expect(store.SaveStory(ctx, newStory("s1", "u1", "fresh"))).To(Succeed())

			log, err := store.ListVersions(ctx, "s1")
			Expect(err).NotTo(HaveOccurred())
			Expect(log).To(BeEmpty())
		})
	})
})

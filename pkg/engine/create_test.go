package engine

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/hearthside/loom/pkg/eventstream"
	"github.com/hearthside/loom/pkg/record"
	"github.com/hearthside/loom/pkg/story"
	"github.com/hearthside/loom/pkg/storystore/inmemory"
	testutils "github.com/hearthside/loom/pkg/utils/test"
)

var _ = Describe("AutoCreateStories", func() {
	var (
		ctx       context.Context
		store     *inmemory.Store
		publisher *testutils.MockPublisher
		e         *Engine
	)

	BeforeEach(func() {
		ctx = context.Background()
		store = inmemory.New()
		publisher = testutils.NewMockPublisher()
		e = New(Config{Store: store, Publisher: publisher})
	})

	It("creates one story per qualifying topic group", func() {
		// Two conversations about unrelated topics: Giuseppe's immigration
		// and Dad's illness. Cross-group entity overlap stays below the
		// clustering threshold, so exactly two stories come out.
		memories := []*record.MemoryRecord{
			testMemory("conv-1", []string{"Giuseppe"}, []string{"Ellis Island"}, []string{"immigration"}),
			testMemory("conv-1", []string{"Giuseppe"}, []string{"Ellis Island"}, []string{"the boat crossing"}),
			testMemory("conv-1", []string{"Giuseppe", "Maria"}, []string{"Ellis Island"}, []string{"arrival in America"}),
			testMemory("conv-2", []string{"Dad"}, []string{"Mount Sinai Hospital"}, []string{"cancer diagnosis"}),
			testMemory("conv-2", []string{"Dad"}, []string{"Mount Sinai Hospital"}, []string{"passed away"}),
		}

		stories, err := e.AutoCreateStories(ctx, "user-1", memories)

		Expect(err).NotTo(HaveOccurred())
		Expect(stories).To(HaveLen(2))
		for _, s := range stories {
			Expect(s.Version).To(Equal(1))
			Expect(s.UserID).To(Equal("user-1"))
			switch s.ConversationIDs[0] {
			case "conv-1":
				Expect(s.SourceMemoryIDs).To(HaveLen(3))
				Expect(s.People).To(ContainElement("Giuseppe"))
			case "conv-2":
				Expect(s.SourceMemoryIDs).To(HaveLen(2))
				Expect(s.People).To(ContainElement("Dad"))
			default:
				Fail("story sourced from unexpected conversation")
			}
			Expect(s.ConversationIDs).To(HaveLen(1))
		}
	})

	It("skips groups below the inclusion gate", func() {
		memories := []*record.MemoryRecord{
			testMemory("conv-1", []string{"Alice"}, nil, []string{"picnic"}),
			testMemory("conv-2", []string{"Bob"}, nil, []string{"card game"}),
		}

		stories, err := e.AutoCreateStories(ctx, "user-1", memories)

		Expect(err).NotTo(HaveOccurred())
		Expect(stories).To(BeEmpty())
	})

	It("admits a small group describing a significant event", func() {
		memories := []*record.MemoryRecord{
			testMemory("conv-2", []string{"Dad"}, []string{"Mount Sinai Hospital"}, []string{"cancer diagnosis"}),
		}

		stories, err := e.AutoCreateStories(ctx, "user-1", memories)

		Expect(err).NotTo(HaveOccurred())
		Expect(stories).To(HaveLen(1))
		Expect(stories[0].SignificanceRating).To(BeNumerically(">=", 3))
	})

	It("persists fallback values when no external capabilities are configured", func() {
		memories := []*record.MemoryRecord{
			testMemory("conv-1", []string{"Giuseppe"}, []string{"Ellis Island"}, []string{"immigration"}),
			testMemory("conv-1", []string{"Giuseppe"}, []string{"Ellis Island"}, []string{"the voyage"}),
			testMemory("conv-1", []string{"Giuseppe"}, []string{"Ellis Island"}, []string{"arrival"}),
		}

		stories, err := e.AutoCreateStories(ctx, "user-1", memories)

		Expect(err).NotTo(HaveOccurred())
		Expect(stories).To(HaveLen(1))
		s := stories[0]
		Expect(s.Tone).To(Equal(story.ToneNeutral))
		Expect(s.Narrative).To(Equal(s.Content))
		Expect(s.Title).To(Equal("Giuseppe and immigration"))
		Expect(s.Embedding).To(BeNil())

		persisted, err := store.GetStory(ctx, "user-1", s.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(persisted.Content).NotTo(BeEmpty())
	})

	It("uses the generator and embedder when available", func() {
		generator := testutils.NewMockGenerator().
			Script("Classify the emotional tone", `{"tone":"bittersweet","emotional_tags":["loss"]}`).
			Script("Retell them", "Dad fought hard at Mount Sinai.").
			Script("an evocative title", `{"title":"Losing Dad","summary":"The hardest year.","brief_summary":"Dad's last months"}`)
		embedder := testutils.NewMockEmbedder()
		e = New(Config{Store: store, Generator: generator, Embedder: embedder, Publisher: publisher})

		memories := []*record.MemoryRecord{
			testMemory("conv-2", []string{"Dad"}, []string{"Mount Sinai Hospital"}, []string{"cancer diagnosis"}),
		}

		stories, err := e.AutoCreateStories(ctx, "user-1", memories)

		Expect(err).NotTo(HaveOccurred())
		Expect(stories).To(HaveLen(1))
		s := stories[0]
		Expect(s.Tone).To(Equal("bittersweet"))
		Expect(s.EmotionalTags).To(Equal([]string{"loss"}))
		Expect(s.Narrative).To(Equal("Dad fought hard at Mount Sinai."))
		Expect(s.Title).To(Equal("Losing Dad"))
		Expect(s.Embedding).NotTo(BeEmpty())
	})

	It("publishes a created event per story", func() {
		memories := []*record.MemoryRecord{
			testMemory("conv-2", []string{"Dad"}, []string{"Mount Sinai Hospital"}, []string{"cancer diagnosis"}),
		}

		stories, err := e.AutoCreateStories(ctx, "user-1", memories)

		Expect(err).NotTo(HaveOccurred())
		Expect(stories).To(HaveLen(1))
		events := publisher.Published()
		Expect(events).To(HaveLen(1))
		Expect(events[0].EventType).To(Equal(eventstream.EventTypeStoryCreated))
		Expect(events[0].StoryID).To(Equal(stories[0].ID))
	})

	It("requires a user id", func() {
		_, err := e.AutoCreateStories(ctx, "", nil)
		Expect(err).To(MatchError(ErrValidation))
	})

	It("does nothing for an empty snapshot", func() {
		stories, err := e.AutoCreateStories(ctx, "user-1", nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(stories).To(BeEmpty())
	})
})

var _ = Describe("CreateStoryFromConversation", func() {
	var (
		ctx   context.Context
		store *inmemory.Store
		e     *Engine
	)

	BeforeEach(func() {
		ctx = context.Background()
		store = inmemory.New()
		e = New(Config{Store: store}, WithClock(func() time.Time {
			return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
		}))
	})

	It("builds a version-1 neutral story bypassing the grouping gate", func() {
		result, err := e.CreateStoryFromConversation(ctx, "user-1",
			"The Bakery Years",
			"I ran a bakery on Mulberry Street for thirty years.",
			record.Entities{Places: []string{"Mulberry Street"}},
		)

		Expect(err).NotTo(HaveOccurred())
		Expect(result.Success).To(BeTrue())
		Expect(result.Message).To(ContainSubstring("The Bakery Years"))

		s, err := store.GetStory(ctx, "user-1", result.StoryID)
		Expect(err).NotTo(HaveOccurred())
		Expect(s.Version).To(Equal(1))
		Expect(s.Tone).To(Equal(story.ToneNeutral))
		Expect(s.BriefSummary).To(Equal("The Bakery Years"))
		Expect(s.Places).To(Equal([]string{"Mulberry Street"}))
	})

	It("requires a user id, title, and content", func() {
		_, err := e.CreateStoryFromConversation(ctx, "", "t", "c", record.Entities{})
		Expect(err).To(MatchError(ErrValidation))

		_, err = e.CreateStoryFromConversation(ctx, "user-1", "", "c", record.Entities{})
		Expect(err).To(MatchError(ErrValidation))

		_, err = e.CreateStoryFromConversation(ctx, "user-1", "t", "", record.Entities{})
		Expect(err).To(MatchError(ErrValidation))
	})
})

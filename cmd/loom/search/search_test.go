package searchcmder_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	searchcmder "github.com/hearthside/loom/cmd/loom/search"
	"github.com/hearthside/loom/pkg/engine"
	"github.com/hearthside/loom/pkg/story"
)

var _ = Describe("NewSearchCmd", func() {
	It("creates a command with the correct use string", func() {
		cmd := searchcmder.NewSearchCmd()
		Expect(cmd.Use).To(Equal("search <query>"))
	})

	It("registers the user, limit, quiet, and api-target flags", func() {
		cmd := searchcmder.NewSearchCmd()
		Expect(cmd.Flags().Lookup("user")).NotTo(BeNil())
		Expect(cmd.Flags().Lookup("limit")).NotTo(BeNil())
		Expect(cmd.Flags().Lookup("quiet")).NotTo(BeNil())
		Expect(cmd.Flags().Lookup("api-target")).NotTo(BeNil())
	})
})

var _ = Describe("SearchAPI", func() {
	var (
		server   *httptest.Server
		lastPath string
		result   engine.SearchResult
	)

	BeforeEach(func() {
		result = engine.SearchResult{
			Found: true,
			Stories: []story.Brief{
				{ID: "story-1", Title: "The Crossing", BriefSummary: "immigrated to America in Ellis Island", Tone: "nostalgic", Version: 2},
			},
			SuggestedResponse: `I remember you telling me about "The Crossing". Would you like me to retell it, or is there more to add?`,
		}

		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			lastPath = r.URL.Path + "?" + r.URL.RawQuery
			w.Header().Set("Content-Type", "application/json")
			Expect(json.NewEncoder(w).Encode(result)).To(Succeed())
		}))
	})

	AfterEach(func() {
		server.Close()
	})

	It("calls the per-user search endpoint with query and limit", func() {
		_, err := searchcmder.SearchAPI(context.Background(), server.URL, "user-123", "ellis island", 3)
		Expect(err).NotTo(HaveOccurred())
		Expect(lastPath).To(Equal("/v1/users/user-123/stories/search?limit=3&query=ellis+island"))
	})

	It("parses the search result", func() {
		parsed, err := searchcmder.SearchAPI(context.Background(), server.URL, "user-123", "ellis island", 3)
		Expect(err).NotTo(HaveOccurred())
		Expect(parsed.Found).To(BeTrue())
		Expect(parsed.Stories).To(HaveLen(1))
		Expect(parsed.Stories[0].Title).To(Equal("The Crossing"))
		Expect(parsed.SuggestedResponse).To(ContainSubstring("The Crossing"))
	})

	It("returns an error on non-200 responses", func() {
		failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, `{"error":"search failed"}`, http.StatusInternalServerError)
		}))
		defer failing.Close()

		_, err := searchcmder.SearchAPI(context.Background(), failing.URL, "user-123", "ellis island", 3)
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("HTTP 500"))
	})

	It("returns an error when the server is unreachable", func() {
		_, err := searchcmder.SearchAPI(context.Background(), "http://127.0.0.1:1", "user-123", "ellis island", 3)
		Expect(err).To(HaveOccurred())
	})
})

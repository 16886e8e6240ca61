package openai_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/hearthside/loom/pkg/embeddings"
	"github.com/hearthside/loom/pkg/embeddings/openai"
)

var _ = Describe("Embedder", func() {
	It("requires an API key", func() {
		_, err := openai.New(openai.Config{})
		Expect(err).To(MatchError(embeddings.ErrEmbedding))
	})

	It("sends the bearer token and returns the first embedding", func() {
		var gotAuth, gotPath string

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			gotPath = r.URL.Path

			Expect(json.NewEncoder(w).Encode(map[string]any{
				"data": []map[string]any{
					{"embedding": []float32{0.4, 0.5}},
				},
			})).To(Succeed())
		}))
		defer server.Close()

		e, err := openai.New(openai.Config{APIKey: "sk-test", BaseURL: server.URL})
		Expect(err).NotTo(HaveOccurred())
		defer e.Close()

		vec, err := e.Embed(context.Background(), "the old farmhouse")
		Expect(err).NotTo(HaveOccurred())
		Expect(vec).To(Equal([]float32{0.4, 0.5}))
		Expect(gotAuth).To(Equal("Bearer sk-test"))
		Expect(gotPath).To(Equal("/v1/embeddings"))
	})

	It("wraps non-200 responses in ErrEmbedding", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
		}))
		defer server.Close()

		e, err := openai.New(openai.Config{APIKey: "sk-test", BaseURL: server.URL})
		Expect(err).NotTo(HaveOccurred())

		_, err = e.Embed(context.Background(), "anything")
		Expect(err).To(MatchError(embeddings.ErrEmbedding))
	})
})

package mcp_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/hearthside/loom/api/mcp"
	"github.com/hearthside/loom/pkg/engine"
	loomlogger "github.com/hearthside/loom/pkg/logger"
	"github.com/hearthside/loom/pkg/storystore/inmemory"
)

var _ = Describe("MCP Server", func() {
	var (
		server *mcp.Server
		eng    *engine.Engine
	)

	BeforeEach(func() {
		eng = engine.New(engine.Config{Store: inmemory.New()})

		var err error
		server, err = mcp.NewServer(mcp.Config{
			Engine: eng,
			Logger: loomlogger.Nop(),
		})
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("NewServer", func() {
		It("returns an error when the engine is nil", func() {
			_, err := mcp.NewServer(mcp.Config{Logger: loomlogger.Nop()})
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("engine is required"))
		})

		It("returns an error when the logger is nil", func() {
			_, err := mcp.NewServer(mcp.Config{Engine: eng})
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("logger is required"))
		})

		It("creates a server with valid config", func() {
			Expect(server).NotTo(BeNil())
		})

		It("returns an HTTP handler", func() {
			Expect(server.Handler()).NotTo(BeNil())
		})

		It("builds a noop server with no dependencies", func() {
			noop, err := mcp.NewServer(mcp.Config{Noop: true})
			Expect(err).NotTo(HaveOccurred())
			Expect(noop).NotTo(BeNil())
		})
	})
})

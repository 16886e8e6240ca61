package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/hearthside/loom/pkg/logger"
)

var _ = Describe("Logger", func() {
	Describe("New", func() {
		It("creates a default text logger", func() {
			var buf bytes.Buffer
			l := logger.New(logger.WithWriter(&buf))
			l.Info("hello", "key", "value")

			output := buf.String()
			Expect(output).To(ContainSubstring("hello"))
			Expect(output).To(ContainSubstring("key"))
			Expect(output).To(ContainSubstring("value"))
		})

		It("respects debug level", func() {
			var buf bytes.Buffer
			l := logger.New(logger.WithWriter(&buf), logger.WithDebug(true))
			l.Debug("debug msg")

			Expect(buf.String()).To(ContainSubstring("debug msg"))
		})

		It("filters debug when not enabled", func() {
			var buf bytes.Buffer
			l := logger.New(logger.WithWriter(&buf), logger.WithDebug(false))
			l.Debug("hidden")

			Expect(buf.String()).To(BeEmpty())
		})

		It("creates a JSON logger", func() {
			var buf bytes.Buffer
			l := logger.New(logger.WithWriter(&buf), logger.WithJSON(true))
			l.Info("structured", "count", 42)

			var parsed map[string]any
			err := json.Unmarshal(buf.Bytes(), &parsed)
			Expect(err).NotTo(HaveOccurred())
			Expect(parsed["msg"]).To(Equal("structured"))
			Expect(parsed["count"]).To(BeNumerically("==", 42))
		})

		It("creates a pretty logger", func() {
			var buf bytes.Buffer
			l := logger.New(logger.WithWriter(&buf), logger.WithPretty(true))
			l.Info("pretty output")

			Expect(buf.String()).To(ContainSubstring("pretty output"))
		})

		It("writes to multiple writers", func() {
			var a, b bytes.Buffer
			l := logger.New(logger.WithWriters(&a, &b))
			l.Info("fanout")

			Expect(a.String()).To(ContainSubstring("fanout"))
			Expect(b.String()).To(ContainSubstring("fanout"))
		})
	})

	Describe("Multi", func() {
		It("dispatches records to all loggers", func() {
			var text, jsonBuf bytes.Buffer
			textLogger := logger.New(logger.WithWriter(&text))
			jsonLogger := logger.New(logger.WithWriter(&jsonBuf), logger.WithJSON(true))

			l := logger.Multi(textLogger, jsonLogger)
			l.Info("both")

			Expect(text.String()).To(ContainSubstring("both"))
			Expect(jsonBuf.String()).To(ContainSubstring("both"))
		})

		It("respects each handler's level", func() {
			var debugBuf, infoBuf bytes.Buffer
			debugLogger := logger.New(logger.WithWriter(&debugBuf), logger.WithDebug(true))
			infoLogger := logger.New(logger.WithWriter(&infoBuf))

			l := logger.Multi(debugLogger, infoLogger)
			l.Debug("only debug")

			Expect(debugBuf.String()).To(ContainSubstring("only debug"))
			Expect(infoBuf.String()).To(BeEmpty())
		})

		It("reports enabled when any handler is enabled", func() {
			var buf bytes.Buffer
			debugLogger := logger.New(logger.WithWriter(&buf), logger.WithDebug(true))

			l := logger.Multi(debugLogger)
			Expect(l.Handler().Enabled(context.Background(), slog.LevelDebug)).To(BeTrue())
		})

		It("propagates WithAttrs to children", func() {
			var buf bytes.Buffer
			base := logger.New(logger.WithWriter(&buf))

			l := logger.Multi(base).With("request_id", "abc123")
			l.Info("tagged")

			out := buf.String()
			Expect(out).To(ContainSubstring("tagged"))
			Expect(strings.Contains(out, "abc123")).To(BeTrue())
		})
	})
})

package config_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/hearthside/loom/pkg/config"
)

var _ = Describe("Configer", func() {
	var tmpDir string

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "loom-config-test-*")
		Expect(err).NotTo(HaveOccurred())
		tmpDir, err = filepath.EvalSymlinks(tmpDir)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	It("returns defaults when no config file exists", func() {
		cfger, err := config.NewConfiger(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		cfg, err := cfger.LoadConfig()
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Storage.Provider).To(Equal("sqlite"))
		Expect(cfg.API.Listen).To(Equal(":8090"))
		Expect(cfg.Embedding.Dimensions).To(Equal(uint(768)))
		Expect(cfg.Events.Provider).To(Equal("nop"))
	})

	It("round-trips save and load", func() {
		cfger, err := config.NewConfiger(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		cfg := config.NewDefaultConfig()
		cfg.Storage.Provider = "postgres"
		cfg.Storage.PostgresDSN = "postgres://loom@localhost/loom"
		Expect(cfger.SaveConfig(cfg)).To(Succeed())

		loaded, err := cfger.LoadConfig()
		Expect(err).NotTo(HaveOccurred())
		Expect(loaded.Storage.Provider).To(Equal("postgres"))
		Expect(loaded.Storage.PostgresDSN).To(Equal("postgres://loom@localhost/loom"))
	})

	It("fills zero-value fields from defaults on load", func() {
		path := filepath.Join(tmpDir, "config.toml")
		Expect(os.WriteFile(path, []byte("[api]\nlisten = \":9999\"\n"), 0o600)).To(Succeed())

		cfger, err := config.NewConfiger(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		cfg, err := cfger.LoadConfig()
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.API.Listen).To(Equal(":9999"))
		Expect(cfg.Generation.Provider).To(Equal("ollama"))
		Expect(cfg.Embedding.Model).To(Equal("nomic-embed-text"))
	})

	It("sets and gets values by dotted key", func() {
		cfger, err := config.NewConfiger(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		Expect(cfger.SetConfigValue("events.provider", "kafka")).To(Succeed())
		Expect(cfger.SetConfigValue("events.brokers", "localhost:9092")).To(Succeed())

		value, err := cfger.GetConfigValue("events.provider")
		Expect(err).NotTo(HaveOccurred())
		Expect(value).To(Equal("kafka"))
	})

	It("rejects unknown keys", func() {
		cfger, err := config.NewConfiger(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		Expect(cfger.SetConfigValue("nope.nothing", "x")).NotTo(Succeed())
		_, err = cfger.GetConfigValue("nope.nothing")
		Expect(err).To(HaveOccurred())
	})

	It("rejects non-numeric embedding dimensions", func() {
		cfger, err := config.NewConfiger(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		Expect(cfger.SetConfigValue("embedding.dimensions", "lots")).NotTo(Succeed())
	})
})

var _ = Describe("ParseConfigTOML", func() {
	It("parses a sectioned TOML document", func() {
		cfg, err := config.ParseConfigTOML([]byte(`
[storage]
provider = "inmemory"

[generation]
provider = "anthropic"
model = "claude-sonnet-4-5"
`))
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Storage.Provider).To(Equal("inmemory"))
		Expect(cfg.Generation.Provider).To(Equal("anthropic"))
	})

	It("rejects unsupported versions", func() {
		_, err := config.ParseConfigTOML([]byte("version = 42\n"))
		Expect(err).To(HaveOccurred())
	})

	It("rejects malformed TOML", func() {
		_, err := config.ParseConfigTOML([]byte("[storage\nprovider ="))
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("config keys", func() {
	It("validates known keys", func() {
		Expect(config.IsValidConfigKey("storage.sqlite_path")).To(BeTrue())
		Expect(config.IsValidConfigKey("storage.sqlite")).To(BeFalse())
	})

	It("lists every key exactly once", func() {
		keys := config.ValidConfigKeys()
		seen := map[string]bool{}
		for _, k := range keys {
			Expect(seen[k]).To(BeFalse())
			seen[k] = true
			Expect(config.IsValidConfigKey(k)).To(BeTrue())
		}
		Expect(keys).To(ContainElement("events.topic"))
	})
})

var _ = Describe("InitViper", func() {
	var tmpDir string

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "loom-viper-test-*")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	It("applies defaults with no config file", func() {
		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(v.GetString("api.listen")).To(Equal(":8090"))
	})

	It("lets environment variables override file values", func() {
		path := filepath.Join(tmpDir, "config.toml")
		Expect(os.WriteFile(path, []byte("[api]\nlisten = \":9999\"\n"), 0o600)).To(Succeed())

		Expect(os.Setenv("LOOM_API_LISTEN", ":7777")).To(Succeed())
		DeferCleanup(func() { os.Unsetenv("LOOM_API_LISTEN") })

		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(v.GetString("api.listen")).To(Equal(":7777"))
	})
})

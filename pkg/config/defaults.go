package config

const (
	defaultStorageProvider = "sqlite"
	defaultSQLiteFile      = "loom.db"

	defaultAPIListen = ":8090"

	defaultGenerationProvider = "ollama"
	defaultGenerationModel    = "llama3.2"
	defaultGenerationTarget   = "http://localhost:11434"

	defaultEmbeddingProvider   = "ollama"
	defaultEmbeddingTarget     = "http://localhost:11434"
	defaultEmbeddingModel      = "nomic-embed-text"
	defaultEmbeddingDimensions = 768

	defaultEventsProvider = "nop"
	defaultEventsTopic    = "loom.stories"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Storage: StorageConfig{
			Provider: defaultStorageProvider,
		},
		API: APIConfig{
			Listen: defaultAPIListen,
		},
		Generation: GenerationConfig{
			Provider: defaultGenerationProvider,
			Model:    defaultGenerationModel,
			Target:   defaultGenerationTarget,
		},
		Embedding: EmbeddingConfig{
			Provider:   defaultEmbeddingProvider,
			Target:     defaultEmbeddingTarget,
			Model:      defaultEmbeddingModel,
			Dimensions: defaultEmbeddingDimensions,
		},
		Events: EventsConfig{
			Provider: defaultEventsProvider,
			Topic:    defaultEventsTopic,
		},
	}
}

package config

const (
	DefaultStorageBackend = "json"
	DefaultStorageDir     = ".stagegate"
	DefaultArtifactsDir   = "dist"
	DefaultMaxCycles      = 3
	DefaultProducer       = "default"
)

// DefaultStages returns the standard product pipeline: requirements
// through implementation plan, all bound to the default producer.
func DefaultStages() []StageConfig {
	return []StageConfig{
		{
			Name:         "requirements",
			Producer:     DefaultProducer,
			ArtifactType: "requirements",
			Task:         "Analyze the following product idea and produce a business requirements document:\n\n{idea}",
		},
		{
			Name:         "prd",
			Producer:     DefaultProducer,
			ArtifactType: "prd document",
			Task:         "Write a detailed PRD for {idea} based on these requirements:\n\n{previous}",
		},
		{
			Name:         "architecture",
			Producer:     DefaultProducer,
			ArtifactType: "architecture document",
			Task:         "Design the technical architecture for the product described in this PRD:\n\n{previous}",
		},
		{
			Name:         "task list",
			Producer:     DefaultProducer,
			ArtifactType: "task list",
			Task:         "Break the following architecture into a granular engineering task list:\n\n{previous}",
		},
		{
			Name:         "tickets",
			Producer:     DefaultProducer,
			ArtifactType: "tickets",
			Task: "Convert the following task list into epics and stories. Use '## Epic: <title>' " +
				"and '### Story: <title>' headings:\n\n{previous}",
			Tickets: true,
		},
		{
			Name:         "implementation plan",
			Producer:     DefaultProducer,
			ArtifactType: "implementation plan",
			Task:         "Write an implementation plan covering the following epics and stories:\n\n{previous}",
		},
	}
}

// DefaultConfig returns a Config with all default values applied.
func DefaultConfig() *Config {
	return &Config{
		Storage: StorageConfig{
			Backend: DefaultStorageBackend,
			Dir:     DefaultStorageDir,
		},
		Revision: RevisionConfig{
			MaxCycles:           DefaultMaxCycles,
			AutoApproveAfterMax: true,
		},
		Artifacts: ArtifactsConfig{
			Dir: DefaultArtifactsDir,
		},
		Stages: DefaultStages(),
	}
}

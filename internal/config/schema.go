package config

// Config is the top-level YAML structure.
type Config struct {
	Version   string        `yaml:"version"`
	Server    ServerConf    `yaml:"server"`
	App       AppConf       `yaml:"app"`
	Messaging MessagingConf `yaml:"messaging"`
	Identity  IdentityConf  `yaml:"identity"`
}

// ServerConf holds the HTTP ingestion surface settings.
type ServerConf struct {
	Addr string `yaml:"addr"`
	// QueueWarnDepth is the gated-queue depth above which readiness degrades.
	QueueWarnDepth int `yaml:"queue_warn_depth"`
}

// AppConf identifies the host application.
type AppConf struct {
	// ID is the bundle/package identifier carried in push profile payloads.
	ID string `yaml:"id"`
}

// MessagingConf is published as the configuration shared state.
type MessagingConf struct {
	EventDatasetID string `yaml:"event_dataset_id"`
}

// IdentityConf seeds the identity shared state. An empty ECID leaves the
// identity state unpublished, keeping the queue gated until one arrives.
type IdentityConf struct {
	ECID string `yaml:"ecid"`
}

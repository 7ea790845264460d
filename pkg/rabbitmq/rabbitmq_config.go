package rabbitmq

type RabbitmqConfigJson struct {
	URL        string `json:"url"`
	Exchange   string `json:"exchange"`
	MaxRetries int    `json:"max_retries"`
}

type RabbitmqConfig struct {
	URL        string
	Exchange   string
	MaxRetries int
}

const (
	DefaultExchange   = "agent-proof"
	DefaultMaxRetries = 3
)

func (rcj RabbitmqConfigJson) ConvertToDomain() RabbitmqConfig {
	cfg := RabbitmqConfig{
		URL:        rcj.URL,
		Exchange:   rcj.Exchange,
		MaxRetries: rcj.MaxRetries,
	}
	if cfg.Exchange == "" {
		cfg.Exchange = DefaultExchange
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	return cfg
}

func (rc RabbitmqConfig) Enabled() bool {
	return rc.URL != ""
}

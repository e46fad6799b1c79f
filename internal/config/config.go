package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

var singleConfig *Config = nil

type Config struct {
	Database *dbConfig
	Service  *svcConfig
}

type dbConfig struct {
	Type     string `envconfig:"DB_TYPE" default:"pgsql"`
	Hostname string `envconfig:"DB_HOST" default:"localhost"`
	Port     string `envconfig:"DB_PORT" default:"5432"`
	Name     string `envconfig:"DB_NAME" default:"draftforge"`
	User     string `envconfig:"DB_USER" default:"admin"`
	Password string `envconfig:"DB_PASS" default:"adminpass"`
}

type svcConfig struct {
	Address        string `envconfig:"DRAFTFORGE_ADDRESS" default:":3443"`
	MetricsAddress string `envconfig:"DRAFTFORGE_METRICS_ADDRESS" default:":8080"`
	BaseUrl        string `envconfig:"DRAFTFORGE_BASE_URL" default:"https://localhost:3443"`
	LogLevel       string `envconfig:"DRAFTFORGE_LOG_LEVEL" default:"info"`

	MigrationFolder string `envconfig:"DRAFTFORGE_MIGRATIONS_FOLDER" default:""`

	Generation generationConfig
	Queue      queueConfig
	Kafka      kafkaConfig
}

// generationConfig points at the section content provider.
type generationConfig struct {
	URL     string        `envconfig:"DRAFTFORGE_GENERATION_URL" default:"http://localhost:9090"`
	Token   string        `envconfig:"DRAFTFORGE_GENERATION_TOKEN" default:""`
	Timeout time.Duration `envconfig:"DRAFTFORGE_GENERATION_TIMEOUT" default:"120s"`
}

// queueConfig carries the broker-level delivery budget and the
// per-section production budget. The two are independent: the broker
// redelivers whole jobs, the worker retries single sections.
type queueConfig struct {
	Workers            int           `envconfig:"DRAFTFORGE_QUEUE_WORKERS" default:"4"`
	MaxDeliveries      int           `envconfig:"DRAFTFORGE_QUEUE_MAX_DELIVERIES" default:"5"`
	SectionMaxAttempts int           `envconfig:"DRAFTFORGE_SECTION_MAX_ATTEMPTS" default:"3"`
	BackoffBase        time.Duration `envconfig:"DRAFTFORGE_QUEUE_BACKOFF_BASE" default:"2s"`
	BackoffMultiplier  float64       `envconfig:"DRAFTFORGE_QUEUE_BACKOFF_MULTIPLIER" default:"2.0"`
}

type kafkaConfig struct {
	Brokers  []string `envconfig:"DRAFTFORGE_KAFKA_BROKERS" default:""`
	Topic    string   `envconfig:"DRAFTFORGE_KAFKA_TOPIC" default:""`
	ClientID string   `envconfig:"DRAFTFORGE_KAFKA_CLIENT_ID" default:"draftforge"`
}

func New() (*Config, error) {
	if singleConfig == nil {
		singleConfig = new(Config)
		if err := envconfig.Process("", singleConfig); err != nil {
			return nil, err
		}
	}
	return singleConfig, nil
}

// NewDefault returns a config suitable for local tests: in-memory
// sqlite, no kafka, local generation endpoint.
func NewDefault() *Config {
	return &Config{
		Database: &dbConfig{
			Type: "sqlite",
			Name: ":memory:",
		},
		Service: &svcConfig{
			Address:  ":3443",
			LogLevel: "debug",
			Generation: generationConfig{
				URL:     "http://localhost:9090",
				Timeout: 10 * time.Second,
			},
			Queue: queueConfig{
				Workers:            1,
				MaxDeliveries:      3,
				SectionMaxAttempts: 3,
				BackoffBase:        time.Second,
				BackoffMultiplier:  2.0,
			},
		},
	}
}

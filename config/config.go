package config

import "time"

type Config struct {
	AppName    string `env:"APP_NAME" env-default:"theyownwhat"`
	LogLevel   string `env:"LOG_LEVEL" env-default:"info"`
	PrettyLogs bool   `env:"PRETTY_LOGS" env-default:"false"`

	// Status server (`serve` command)
	Port                          int `env:"PORT" env-default:"3004" validate:"gt=0,lt=65536"`
	HttpServerWriteTimeoutSeconds int `env:"HTTP_SERVER_WRITE_TIMEOUT_SECONDS" env-default:"10"`
	HttpServerReadTimeoutSeconds  int `env:"HTTP_SERVER_READ_TIMEOUT_SECONDS" env-default:"10"`

	// PostgreSQL
	DatabaseDriver              string        `env:"DB_DRIVER" env-default:"postgres"`
	DatabaseHost                string        `env:"DB_HOST" env-default:"localhost"`
	DatabasePort                string        `env:"DB_PORT" env-default:"5432"`
	DatabaseUserName            string        `env:"DB_USER_NAME" env-default:""`
	DatabasePassword            string        `env:"DB_PASSWORD" env-default:""`
	DatabaseName                string        `env:"DB_NAME" env-default:"theyownwhat"`
	DatabaseSSLMode             string        `env:"DB_SQL_MODE" env-default:"disable"`
	DatabaseReconnectRetryCount int           `env:"DB_RECONNECT_RETRY_COUNT" env-default:"3"`
	DatabaseMaxOpenConns        int           `env:"DB_MAX_OPEN_CONNS" env-default:"25"`
	DatabaseMaxIdleConns        int           `env:"DB_MAX_IDLE_CONNS" env-default:"10"`
	DatabaseConnMaxLifetime     time.Duration `env:"DB_CONN_MAX_LIFETIME" env-default:"10s"`
	DatabaseMigrationFolderPath string        `env:"DB_MIGRATION_FOLDER_PATH" env-default:"db/pg"`
	DatabaseMigrationVersion    int           `env:"DB_MIGRATION_VERSION" env-default:"0"`
	DatabaseMigrationForce      int           `env:"DB_MIGRATION_FORCE" env-default:"0"`

	// Resolution thresholds. All empirically tuned; keep them in the
	// environment rather than in code.
	EmailGroupMaxSize   int `env:"EMAIL_GROUP_MAX_SIZE" env-default:"50" validate:"gte=2"`
	AddressGroupMaxSize int `env:"ADDRESS_GROUP_MAX_SIZE" env-default:"250" validate:"gte=2"`
	NetworkMaxDepth     int `env:"NETWORK_MAX_DEPTH" env-default:"5" validate:"gte=1,lte=20"`

	// Publish validation: warn when the shadow entity count diverges from
	// the live count by more than this ratio.
	PublishDeltaWarnRatio float64 `env:"PUBLISH_DELTA_WARN_RATIO" env-default:"0.5" validate:"gt=0"`

	// Advisory lock key guarding the rebuild cycle.
	RebuildLockKey string `env:"REBUILD_LOCK_KEY" env-default:"theyownwhat.rebuild"`

	// Kafka run-event emission (optional)
	KafkaEnabled      bool     `env:"KAFKA_ENABLED" env-default:"false"`
	KafkaBrokers      []string `env:"KAFKA_BROKERS" env-default:"localhost:9092"`
	KafkaOutputTopic  string   `env:"KAFKA_OUTPUT_TOPIC" env-default:"ownership-events"`
	KafkaBatchSize    int      `env:"KAFKA_BATCH_SIZE" env-default:"100"`
	KafkaBatchTimeout int      `env:"KAFKA_BATCH_TIMEOUT_MS" env-default:"100"`
	KafkaRequiredAcks int      `env:"KAFKA_REQUIRED_ACKS" env-default:"1"`
	KafkaCompression  string   `env:"KAFKA_COMPRESSION" env-default:"snappy"`

	// Graph projection into Memgraph/Neo4j (optional)
	GraphProjectionEnabled bool   `env:"GRAPH_PROJECTION_ENABLED" env-default:"false"`
	GraphDBHost            string `env:"GRAPH_DB_HOST" env-default:"localhost"`
	GraphDBPort            int    `env:"GRAPH_DB_PORT" env-default:"7687"`
	GraphDBUser            string `env:"GRAPH_DB_USER" env-default:""`
	GraphDBPassword        string `env:"GRAPH_DB_PASSWORD" env-default:""`
}

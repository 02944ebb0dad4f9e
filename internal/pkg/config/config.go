package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port      string        `env:"PORT,       default=8080"`
	Env       string        `env:"ENV,        default=development"`
	JWTSecret string        `env:"JWT_SECRET"`
	JWTTTL    time.Duration `env:"JWT_TTL,    default=24h"`
	LogLevel  string        `env:"LOG_LEVEL,  default=info"`

	Mongo MongoConfig
	Redis RedisConfig
	Chat  ChatConfig
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=chat_relay"`
}

type RedisConfig struct {
	Addr string `env:"REDIS_ADDR, default=localhost:6379"`
	DB   int    `env:"REDIS_DB,   default=0"`
}

// ChatConfig holds the relay policy knobs. The defaults mirror the open
// relay behaviour: client-asserted sender names and sender echo on.
type ChatConfig struct {
	// RequireAuth gates chat participation on a valid session token; the
	// token identity then overrides the claimed sender.
	RequireAuth bool `env:"CHAT_REQUIRE_AUTH,   default=false"`
	// EchoSender delivers each message back to its sender.
	EchoSender bool `env:"CHAT_ECHO_SENDER,    default=true"`
	// HistoryReplay is how many recent messages a new session receives on
	// connect. Zero disables replay.
	HistoryReplay int `env:"CHAT_HISTORY_REPLAY, default=0"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	var cfg Config
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return &cfg
}

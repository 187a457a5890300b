package config

import (
	"time"
)

type Config struct {
	BaseURL  string
	HttpPort int
	Db       struct {
		Driver      string
		Dsn         string
		Automigrate bool
	}
	Jwt struct {
		SecretKey string
	}
	Notifications struct {
		Email string
	}
	Smtp struct {
		Host     string
		Port     int
		Username string
		Password string
		From     string
	}
	Redis struct {
		Addr string
		DB   int
	}
	Queue struct {
		Backend           string
		BatchSize         int
		PollingInterval   time.Duration
		Backoff           time.Duration
		DeadLetterEnabled bool
	}
	KafkaServers string
	Pricing      struct {
		FeedURL         string
		QuoteCurrency   string
		SupportedAssets []string
		CacheTTL        time.Duration
		FetchTimeout    time.Duration
	}
}

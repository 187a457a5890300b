package mocks

import "github.com/cradoe/coinledger/internal/config"

var MockConfig = func() *config.Config {
	cfg := &config.Config{
		BaseURL:      "http://localhost",
		HttpPort:     8080,
		KafkaServers: "localhost:9092",
	}

	cfg.Db.Driver = "memory"
	cfg.Db.Dsn = "mock_dsn"
	cfg.Jwt.SecretKey = "test_secret"
	cfg.Notifications.Email = "no-reply@example.com"

	cfg.Smtp.Host = "smtp.example.com"
	cfg.Smtp.Port = 587
	cfg.Smtp.Username = "user@example.com"
	cfg.Smtp.Password = "password"
	cfg.Smtp.From = "no-reply@example.com"

	cfg.Redis.Addr = "localhost:6379"
	cfg.Queue.Backend = "redis"
	cfg.Pricing.SupportedAssets = []string{"BTC", "ETH"}

	return cfg
}()

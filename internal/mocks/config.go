package mocks

import "github.com/rentiva/veriprop/internal/config"

var MockConfig = newMockConfig()

func newMockConfig() *config.Config {
	var cfg config.Config

	cfg.BaseURL = "http://localhost"
	cfg.HttpPort = 8080
	cfg.Db.Dsn = "mock_dsn"
	cfg.Db.Automigrate = false
	cfg.Jwt.SecretKey = "test_secret"
	cfg.Notifications.Email = "no-reply@example.com"
	cfg.Smtp.Host = "smtp.example.com"
	cfg.Smtp.Port = 587
	cfg.Smtp.Username = "user@example.com"
	cfg.Smtp.Password = "password"
	cfg.Smtp.From = "no-reply@example.com"
	cfg.Redis.Addr = "localhost:6379"
	cfg.KafkaServers = "localhost:9092"

	return &cfg
}

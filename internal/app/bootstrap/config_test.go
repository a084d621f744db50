package bootstrap

import (
	"testing"
	"time"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

func validAppConfig() AppConfig {
	return AppConfig{
		MongoURI:    "mongodb://localhost:27017",
		TokenSecret: "a-strong-secret-for-tests",
		TokenExpiry: 24 * time.Hour,
	}
}

func TestValidateConfig(t *testing.T) {
	log := zap.NewNop()

	if err := ValidateConfig(&config.CoreConfig{Env: "dev"}, validAppConfig(), log); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}

	bad := validAppConfig()
	bad.MongoURI = "not-a-mongo-uri"
	if err := ValidateConfig(&config.CoreConfig{Env: "dev"}, bad, log); err == nil {
		t.Error("invalid mongo URI accepted")
	}

	defaulted := validAppConfig()
	defaulted.TokenSecret = "dev-only-change-me-please-0123456789ABCDEF"
	if err := ValidateConfig(&config.CoreConfig{Env: "prod"}, defaulted, log); err == nil {
		t.Error("default token secret accepted in prod")
	}
	if err := ValidateConfig(&config.CoreConfig{Env: "dev"}, defaulted, log); err != nil {
		t.Errorf("default token secret must be fine in dev: %v", err)
	}

	zero := validAppConfig()
	zero.TokenExpiry = 0
	if err := ValidateConfig(&config.CoreConfig{Env: "dev"}, zero, log); err == nil {
		t.Error("zero token expiry accepted")
	}
}

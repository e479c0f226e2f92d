package config

import "os"

type Config struct {
	MongoURI       string
	MongoDatabase  string
	RedisAddr      string
	HTTPPort       string
	JWTSecret      string
	QRTokenSecret  string
	AdminInviteKey string
}

func Load() *Config {
	return &Config{
		MongoURI:       getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase:  getEnv("MONGO_DATABASE", "qrhunt"),
		RedisAddr:      getEnv("REDIS_ADDR", "localhost:6379"),
		HTTPPort:       getEnv("PORT", "8080"),
		JWTSecret:      getEnv("JWT_SECRET", "dev-secret-change-in-production"),
		QRTokenSecret:  getEnv("QR_TOKEN_SECRET", "dev-qr-secret-change-in-production"),
		AdminInviteKey: os.Getenv("ADMIN_INVITE_KEY"),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

package config

import (
	"log"
	"os"
)

type Config struct {
	MySQLDSN     string
	JWTSecret    string
	AdminSecret  string
	Port         string
	AllowOrigins []string
}

func getenv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		if def == "" {
			log.Fatalf("missing env %s", key)
		}
		return def
	}
	return v
}

func Load() Config {
	return Config{
		MySQLDSN:     getenv("MYSQL_DSN", "curator:curator@tcp(127.0.0.1:3306)/curator"),
		JWTSecret:    getenv("JWT_SECRET", ""),
		AdminSecret:  getenv("ADMIN_SECRET", ""),
		Port:         getenv("PORT", "8080"),
		AllowOrigins: []string{"http://localhost:3000"},
	}
}

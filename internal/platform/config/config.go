package config

import (
	"os"
	"time"
)

// Server captures process level configuration.
type Server struct {
	Addr         string
	StoreBackend string // "memory" or "postgres"
	PostgresDSN  string
	SignOutURL   string
}

// ShutdownTimeout bounds graceful shutdown on SIGINT.
var ShutdownTimeout = 10 * time.Second

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("BREACH_NOTICE_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	backend := os.Getenv("BREACH_NOTICE_STORE")
	if backend == "" {
		backend = "memory"
	}

	signOut := os.Getenv("BREACH_NOTICE_SIGN_OUT_URL")
	if signOut == "" {
		signOut = "/sign-out"
	}

	return Server{
		Addr:         addr,
		StoreBackend: backend,
		PostgresDSN:  os.Getenv("BREACH_NOTICE_POSTGRES_DSN"),
		SignOutURL:   signOut,
	}
}

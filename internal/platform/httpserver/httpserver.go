package httpserver

import (
	"net/http"
	"time"
)

// New returns an http.Server with sane timeouts for the wizard's form traffic.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
	}
}

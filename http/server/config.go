package server

import (
	"net"
	"time"

	"github.com/spf13/cast"
)

// Config holds the listener and timeout settings of an HTTPServer.
type Config struct {
	Host string `yaml:"host" validate:"required"`
	Port int    `yaml:"port" validate:"required"`

	// HideErrorDetails drops error traces and details from responses.
	HideErrorDetails bool `yaml:"hide_error_details"`

	ReadTimeout  time.Duration `yaml:"read_timeout"  default:"5s"`
	WriteTimeout time.Duration `yaml:"write_timeout" default:"5s"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"  default:"120s"`

	// ShutdownTimeout bounds how long Stop waits for in-flight requests.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`

	// BodyLimit is the maximum request body size in bytes.
	BodyLimit int `yaml:"body_limit" default:"4194304"`
}

// Address returns the listen address in host:port form.
func (c Config) Address() string {
	return net.JoinHostPort(c.Host, cast.ToString(c.Port))
}

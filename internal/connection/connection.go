// Package connection describes how to reach a search cluster: host, port,
// scheme and optional static credentials.
package connection

import (
	"errors"
	"fmt"
	"strconv"
)

const (
	DefaultServer   = "localhost"
	DefaultPort     = 9200
	DefaultProtocol = "http"
)

// ErrInvalidConnection is returned when an operation receives a descriptor it cannot use
var ErrInvalidConnection = errors.New("connection info must be a valid *connection.Info")

// Info is an immutable connection descriptor
type Info struct {
	server   string
	port     int
	protocol string
	username string
	password string
}

// Option customizes an Info at construction time
type Option func(*Info)

// WithServer sets the host name or address of the cluster
func WithServer(server string) Option {
	return func(i *Info) {
		i.server = server
	}
}

// WithPort sets the HTTP port of the cluster
func WithPort(port int) Option {
	return func(i *Info) {
		i.port = port
	}
}

// WithProtocol sets the URL scheme (http or https)
func WithProtocol(protocol string) Option {
	return func(i *Info) {
		i.protocol = protocol
	}
}

// WithCredentials sets static basic-auth credentials
func WithCredentials(username, password string) Option {
	return func(i *Info) {
		i.username = username
		i.password = password
	}
}

// New creates a descriptor, defaulting to http://localhost:9200 without credentials
func New(opts ...Option) *Info {
	info := &Info{
		server:   DefaultServer,
		port:     DefaultPort,
		protocol: DefaultProtocol,
	}
	for _, opt := range opts {
		opt(info)
	}
	return info
}

// With returns a copy of i with opts applied; i itself is left untouched
func (i *Info) With(opts ...Option) *Info {
	c := *i
	for _, opt := range opts {
		opt(&c)
	}
	return &c
}

// Verify reports whether info can be used to issue requests
func Verify(info *Info) error {
	if info == nil {
		return ErrInvalidConnection
	}
	return nil
}

// Server returns the cluster host name
func (i *Info) Server() string { return i.server }

// Port returns the cluster port
func (i *Info) Port() int { return i.port }

// Protocol returns the URL scheme, http or https
func (i *Info) Protocol() string { return i.protocol }

// Username returns the static username, empty when none is set
func (i *Info) Username() string { return i.username }

// Password returns the static password, empty when none is set
func (i *Info) Password() string { return i.password }

// HasCredentials reports whether a username was configured
func (i *Info) HasCredentials() bool {
	return i.username != ""
}

// BaseURL returns the cluster root URL without credentials
func (i *Info) BaseURL() string {
	return fmt.Sprintf("%s://%s", i.protocol, i.hostPort())
}

// Endpoint returns the fully-qualified URL for a path relative to the cluster root.
// Credentials are embedded as userinfo only when a username is set.
func (i *Info) Endpoint(path string) string {
	if !i.HasCredentials() {
		return fmt.Sprintf("%s://%s/%s", i.protocol, i.hostPort(), path)
	}
	return fmt.Sprintf("%s://%s:%s@%s/%s", i.protocol, i.username, i.password, i.hostPort(), path)
}

// String renders the descriptor with the password masked
func (i *Info) String() string {
	if !i.HasCredentials() {
		return i.BaseURL()
	}
	return fmt.Sprintf("%s://%s:***@%s", i.protocol, i.username, i.hostPort())
}

func (i *Info) hostPort() string {
	return i.server + ":" + strconv.Itoa(i.port)
}

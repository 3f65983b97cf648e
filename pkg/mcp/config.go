// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package mcp

import (
	"fmt"
	"strings"
)

// RetryPolicy controls how many times the registry retries a failing
// `initialize` call before giving up on a server.
type RetryPolicy struct {
	MaxAttempts int `yaml:"max_attempts"`
	BackoffMS   int `yaml:"backoff_ms"`
}

// defaultRetryPolicy is applied when a ServerConfig carries no RetryPolicy.
// Two retries at a quarter-second is enough to ride out typical MCP server
// startup flakiness without making discovery noticeably slow.
var defaultRetryPolicy = RetryPolicy{MaxAttempts: 2, BackoffMS: 250}

func (p *RetryPolicy) orDefault() RetryPolicy {
	if p == nil {
		return defaultRetryPolicy
	}
	return *p
}

// ServerConfig describes one MCP server this runtime should connect to.
type ServerConfig struct {
	Name        string            `yaml:"name"`
	Transport   string            `yaml:"transport"`
	Command     string            `yaml:"command,omitempty"`
	Args        []string          `yaml:"args,omitempty"`
	Env         map[string]string `yaml:"env,omitempty"`
	WorkDir     string            `yaml:"work_dir,omitempty"`
	URL         string            `yaml:"url,omitempty"`
	AuthToken   string            `yaml:"auth_token,omitempty"`
	TimeoutSecs uint32            `yaml:"timeout_secs"`
	RetryPolicy *RetryPolicy      `yaml:"retry_policy,omitempty"`

	// CACertificate and InsecureSkipVerify configure the TLS transport
	// used for an https URL, for servers behind a private CA or a
	// self-signed cert during development. Both are ignored by the
	// stdio transport.
	CACertificate      string `yaml:"ca_certificate,omitempty"`
	InsecureSkipVerify bool   `yaml:"insecure_skip_verify,omitempty"`
}

// Validate enforces the invariants a ServerConfig must satisfy before a
// client can be built from it.
func (c *ServerConfig) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("server config: name is required")
	}
	switch c.Transport {
	case "stdio":
		if strings.TrimSpace(c.Command) == "" {
			return fmt.Errorf("server %q: stdio transport requires a command", c.Name)
		}
	case "http":
		if !strings.HasPrefix(c.URL, "http://") && !strings.HasPrefix(c.URL, "https://") {
			return fmt.Errorf("server %q: http transport requires an http(s) url, got %q", c.Name, c.URL)
		}
	default:
		return ErrUnknownTransportKind(c.Transport)
	}
	return nil
}

// SetDefaults fills in zero-valued fields with this module's defaults.
func (c *ServerConfig) SetDefaults(defaultTimeoutSecs uint32) {
	if c.TimeoutSecs == 0 {
		c.TimeoutSecs = defaultTimeoutSecs
	}
}

// Config is the top-level MCP configuration a host hands to Registry.
// It is a plain data shape: this package never reads or writes it from
// disk, never expands `~`, and performs no persistence of its own — a
// host's own config loader is expected to produce one of these.
type Config struct {
	Enabled            bool           `yaml:"enabled"`
	DefaultTimeoutSecs uint32         `yaml:"default_timeout_secs"`
	MaxConnections     uint32         `yaml:"max_connections"`
	Servers            []ServerConfig `yaml:"servers"`
}

// SetDefaults fills in zero-valued top-level fields and cascades the
// default timeout down to servers that don't specify their own.
func (c *Config) SetDefaults() {
	if c.DefaultTimeoutSecs == 0 {
		c.DefaultTimeoutSecs = 30
	}
	if c.MaxConnections == 0 {
		c.MaxConnections = 16
	}
	for i := range c.Servers {
		c.Servers[i].SetDefaults(c.DefaultTimeoutSecs)
	}
}

// Validate validates every configured server.
func (c *Config) Validate() error {
	seen := make(map[string]bool, len(c.Servers))
	for i := range c.Servers {
		if err := c.Servers[i].Validate(); err != nil {
			return err
		}
		if seen[c.Servers[i].Name] {
			return fmt.Errorf("duplicate server name %q", c.Servers[i].Name)
		}
		seen[c.Servers[i].Name] = true
	}
	return nil
}

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
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/mihailnica10/zeroclaw/pkg/observability"
	"github.com/mihailnica10/zeroclaw/pkg/security"
	"github.com/mihailnica10/zeroclaw/pkg/tool"
)

// Registry discovers tools across a set of configured MCP servers and
// hands the caller back adapted tool.Tool values. It retains nothing
// itself after DiscoverTools returns: each tool's shared client is owned
// by the adapters that were handed out for it, not by the registry.
type Registry struct {
	cfg         Config
	configPath  string
	policy      security.Policy
	secrets     security.SecretStore
	newStdio    func(ServerConfig) Client
	newHTTP     func(ServerConfig) Client
}

// NewRegistry builds a Registry. configPath is used only to resolve a
// secret store working directory for http auth tokens (mirroring the
// original's zeroclaw_dir derivation); it is never read or written.
func NewRegistry(cfg Config, configPath string, policy security.Policy, secrets security.SecretStore) *Registry {
	return &Registry{
		cfg:        cfg,
		configPath: configPath,
		policy:     policy,
		secrets:    secrets,
		newStdio:   func(sc ServerConfig) Client { return NewStdioClient(sc) },
		newHTTP:    func(sc ServerConfig) Client { return NewHttpClient(sc) },
	}
}

// DiscoverTools connects to every enabled server and returns the tools
// discovered across all of them. A single server's failure to register
// is logged and skipped — it never aborts discovery of the others. When
// cfg.Enabled is false, DiscoverTools performs no I/O and returns an
// empty slice.
func (r *Registry) DiscoverTools(ctx context.Context) ([]tool.Tool, error) {
	if !r.cfg.Enabled {
		return nil, nil
	}

	ctx, span := observability.Tracer().Start(ctx, observability.SpanDiscoverTools)
	defer span.End()

	var tools []tool.Tool
	for _, serverCfg := range r.cfg.Servers {
		serverTools, err := r.registerServer(ctx, serverCfg)
		if err != nil {
			slog.Warn("mcp: failed to register server, skipping", "server", serverCfg.Name, "error", err)
			continue
		}
		tools = append(tools, serverTools...)
	}

	span.SetAttributes(attribute.Int("mcp.tools_discovered", len(tools)))
	return tools, nil
}

// registerServer builds a client for one server, retries only its
// initialize handshake (list_tools is never retried), and fans out an
// adapter per tool it reports.
func (r *Registry) registerServer(ctx context.Context, serverCfg ServerConfig) ([]tool.Tool, error) {
	if err := serverCfg.Validate(); err != nil {
		return nil, err
	}

	resolvedCfg := serverCfg
	if resolvedCfg.Transport == "http" && resolvedCfg.AuthToken != "" {
		plaintext, err := r.resolveSecret(resolvedCfg.AuthToken)
		if err != nil {
			return nil, ErrInitializationFailedFor(resolvedCfg.Name, "failed to resolve auth token secret", err)
		}
		resolvedCfg.AuthToken = plaintext
	}

	var client Client
	switch resolvedCfg.Transport {
	case "stdio":
		client = r.newStdio(resolvedCfg)
	case "http":
		client = r.newHTTP(resolvedCfg)
	default:
		return nil, ErrUnknownTransportKind(resolvedCfg.Transport)
	}

	retry := resolvedCfg.RetryPolicy.orDefault()
	if err := r.initializeWithRetry(ctx, client, retry); err != nil {
		return nil, err
	}

	defs, err := client.ListTools(ctx)
	if err != nil {
		return nil, err
	}

	shared := newSharedClient(client)
	tools := make([]tool.Tool, 0, len(defs))
	for _, def := range defs {
		tools = append(tools, NewAdapter(shared, def, resolvedCfg.Name, r.policy))
	}
	return tools, nil
}

func (r *Registry) initializeWithRetry(ctx context.Context, client Client, retry RetryPolicy) error {
	var lastErr error
	attempts := retry.MaxAttempts + 1
	if attempts < 1 {
		attempts = 1
	}
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			time.Sleep(time.Duration(retry.BackoffMS) * time.Millisecond)
		}
		_, err := client.Initialize(ctx)
		if err == nil {
			return nil
		}
		lastErr = err
		slog.Debug("mcp: initialize attempt failed", "server", client.ServerName(), "attempt", attempt+1, "error", err)
	}
	return lastErr
}

func (r *Registry) resolveSecret(ciphertext string) (string, error) {
	if r.secrets == nil {
		return ciphertext, nil
	}
	return r.secrets.Decrypt(ciphertext)
}

// SecretWorkDir returns the directory a SecretStore should resolve
// relative paths against: the configured file's parent directory,
// falling back to "." when no config path was supplied. A host builds
// its SecretStore with this before passing it to NewRegistry; this
// package never touches the filesystem itself.
func (r *Registry) SecretWorkDir() string {
	if r.configPath == "" {
		return "."
	}
	if dir := filepath.Dir(r.configPath); dir != "" {
		return dir
	}
	return "."
}

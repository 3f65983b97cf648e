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
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"sync"
	"sync/atomic"
	"time"
)

// StdioClient speaks MCP to a child process over its stdin/stdout, framing
// each JSON-RPC message as one line of newline-delimited JSON. The process
// is spawned lazily, on the first call that needs it.
//
// Every request is sent and its response awaited under a single mutex:
// there is exactly one outstanding request at a time (lockstep), which is
// what makes correlating "the next line read" with "the request we just
// wrote" safe without a read-dispatch loop.
type StdioClient struct {
	serverName string
	command    string
	args       []string
	env        map[string]string
	workDir    string
	timeout    time.Duration

	mu      sync.Mutex
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	stdout  *bufio.Reader
	nextID  int64
	started bool

	// poisoned is set once a timeout or connection loss leaves the pipe's
	// framing in an unknown state; every subsequent call fails fast
	// instead of risking a desynced read matching the wrong response to
	// the wrong request.
	poisoned atomic.Bool
}

// NewStdioClient builds a client that will spawn cfg.Command lazily.
func NewStdioClient(cfg ServerConfig) *StdioClient {
	return &StdioClient{
		serverName: cfg.Name,
		command:    cfg.Command,
		args:       cfg.Args,
		env:        cfg.Env,
		workDir:    cfg.WorkDir,
		timeout:    time.Duration(cfg.TimeoutSecs) * time.Second,
	}
}

func (c *StdioClient) ServerName() string { return c.serverName }

func (c *StdioClient) ensureProcessRunning() error {
	if c.started {
		return nil
	}

	cmd := exec.Command(c.command, c.args...)
	if c.workDir != "" {
		cmd.Dir = c.workDir
	}
	if len(c.env) > 0 {
		env := cmd.Environ()
		for k, v := range c.env {
			env = append(env, fmt.Sprintf("%s=%s", k, v))
		}
		cmd.Env = env
	}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return ErrProcessSpawnFailed(c.serverName, "failed to open stdin pipe", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return ErrProcessSpawnFailed(c.serverName, "failed to open stdout pipe", err)
	}

	if err := cmd.Start(); err != nil {
		return ErrProcessSpawnFailed(c.serverName, fmt.Sprintf("failed to start %q", c.command), err)
	}

	c.cmd = cmd
	c.stdin = stdin
	c.stdout = bufio.NewReader(stdout)
	c.started = true
	return nil
}

// poison marks this client unusable for any future call.
func (c *StdioClient) poison() { c.poisoned.Store(true) }

// sendRequest writes req and reads exactly one line back as its response.
// Caller must hold c.mu.
func (c *StdioClient) sendRequest(ctx context.Context, req JsonRpcRequest) (*JsonRpcResponse, error) {
	if c.poisoned.Load() {
		return nil, ErrConnectionLostTo(c.serverName, "client is poisoned after a prior timeout or disconnect")
	}

	if c.timeout <= 0 {
		return nil, ErrTimedOut(c.serverName, "timeout of 0 treats every operation as already expired")
	}

	if err := c.ensureProcessRunning(); err != nil {
		return nil, err
	}

	line, err := json.Marshal(req)
	if err != nil {
		return nil, ErrJsonFailed("failed to marshal request", err)
	}
	line = append(line, '\n')

	type readResult struct {
		resp *JsonRpcResponse
		err  error
	}
	done := make(chan readResult, 1)

	go func() {
		if _, err := c.stdin.Write(line); err != nil {
			done <- readResult{err: ErrIoFailed(c.serverName, "failed to write request", err)}
			return
		}
		raw, err := c.stdout.ReadBytes('\n')
		if err != nil {
			done <- readResult{err: ErrConnectionLostTo(c.serverName, fmt.Sprintf("failed to read response: %v", err))}
			return
		}
		var resp JsonRpcResponse
		if err := json.Unmarshal(raw, &resp); err != nil {
			done <- readResult{err: ErrParseFailed(c.serverName, "failed to parse response", err)}
			return
		}
		done <- readResult{resp: &resp}
	}()

	deadline := c.timeout

	select {
	case <-ctx.Done():
		c.poison()
		return nil, ErrTimedOut(c.serverName, "request canceled: "+ctx.Err().Error())
	case <-time.After(deadline):
		c.poison()
		return nil, ErrTimedOut(c.serverName, fmt.Sprintf("request timed out after %s", deadline))
	case r := <-done:
		if r.err != nil {
			if me, ok := r.err.(*Error); ok && me.Kind == ErrConnectionLost {
				c.poison()
			}
			return nil, r.err
		}
		return r.resp, nil
	}
}

func (c *StdioClient) call(ctx context.Context, method string, params any) (*JsonRpcResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := atomic.AddInt64(&c.nextID, 1)
	req, err := NewRequest(NewIntID(id), method, params)
	if err != nil {
		return nil, ErrJsonFailed("failed to build request", err)
	}
	return c.sendRequest(ctx, req)
}

// notify sends a fire-and-forget JSON-RPC notification: no id, no response
// read back. Used for notifications/initialized, which no compliant server
// replies to.
func (c *StdioClient) notify(method string, params any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.poisoned.Load() {
		return ErrConnectionLostTo(c.serverName, "client is poisoned after a prior timeout or disconnect")
	}
	if err := c.ensureProcessRunning(); err != nil {
		return err
	}

	req, err := NewNotification(method, params)
	if err != nil {
		return ErrJsonFailed("failed to build notification", err)
	}
	line, err := json.Marshal(req)
	if err != nil {
		return ErrJsonFailed("failed to marshal notification", err)
	}
	line = append(line, '\n')
	if _, err := c.stdin.Write(line); err != nil {
		c.poison()
		return ErrIoFailed(c.serverName, "failed to write notification", err)
	}
	return nil
}

func (c *StdioClient) Initialize(ctx context.Context) (*InitializeResult, error) {
	params := InitializeParams{
		ProtocolVersion: ProtocolVersion,
		Capabilities:    ClientCapabilities{},
		ClientInfo:      ClientInfo{Name: "zeroclaw", Version: "0.1.0"},
	}

	resp, err := c.call(ctx, "initialize", params)
	if err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, ErrInitializationFailedFor(c.serverName, resp.Error.Message, resp.Error)
	}

	var result InitializeResult
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		return nil, ErrParseFailed(c.serverName, "failed to parse initialize result", err)
	}

	// Fire-and-forget: no MCP server ever replies to this notification,
	// so it must not be awaited like a request.
	if err := c.notify("notifications/initialized", nil); err != nil {
		slog.Warn("failed to send initialized notification", "server", c.serverName, "error", err)
	}

	return &result, nil
}

func (c *StdioClient) ListTools(ctx context.Context) ([]ToolDefinition, error) {
	resp, err := c.call(ctx, "tools/list", nil)
	if err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, ErrFromServer(c.serverName, resp.Error.Message)
	}
	var result ListToolsResult
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		return nil, ErrParseFailed(c.serverName, "failed to parse tools/list result", err)
	}
	return result.Tools, nil
}

func (c *StdioClient) CallTool(ctx context.Context, name string, arguments map[string]any) (*ToolCallResult, error) {
	resp, err := c.call(ctx, "tools/call", CallToolParams{Name: name, Arguments: arguments})
	if err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, ErrFromServer(c.serverName, resp.Error.Message)
	}
	var result ToolCallResult
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		return nil, ErrParseFailed(c.serverName, "failed to parse tools/call result", err)
	}
	return &result, nil
}

func (c *StdioClient) HealthCheck(ctx context.Context) bool {
	_, err := c.call(ctx, "ping", nil)
	return err == nil
}

func (c *StdioClient) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.started {
		return nil
	}
	if c.stdin != nil {
		_ = c.stdin.Close()
	}
	if c.cmd != nil && c.cmd.Process != nil {
		_ = c.cmd.Process.Kill()
		_ = c.cmd.Wait()
	}
	c.started = false
	return nil
}

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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/mihailnica10/zeroclaw/pkg/httpclient"
)

// HttpClient speaks MCP as one JSON-RPC POST per call against a stateless
// HTTP endpoint. There is no persistent connection and nothing to lazily
// spawn, so initialize/list_tools/call_tool are each an independent round
// trip; no retry happens at this layer (MaxRetries: 0) — the registry owns
// the one retry policy that exists, around initialize.
type HttpClient struct {
	serverName string
	url        string
	authToken  string
	timeout    time.Duration
	httpClient *httpclient.Client
}

// NewHttpClient builds a client for an http-transport server. A
// TimeoutSecs of 0 is not treated as "unset" — every call fails fast
// with Timeout instead of falling back to some default deadline.
func NewHttpClient(cfg ServerConfig) *HttpClient {
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	opts := []httpclient.Option{
		httpclient.WithHTTPClient(&http.Client{Timeout: timeout}),
		httpclient.WithMaxRetries(0),
	}
	if cfg.CACertificate != "" || cfg.InsecureSkipVerify {
		opts = append(opts, httpclient.WithTLSConfig(&httpclient.TLSConfig{
			CACertificate:      cfg.CACertificate,
			InsecureSkipVerify: cfg.InsecureSkipVerify,
		}))
	}
	return &HttpClient{
		serverName: cfg.Name,
		url:        cfg.URL,
		authToken:  cfg.AuthToken,
		timeout:    timeout,
		httpClient: httpclient.New(opts...),
	}
}

func (c *HttpClient) ServerName() string { return c.serverName }

func (c *HttpClient) post(ctx context.Context, req JsonRpcRequest) (*JsonRpcResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, ErrJsonFailed("failed to marshal request", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, ErrHttpFailed(c.serverName, "failed to build http request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.authToken != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.authToken)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, ErrHttpFailed(c.serverName, "http request failed", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, ErrIoFailed(c.serverName, "failed to read http response body", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, ErrHttpFailed(c.serverName, fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, string(data)), nil)
	}

	var rpcResp JsonRpcResponse
	if err := json.Unmarshal(data, &rpcResp); err != nil {
		return nil, ErrParseFailed(c.serverName, "failed to parse json-rpc response", err)
	}
	return &rpcResp, nil
}

func (c *HttpClient) call(ctx context.Context, method string, params any) (*JsonRpcResponse, error) {
	if c.timeout <= 0 {
		return nil, ErrTimedOut(c.serverName, "timeout of 0 treats every operation as already expired")
	}

	req, err := NewRequest(NewStringID(uuid.NewString()), method, params)
	if err != nil {
		return nil, ErrJsonFailed("failed to build request", err)
	}
	return c.post(ctx, req)
}

func (c *HttpClient) Initialize(ctx context.Context) (*InitializeResult, error) {
	// Unlike the stdio transport, http never sends notifications/initialized:
	// there is no persistent session for a notification to apply to.
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
	return &result, nil
}

func (c *HttpClient) ListTools(ctx context.Context) ([]ToolDefinition, error) {
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

func (c *HttpClient) CallTool(ctx context.Context, name string, arguments map[string]any) (*ToolCallResult, error) {
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

func (c *HttpClient) HealthCheck(ctx context.Context) bool {
	_, err := c.call(ctx, "ping", nil)
	return err == nil
}

// Shutdown is a no-op: the http transport holds no persistent connection
// or subprocess to release.
func (c *HttpClient) Shutdown(ctx context.Context) error { return nil }

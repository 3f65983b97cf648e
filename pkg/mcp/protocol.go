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

// Package mcp implements a client runtime for the Model Context Protocol:
// discovering, connecting to, and invoking tools exposed by external
// MCP-compliant servers over stdio or http transports.
package mcp

import (
	"encoding/json"
	"fmt"
)

// ProtocolVersion is the MCP protocol version this client negotiates.
const ProtocolVersion = "2024-11-05"

// JsonRpcID is either a string or an integer request identifier.
type JsonRpcID struct {
	str    string
	num    int64
	isStr  bool
	isNull bool
}

// NewStringID builds a string JSON-RPC id.
func NewStringID(s string) JsonRpcID { return JsonRpcID{str: s, isStr: true} }

// NewIntID builds an integer JSON-RPC id.
func NewIntID(n int64) JsonRpcID { return JsonRpcID{num: n} }

func (id JsonRpcID) String() string {
	if id.isNull {
		return ""
	}
	if id.isStr {
		return id.str
	}
	return fmt.Sprintf("%d", id.num)
}

func (id JsonRpcID) MarshalJSON() ([]byte, error) {
	if id.isNull {
		return []byte("null"), nil
	}
	if id.isStr {
		return json.Marshal(id.str)
	}
	return json.Marshal(id.num)
}

func (id *JsonRpcID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*id = JsonRpcID{isNull: true}
		return nil
	}
	var n int64
	if err := json.Unmarshal(data, &n); err == nil {
		*id = JsonRpcID{num: n}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("jsonrpc id is neither string nor number: %w", err)
	}
	*id = JsonRpcID{str: s, isStr: true}
	return nil
}

// JsonRpcRequest is a JSON-RPC 2.0 request. A zero-value ID with no
// json tag suppression would serialize as `"id":""`, so notifications
// (no response expected) must be built with NewNotification.
type JsonRpcRequest struct {
	JsonRPC string          `json:"jsonrpc"`
	ID      *JsonRpcID      `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// NewRequest builds a JSON-RPC request carrying the given id.
func NewRequest(id JsonRpcID, method string, params any) (JsonRpcRequest, error) {
	raw, err := marshalParams(params)
	if err != nil {
		return JsonRpcRequest{}, err
	}
	return JsonRpcRequest{JsonRPC: "2.0", ID: &id, Method: method, Params: raw}, nil
}

// NewNotification builds a JSON-RPC notification: no id, no response expected.
func NewNotification(method string, params any) (JsonRpcRequest, error) {
	raw, err := marshalParams(params)
	if err != nil {
		return JsonRpcRequest{}, err
	}
	return JsonRpcRequest{JsonRPC: "2.0", Method: method, Params: raw}, nil
}

func marshalParams(params any) (json.RawMessage, error) {
	if params == nil {
		return nil, nil
	}
	raw, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("marshal jsonrpc params: %w", err)
	}
	return raw, nil
}

// JsonRpcError is the `error` member of a JSON-RPC response.
type JsonRpcError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *JsonRpcError) Error() string {
	return fmt.Sprintf("jsonrpc error %d: %s", e.Code, e.Message)
}

// JsonRpcResponse is a JSON-RPC 2.0 response; exactly one of Result/Error
// is populated on a well-formed response.
type JsonRpcResponse struct {
	JsonRPC string          `json:"jsonrpc"`
	ID      JsonRpcID       `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *JsonRpcError   `json:"error,omitempty"`
}

// ClientInfo identifies this client to a server during initialize.
type ClientInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// RootsCapability, SamplingCapability advertise (empty) client capabilities.
type RootsCapability struct {
	ListChanged bool `json:"listChanged,omitempty"`
}

type SamplingCapability struct{}

// ClientCapabilities is sent unconditionally empty: this client does not
// support roots/sampling, it only calls tools.
type ClientCapabilities struct {
	Roots    *RootsCapability    `json:"roots,omitempty"`
	Sampling *SamplingCapability `json:"sampling,omitempty"`
}

// InitializeParams is the payload of the `initialize` request.
type InitializeParams struct {
	ProtocolVersion string             `json:"protocolVersion"`
	Capabilities    ClientCapabilities `json:"capabilities"`
	ClientInfo      ClientInfo         `json:"clientInfo"`
}

// ToolsCapability, ResourcesCapability, PromptsCapability describe what the
// peer server supports; this client only ever inspects ToolsCapability.
type ToolsCapability struct {
	ListChanged bool `json:"listChanged,omitempty"`
}

type ResourcesCapability struct {
	Subscribe   bool `json:"subscribe,omitempty"`
	ListChanged bool `json:"listChanged,omitempty"`
}

type PromptsCapability struct {
	ListChanged bool `json:"listChanged,omitempty"`
}

// ServerCapabilities is the `capabilities` member of an initialize result.
type ServerCapabilities struct {
	Tools     *ToolsCapability     `json:"tools,omitempty"`
	Resources *ResourcesCapability `json:"resources,omitempty"`
	Prompts   *PromptsCapability   `json:"prompts,omitempty"`
}

// InitializeResult is the result of a successful `initialize` call.
type InitializeResult struct {
	ProtocolVersion string             `json:"protocolVersion"`
	Capabilities    ServerCapabilities `json:"capabilities"`
	ServerInfo      ClientInfo         `json:"serverInfo"`
}

// ToolDefinition describes one tool a server exposes. The JSON Schema field
// is named input_schema on the wire, matching the upstream protocol layer
// this client was ported from, not the camelCase `inputSchema` some MCP SDKs use.
type ToolDefinition struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	InputSchema json.RawMessage `json:"input_schema,omitempty"`
}

// ListToolsResult is the result of a `tools/list` call.
type ListToolsResult struct {
	Tools []ToolDefinition `json:"tools"`
}

// CallToolParams is the payload of a `tools/call` request.
type CallToolParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

// ContentKind distinguishes the tagged variants of Content.
type ContentKind string

const (
	ContentText     ContentKind = "text"
	ContentImage    ContentKind = "image"
	ContentResource ContentKind = "resource"
)

// Content is one chunk of tool-result content. Only the fields that match
// Type are populated.
type Content struct {
	Type      ContentKind `json:"type"`
	Text      string      `json:"text,omitempty"`
	Data      string      `json:"data,omitempty"`
	MediaType string      `json:"media_type,omitempty"`
	URI       string      `json:"uri,omitempty"`
}

// ToolCallResult is the result of a `tools/call` call.
type ToolCallResult struct {
	Content []Content `json:"content"`
	IsError bool      `json:"is_error,omitempty"`
}

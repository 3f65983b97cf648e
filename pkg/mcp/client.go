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

import "context"

// Client is the capability set shared by every transport. Registry and
// the tool adapter only ever see this interface; they never know whether
// a given server was reached over stdio or http.
type Client interface {
	// Initialize performs the MCP handshake. It must be called, and must
	// succeed, before ListTools or CallTool are used.
	Initialize(ctx context.Context) (*InitializeResult, error)

	// ListTools returns the tool definitions the server currently exposes.
	ListTools(ctx context.Context) ([]ToolDefinition, error)

	// CallTool invokes one tool by name.
	CallTool(ctx context.Context, name string, arguments map[string]any) (*ToolCallResult, error)

	// HealthCheck reports whether the connection is still usable. Any
	// error from the underlying probe means unhealthy.
	HealthCheck(ctx context.Context) bool

	// Shutdown releases any resources the client holds (subprocess,
	// connections). It is idempotent.
	Shutdown(ctx context.Context) error

	// ServerName identifies which configured server this client talks to.
	ServerName() string
}

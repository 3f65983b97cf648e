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
	"encoding/json"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/mihailnica10/zeroclaw/pkg/observability"
	"github.com/mihailnica10/zeroclaw/pkg/security"
	"github.com/mihailnica10/zeroclaw/pkg/tool"
)

// sharedClient lets every tool adapter discovered from the same server
// share one underlying Client and its mutable session state, instead of
// each adapter owning a redundant connection of its own.
type sharedClient struct {
	mu     sync.Mutex
	client Client
}

func newSharedClient(c Client) *sharedClient {
	return &sharedClient{client: c}
}

func (s *sharedClient) CallTool(ctx context.Context, name string, args map[string]any) (*ToolCallResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.client.CallTool(ctx, name, args)
}

// Adapter wraps one discovered MCP tool so it satisfies the host's
// generic tool.Tool contract. Execute never panics: every failure, from
// a denied policy check to a malformed server response, becomes a
// tool.Result with Success=false rather than an unrecovered error.
type Adapter struct {
	client     *sharedClient
	def        ToolDefinition
	serverName string
	policy     security.Policy
}

// NewAdapter builds an Adapter for one tool discovered on serverName,
// sharing client with every other tool discovered on that same server.
func NewAdapter(client *sharedClient, def ToolDefinition, serverName string, policy security.Policy) *Adapter {
	return &Adapter{client: client, def: def, serverName: serverName, policy: policy}
}

func (a *Adapter) Name() string        { return a.def.Name }
func (a *Adapter) Description() string { return a.def.Description }

func (a *Adapter) ParametersSchema() map[string]any {
	if len(a.def.InputSchema) == 0 {
		return map[string]any{}
	}
	var schema map[string]any
	if err := json.Unmarshal(a.def.InputSchema, &schema); err != nil {
		return map[string]any{}
	}
	return schema
}

func (a *Adapter) toolPath() string {
	return "mcp." + a.serverName + "." + a.def.Name
}

// Execute runs the seven-step call: rate-limit check, policy
// enforcement, action-budget decrement, the MCP call itself, content
// normalization on success, and on failure either the raw server
// message (ErrServerError) or a generic wrapped message for every other
// error kind.
func (a *Adapter) Execute(ctx context.Context, args map[string]any) (tool.Result, error) {
	ctx, span := observability.Tracer().Start(ctx, observability.SpanToolExecution)
	defer span.End()
	span.SetAttributes(
		attribute.String(observability.AttrToolName, a.def.Name),
		attribute.String(observability.AttrServerName, a.serverName),
	)

	if a.policy != nil {
		if a.policy.IsRateLimited() {
			return a.fail(span, "Rate limit exceeded: too many actions in the last hour")
		}
		if err := a.policy.EnforceToolOperation(security.OpAct, a.toolPath()); err != nil {
			return a.fail(span, err.Error())
		}
		if !a.policy.RecordAction() {
			return a.fail(span, "Rate limit exceeded: action budget exhausted")
		}
	}

	result, err := a.client.CallTool(ctx, a.def.Name, args)
	if err != nil {
		return a.failFromError(span, err)
	}

	output := formatContent(result.Content)
	if result.IsError {
		const errMsg = "MCP server returned error flag"
		span.SetStatus(codes.Error, errMsg)
		return tool.Result{Success: false, Output: output, Error: errMsg}, nil
	}

	return tool.Result{Success: true, Output: output}, nil
}

func (a *Adapter) fail(span interface{ SetStatus(codes.Code, string) }, reason string) (tool.Result, error) {
	span.SetStatus(codes.Error, reason)
	return tool.Result{Success: false, Error: reason}, nil
}

// failFromError maps an MCP error into the result the host sees. A
// ServerError carries the raw message the remote server produced;
// every other kind gets a generic, prefixed message — this asymmetry
// matches how this client distinguishes "the tool itself reported a
// problem" from "we failed to talk to the tool at all".
func (a *Adapter) failFromError(span interface{ SetStatus(codes.Code, string) }, err error) (tool.Result, error) {
	if me, ok := err.(*Error); ok && me.Kind == ErrServerError {
		span.SetStatus(codes.Error, me.Reason)
		return tool.Result{Success: false, Error: me.Reason}, nil
	}
	msg := fmt.Sprintf("MCP tool execution failed: %s", err.Error())
	span.SetStatus(codes.Error, msg)
	return tool.Result{Success: false, Error: msg}, nil
}

// formatContent flattens a tool result's content blocks into one string
// the way the host's text-oriented tool contract expects: text content
// verbatim, images and resources summarized rather than inlined.
func formatContent(content []Content) string {
	var out string
	for i, c := range content {
		if i > 0 {
			out += "\n"
		}
		switch c.Type {
		case ContentText:
			out += c.Text
		case ContentImage:
			out += fmt.Sprintf("[Image: %d bytes, type=%s]", len(c.Data), c.MediaType)
		case ContentResource:
			out += fmt.Sprintf("[Resource: %s]", c.URI)
		default:
			out += fmt.Sprintf("[Unknown content type: %s]", c.Type)
		}
	}
	return out
}

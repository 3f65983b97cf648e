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

// Package observability exposes the span/attribute names this module's
// tracing hooks use. It does not configure an exporter: the hosting
// process is responsible for installing a TracerProvider via
// otel.SetTracerProvider; without one, otel's default no-op provider
// makes every span a no-op.
package observability

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const (
	AttrServerName = "mcp.server"
	AttrToolName   = "tool.name"
	AttrTransport  = "mcp.transport"
	AttrErrorType  = "error.type"

	SpanDiscoverTools = "mcp.discover_tools"
	SpanToolExecution = "mcp.tool_execution"

	TracerName = "github.com/mihailnica10/zeroclaw/pkg/mcp"
)

// Tracer returns the tracer this module's components use for their spans.
func Tracer() trace.Tracer {
	return otel.Tracer(TracerName)
}

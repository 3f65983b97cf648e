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
	"errors"
	"fmt"
)

// ErrorKind is the closed set of ways an MCP operation can fail.
type ErrorKind int

const (
	ErrProcessSpawn ErrorKind = iota
	ErrProcessExit
	ErrRequestFailed
	ErrServerError
	ErrParseError
	ErrTimeout
	ErrToolNotFound
	ErrInvalidArguments
	ErrConnectionLost
	ErrUnknownTransport
	ErrInitializationFailed
	ErrHttpError
	ErrIoError
	ErrJsonError
)

func (k ErrorKind) String() string {
	switch k {
	case ErrProcessSpawn:
		return "ProcessSpawn"
	case ErrProcessExit:
		return "ProcessExit"
	case ErrRequestFailed:
		return "RequestFailed"
	case ErrServerError:
		return "ServerError"
	case ErrParseError:
		return "ParseError"
	case ErrTimeout:
		return "Timeout"
	case ErrToolNotFound:
		return "ToolNotFound"
	case ErrInvalidArguments:
		return "InvalidArguments"
	case ErrConnectionLost:
		return "ConnectionLost"
	case ErrUnknownTransport:
		return "UnknownTransport"
	case ErrInitializationFailed:
		return "InitializationFailed"
	case ErrHttpError:
		return "HttpError"
	case ErrIoError:
		return "IoError"
	case ErrJsonError:
		return "JsonError"
	default:
		return "Unknown"
	}
}

// Error is the concrete type behind every error this module returns.
// ServerName is empty for the few kinds that are never server-scoped
// (UnknownTransport, InvalidArguments, JsonError).
type Error struct {
	Kind       ErrorKind
	ServerName string
	Reason     string
	Cause      error
}

func (e *Error) Error() string {
	if e.ServerName != "" {
		return fmt.Sprintf("mcp %s (server=%s): %s", e.Kind, e.ServerName, e.Reason)
	}
	return fmt.Sprintf("mcp %s: %s", e.Kind, e.Reason)
}

func (e *Error) Unwrap() error { return e.Cause }

// ServerNameOf returns the server this error is scoped to, if any.
func (e *Error) ServerNameOf() (string, bool) {
	if e.ServerName == "" {
		return "", false
	}
	return e.ServerName, true
}

func newErr(kind ErrorKind, server, reason string, cause error) *Error {
	return &Error{Kind: kind, ServerName: server, Reason: reason, Cause: cause}
}

func ErrProcessSpawnFailed(server, reason string, cause error) *Error {
	return newErr(ErrProcessSpawn, server, reason, cause)
}

func ErrProcessExited(server, reason string) *Error {
	return newErr(ErrProcessExit, server, reason, nil)
}

func ErrRequestFailedWith(server, reason string, cause error) *Error {
	return newErr(ErrRequestFailed, server, reason, cause)
}

// ErrFromServer wraps an error the remote MCP server itself reported
// (a JSON-RPC error response), not a transport-level failure.
func ErrFromServer(server, reason string) *Error {
	return newErr(ErrServerError, server, reason, nil)
}

func ErrParseFailed(server, reason string, cause error) *Error {
	return newErr(ErrParseError, server, reason, cause)
}

func ErrTimedOut(server, reason string) *Error {
	return newErr(ErrTimeout, server, reason, nil)
}

func ErrToolNotFoundIn(server, toolName string) *Error {
	return newErr(ErrToolNotFound, server, fmt.Sprintf("tool %q not found", toolName), nil)
}

// ErrInvalidArgumentsFor is never server-scoped: the arguments are invalid
// regardless of which server would have received them.
func ErrInvalidArgumentsFor(reason string) *Error {
	return newErr(ErrInvalidArguments, "", reason, nil)
}

func ErrConnectionLostTo(server, reason string) *Error {
	return newErr(ErrConnectionLost, server, reason, nil)
}

// ErrUnknownTransportKind is never server-scoped in the original sense:
// it fires before a server identity is meaningfully established.
func ErrUnknownTransportKind(kind string) *Error {
	return newErr(ErrUnknownTransport, "", fmt.Sprintf("unknown transport %q", kind), nil)
}

func ErrInitializationFailedFor(server, reason string, cause error) *Error {
	return newErr(ErrInitializationFailed, server, reason, cause)
}

func ErrHttpFailed(server, reason string, cause error) *Error {
	return newErr(ErrHttpError, server, reason, cause)
}

func ErrIoFailed(server, reason string, cause error) *Error {
	return newErr(ErrIoError, server, reason, cause)
}

// ErrJsonFailed is never server-scoped: malformed JSON is a generic framing
// failure.
func ErrJsonFailed(reason string, cause error) *Error {
	return newErr(ErrJsonError, "", reason, cause)
}

// Is reports whether err is an *Error of the given kind, via errors.As semantics.
func Is(err error, kind ErrorKind) bool {
	var me *Error
	return errors.As(err, &me) && me.Kind == kind
}

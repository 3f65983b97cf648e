package mcp

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mihailnica10/zeroclaw/pkg/security"
)

// fakeClient is an in-memory Client stand-in so registry tests don't need
// a real subprocess or HTTP server.
type fakeClient struct {
	name         string
	initErr      error
	initFailures int
	listErr      error
	tools        []ToolDefinition
	initializes  int
}

func (f *fakeClient) ServerName() string { return f.name }
func (f *fakeClient) Initialize(ctx context.Context) (*InitializeResult, error) {
	f.initializes++
	if f.initializes <= f.initFailures {
		return nil, ErrTimedOut(f.name, "no response")
	}
	if f.initErr != nil {
		return nil, f.initErr
	}
	return &InitializeResult{ProtocolVersion: ProtocolVersion}, nil
}
func (f *fakeClient) ListTools(ctx context.Context) ([]ToolDefinition, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.tools, nil
}
func (f *fakeClient) CallTool(ctx context.Context, name string, args map[string]any) (*ToolCallResult, error) {
	return &ToolCallResult{Content: []Content{{Type: ContentText, Text: "ok"}}}, nil
}
func (f *fakeClient) HealthCheck(ctx context.Context) bool { return true }
func (f *fakeClient) Shutdown(ctx context.Context) error   { return nil }

func TestRegistry_DiscoverTools_DisabledPerformsNoIO(t *testing.T) {
	reg := NewRegistry(Config{Enabled: false, Servers: []ServerConfig{
		{Name: "a", Transport: "stdio", Command: "anything"},
	}}, "", nil, nil)

	tools, err := reg.DiscoverTools(context.Background())
	require.NoError(t, err)
	assert.Empty(t, tools)
}

func TestRegistry_DiscoverTools_IsolatesPerServerFailure(t *testing.T) {
	goodClient := &fakeClient{name: "good", tools: []ToolDefinition{{Name: "echo"}, {Name: "reverse"}}}
	badClient := &fakeClient{name: "bad", initErr: ErrInitializationFailedFor("bad", "connection refused", nil)}

	reg := NewRegistry(Config{
		Enabled: true,
		Servers: []ServerConfig{
			{Name: "bad", Transport: "stdio", Command: "x"},
			{Name: "good", Transport: "stdio", Command: "x"},
		},
	}, "", nil, nil)
	reg.newStdio = func(sc ServerConfig) Client {
		if sc.Name == "bad" {
			return badClient
		}
		return goodClient
	}

	tools, err := reg.DiscoverTools(context.Background())
	require.NoError(t, err)
	assert.Len(t, tools, 2)
}

func TestRegistry_RegisterServer_RetriesInitializeOnly(t *testing.T) {
	reg := NewRegistry(Config{Enabled: true}, "", nil, nil)
	// The first two Initialize calls fail; the third succeeds.
	client := &fakeClient{name: "flaky", initFailures: 2}
	reg.newStdio = func(sc ServerConfig) Client {
		return client
	}

	_, err := reg.registerServer(context.Background(), ServerConfig{
		Name: "flaky", Transport: "stdio", Command: "x",
		RetryPolicy: &RetryPolicy{MaxAttempts: 3, BackoffMS: 1},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, client.initializes)
}

func TestRegistry_RegisterServer_UnknownTransport(t *testing.T) {
	reg := NewRegistry(Config{Enabled: true}, "", nil, nil)
	_, err := reg.registerServer(context.Background(), ServerConfig{
		Name: "x", Transport: "carrier-pigeon", Command: "x",
	})
	require.Error(t, err)
	var mcpErr *Error
	require.ErrorAs(t, err, &mcpErr)
	assert.Equal(t, ErrUnknownTransport, mcpErr.Kind)
}

func TestRegistry_RegisterServer_ResolvesAuthTokenSecret(t *testing.T) {
	reg := NewRegistry(Config{Enabled: true}, "", nil, security.MapSecretStore{"enc-token": "plain-token"})
	var gotToken string
	reg.newHTTP = func(sc ServerConfig) Client {
		gotToken = sc.AuthToken
		return &fakeClient{name: sc.Name, tools: []ToolDefinition{{Name: "t"}}}
	}

	_, err := reg.registerServer(context.Background(), ServerConfig{
		Name: "svc", Transport: "http", URL: "https://x.example", AuthToken: "enc-token",
	})
	require.NoError(t, err)
	assert.Equal(t, "plain-token", gotToken)
}

func TestRegistry_SecretWorkDir(t *testing.T) {
	reg := NewRegistry(Config{}, "/etc/zeroclaw/mcp.yaml", nil, nil)
	assert.Equal(t, "/etc/zeroclaw", reg.SecretWorkDir())

	reg2 := NewRegistry(Config{}, "", nil, nil)
	assert.Equal(t, ".", reg2.SecretWorkDir())
}

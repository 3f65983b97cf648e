package httpclient

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name     string
		options  []Option
		validate func(t *testing.T, client *Client)
	}{
		{
			name:    "default_configuration",
			options: []Option{},
			validate: func(t *testing.T, client *Client) {
				assert.Equal(t, 5, client.maxRetries)
				assert.Equal(t, 2*time.Second, client.baseDelay)
				assert.Equal(t, 60*time.Second, client.client.Timeout)
				assert.NotNil(t, client.strategyFunc)
			},
		},
		{
			name:    "max_retries_zero_disables_retry",
			options: []Option{WithMaxRetries(0)},
			validate: func(t *testing.T, client *Client) {
				assert.Equal(t, 0, client.maxRetries)
			},
		},
		{
			name:    "custom_base_delay",
			options: []Option{WithBaseDelay(5 * time.Second)},
			validate: func(t *testing.T, client *Client) {
				assert.Equal(t, 5*time.Second, client.baseDelay)
			},
		},
		{
			name:    "custom_http_client",
			options: []Option{WithHTTPClient(&http.Client{Timeout: 30 * time.Second})},
			validate: func(t *testing.T, client *Client) {
				assert.Equal(t, 30*time.Second, client.client.Timeout)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := New(tt.options...)
			tt.validate(t, client)
		})
	}
}

func TestWithTLSConfig_AppliesToExistingHTTPClient(t *testing.T) {
	client := New(
		WithHTTPClient(&http.Client{Timeout: 15 * time.Second}),
		WithTLSConfig(&TLSConfig{InsecureSkipVerify: true}),
	)

	transport, ok := client.client.Transport.(*http.Transport)
	require.True(t, ok)
	assert.True(t, transport.TLSClientConfig.InsecureSkipVerify)
	assert.Equal(t, 15*time.Second, client.client.Timeout)
}

func TestDefaultRetryStrategy(t *testing.T) {
	tests := []struct {
		statusCode int
		expected   RetryStrategy
	}{
		{http.StatusTooManyRequests, SmartRetry},
		{http.StatusServiceUnavailable, SmartRetry},
		{http.StatusRequestTimeout, ConservativeRetry},
		{http.StatusInternalServerError, ConservativeRetry},
		{http.StatusBadGateway, ConservativeRetry},
		{http.StatusGatewayTimeout, ConservativeRetry},
		{http.StatusOK, NoRetry},
		{http.StatusNotFound, NoRetry},
		{http.StatusBadRequest, NoRetry},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, DefaultRetryStrategy(tt.statusCode))
	}
}

func TestClient_Do_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("success"))
	}))
	defer server.Close()

	client := New(WithHTTPClient(server.Client()))
	req, err := http.NewRequest(http.MethodGet, server.URL, nil)
	require.NoError(t, err)

	resp, err := client.Do(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestClient_Do_NoRetryWhenMaxRetriesZero(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := New(WithHTTPClient(server.Client()), WithMaxRetries(0))
	req, _ := http.NewRequest(http.MethodGet, server.URL, nil)

	resp, err := client.Do(req)
	assert.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, 1, attempts)
}

func TestClient_Do_RetryableError(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts <= 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := New(
		WithHTTPClient(server.Client()),
		WithMaxRetries(3),
		WithBaseDelay(5*time.Millisecond),
	)
	req, _ := http.NewRequest(http.MethodGet, server.URL, nil)

	resp, err := client.Do(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 3, attempts)
}

func TestClient_Do_MaxRetriesExceeded(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := New(
		WithHTTPClient(server.Client()),
		WithMaxRetries(2),
		WithBaseDelay(5*time.Millisecond),
	)
	req, _ := http.NewRequest(http.MethodGet, server.URL, nil)

	resp, err := client.Do(req)
	require.Error(t, err)
	require.NotNil(t, resp)

	var retryErr *RetryableError
	require.ErrorAs(t, err, &retryErr)
	assert.Equal(t, http.StatusInternalServerError, retryErr.StatusCode)
	assert.Equal(t, 3, attempts)
}

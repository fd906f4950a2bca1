package registry

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestGatewayRegister(t *testing.T) {
	var received map[string]any
	var systemHeader string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/register/services", r.URL.Path)
		systemHeader = r.Header.Get("System")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewGatewayClient(server.URL, "svc-token", testLogger())
	err := client.Register(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "svc-token", systemHeader)
	assert.Equal(t, "directvault", received["name"])

	endpoints, ok := received["endpoints"].([]any)
	require.True(t, ok)
	assert.Len(t, endpoints, len(gatewayEndpoints))

	first, ok := endpoints[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "directvault", first["serviceName"])
	assert.Equal(t, "/profiles/add", first["path"])
	assert.Equal(t, "Public", first["accessType"])
}

func TestGatewayRegister_DuplicateIsSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusConflict)
		io.WriteString(w, `{"error": "Duplicate entry 'directvault' for key 'name'"}`)
	}))
	defer server.Close()

	client := NewGatewayClient(server.URL, "svc-token", testLogger())

	assert.NoError(t, client.Register(context.Background()))
}

func TestGatewayRegister_Failure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		io.WriteString(w, "gateway exploded")
	}))
	defer server.Close()

	client := NewGatewayClient(server.URL, "svc-token", testLogger())
	err := client.Register(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "gateway exploded")
}

func TestToolsetRegister(t *testing.T) {
	var received map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/register", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewToolsetClient(server.URL, testLogger())
	err := client.Register(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "ydirect", received["id"])

	data, ok := received["data"].([]any)
	require.True(t, ok)
	require.NotEmpty(t, data)

	names := make(map[string]bool)
	for _, item := range data {
		fn := item.(map[string]any)
		assert.Equal(t, "function", fn["type"])
		spec := fn["function"].(map[string]any)
		names[spec["name"].(string)] = true

		params := spec["parameters"].(map[string]any)
		props := params["properties"].(map[string]any)
		assert.Contains(t, props, "alias")
	}
	assert.True(t, names["get_campaigns"])
	assert.True(t, names["get_stats"])
	assert.True(t, names["create_campaign"])
	assert.True(t, names["disable_mobile"])
}

func TestToolsetRegister_RetriesUntilUp(t *testing.T) {
	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewToolsetClient(server.URL, testLogger())
	client.retryInterval = time.Millisecond

	require.NoError(t, client.Register(context.Background()))
	assert.Equal(t, int32(3), calls.Load())
}

func TestToolsetRegister_GivesUp(t *testing.T) {
	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewToolsetClient(server.URL, testLogger())
	client.retryInterval = time.Millisecond
	client.maxRetries = 2

	err := client.Register(context.Background())

	require.Error(t, err)
	assert.Equal(t, int32(3), calls.Load()) // initial attempt plus two retries
}

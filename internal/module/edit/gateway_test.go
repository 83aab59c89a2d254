package edit

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/velo/server/internal/shared/config"
	"go.uber.org/zap"
)

func newTestGateway(t *testing.T, handler http.HandlerFunc) (*HTTPGateway, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	gw := NewHTTPGateway(&config.GatewayConfig{
		BaseURL:          srv.URL,
		APIKey:           "test-api-key",
		RequestTimeout:   5 * time.Second,
		FailureThreshold: 3,
		CircuitTimeout:   time.Minute,
	}, nil, zap.NewNop())
	return gw, srv
}

func TestHTTPGateway_Edit(t *testing.T) {
	var got gatewayPayload
	gw, _ := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/edit", r.URL.Path)
		assert.Equal(t, "Bearer test-api-key", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		json.NewEncoder(w).Encode(map[string]string{"image": "ZWRpdGVk"})
	})

	result, err := gw.Edit(context.Background(), &GatewayRequest{
		Model:         "gemini-2.5-flash-image",
		Prompt:        "make it pop",
		ImageBase64:   "aW5wdXQ=",
		OutputQuality: "2k",
	})
	require.NoError(t, err)

	assert.Equal(t, "ZWRpdGVk", result.ImageBase64)
	assert.Equal(t, "gemini-2.5-flash-image", result.Model)
	assert.Equal(t, "gemini-2.5-flash-image", got.Model)
	assert.Equal(t, "make it pop", got.Prompt)
	assert.Equal(t, "aW5wdXQ=", got.Image)
	assert.Equal(t, "2k", got.OutputQuality)
}

func TestHTTPGateway_OutputImageFallback(t *testing.T) {
	gw, _ := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"output_image": "ZmFsbGJhY2s="})
	})

	result, err := gw.Edit(context.Background(), &GatewayRequest{Model: "m"})
	require.NoError(t, err)
	assert.Equal(t, "ZmFsbGJhY2s=", result.ImageBase64)
}

func TestHTTPGateway_EmptyResponse(t *testing.T) {
	gw, _ := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{})
	})

	_, err := gw.Edit(context.Background(), &GatewayRequest{Model: "m"})
	assert.ErrorIs(t, err, ErrNoImageReturned)
}

func TestHTTPGateway_UpstreamErrorNotLeaked(t *testing.T) {
	gw, _ := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "internal key kb-9981 rejected", http.StatusBadGateway)
	})

	_, err := gw.Edit(context.Background(), &GatewayRequest{Model: "m"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrGatewayStatus)
	// The error carries the status, not the upstream body.
	assert.NotContains(t, err.Error(), "kb-9981")
}

func TestHTTPGateway_BreakerOpensAfterFailures(t *testing.T) {
	gw, _ := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	})

	ctx := context.Background()
	req := &GatewayRequest{Model: "m"}
	for i := 0; i < 3; i++ {
		_, err := gw.Edit(ctx, req)
		assert.ErrorIs(t, err, ErrGatewayStatus)
	}

	// Threshold reached, the next call fails fast without a request.
	_, err := gw.Edit(ctx, req)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrGatewayStatus)
}

func TestHTTPGateway_ContextCancellation(t *testing.T) {
	release := make(chan struct{})
	gw, _ := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		<-release
	})
	// Registered after newTestGateway, so this runs before the server's
	// Close and unblocks the in-flight handler.
	t.Cleanup(func() { close(release) })

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := gw.Edit(ctx, &GatewayRequest{Model: "m"})
	assert.Error(t, err)
}

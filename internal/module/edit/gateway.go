package edit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/velo/server/internal/shared/config"
	"github.com/velo/server/internal/shared/metrics"
	"go.uber.org/zap"
)

// Gateway performs the actual image edit against the external API.
type Gateway interface {
	Edit(ctx context.Context, req *GatewayRequest) (*GatewayResult, error)
}

// GatewayRequest describes one edit call to the image API.
type GatewayRequest struct {
	Model         string
	Prompt        string
	ImageBase64   string
	OutputQuality string
}

// GatewayResult is the decoded response from the image API.
type GatewayResult struct {
	ImageBase64 string
	Model       string
}

type gatewayPayload struct {
	Model         string `json:"model"`
	Prompt        string `json:"prompt"`
	Image         string `json:"image"`
	OutputQuality string `json:"output_quality"`
}

// The API has returned the edited image under both field names across
// versions, accept either.
type gatewayResponse struct {
	Image       string `json:"image"`
	OutputImage string `json:"output_image"`
	Error       string `json:"error"`
}

// HTTPGateway calls the image-edit API over HTTP with a circuit
// breaker in front. A single upstream call per request, no retries:
// edits are billed upstream and retrying doubles the spend.
type HTTPGateway struct {
	baseURL string
	apiKey  string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[*GatewayResult]
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewHTTPGateway creates a gateway from configuration.
func NewHTTPGateway(cfg *config.GatewayConfig, m *metrics.Metrics, logger *zap.Logger) *HTTPGateway {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	threshold := cfg.FailureThreshold
	if threshold == 0 {
		threshold = 5
	}

	circuitTimeout := cfg.CircuitTimeout
	if circuitTimeout <= 0 {
		circuitTimeout = 30 * time.Second
	}

	breaker := gobreaker.NewCircuitBreaker[*GatewayResult](gobreaker.Settings{
		Name: "image-gateway",
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		Timeout: circuitTimeout,
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("gateway circuit state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &HTTPGateway{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: timeout},
		breaker: breaker,
		metrics: m,
		logger:  logger,
	}
}

// Edit sends the edit request upstream and returns the edited image.
func (g *HTTPGateway) Edit(ctx context.Context, req *GatewayRequest) (*GatewayResult, error) {
	start := time.Now()

	result, err := g.breaker.Execute(func() (*GatewayResult, error) {
		return g.call(ctx, req)
	})

	status := "success"
	if err != nil {
		status = "error"
	}
	if g.metrics != nil {
		g.metrics.RecordGatewayRequest(req.Model, status, time.Since(start))
	}
	return result, err
}

func (g *HTTPGateway) call(ctx context.Context, req *GatewayRequest) (*GatewayResult, error) {
	payload, err := json.Marshal(gatewayPayload{
		Model:         req.Model,
		Prompt:        req.Prompt,
		Image:         req.ImageBase64,
		OutputQuality: req.OutputQuality,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal gateway request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/v1/edit", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build gateway request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("call image gateway: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<20))
	if err != nil {
		return nil, fmt.Errorf("read gateway response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		// Upstream error bodies are logged, never surfaced to clients.
		g.logger.Error("image gateway error",
			zap.Int("status", resp.StatusCode),
			zap.String("model", req.Model),
			zap.ByteString("body", truncate(body, 2048)),
		)
		return nil, fmt.Errorf("%w: status %d", ErrGatewayStatus, resp.StatusCode)
	}

	var decoded gatewayResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("decode gateway response: %w", err)
	}

	image := decoded.Image
	if image == "" {
		image = decoded.OutputImage
	}
	if image == "" {
		return nil, ErrNoImageReturned
	}

	return &GatewayResult{ImageBase64: image, Model: req.Model}, nil
}

func truncate(b []byte, n int) []byte {
	if len(b) <= n {
		return b
	}
	return b[:n]
}

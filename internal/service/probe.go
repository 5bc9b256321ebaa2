package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/jfries/batchlens/internal/domain"
)

// ProbeResult describes a connection reachability check.
type ProbeResult struct {
	Reachable  bool   `json:"reachable"`
	StatusCode int    `json:"status_code,omitempty"`
	LatencyMs  int64  `json:"latency_ms"`
	Error      string `json:"error,omitempty"`
}

// ProbeService checks whether an LLM provider connection is reachable.
// It only pings the provider's listing endpoint; actual analysis calls
// belong to the external processing service.
type ProbeService struct {
	client *resty.Client
}

// NewProbeService creates a ProbeService with the given request timeout.
func NewProbeService(timeout time.Duration) *ProbeService {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	client := resty.New()
	client.SetTimeout(timeout)
	return &ProbeService{client: client}
}

// Probe pings the connection's provider endpoint and reports reachability.
// Probe failures are data, not errors: the result always comes back.
func (s *ProbeService) Probe(ctx context.Context, conn *domain.Connection) *ProbeResult {
	url := probeURL(conn)

	req := s.client.R().SetContext(ctx)
	if conn.APIKey != "" {
		req.SetHeader("Authorization", "Bearer "+conn.APIKey)
	}

	start := time.Now()
	resp, err := req.Get(url)
	latency := time.Since(start).Milliseconds()

	if err != nil {
		return &ProbeResult{Reachable: false, LatencyMs: latency, Error: err.Error()}
	}
	result := &ProbeResult{
		Reachable:  resp.StatusCode() >= 200 && resp.StatusCode() < 300,
		StatusCode: resp.StatusCode(),
		LatencyMs:  latency,
	}
	if !result.Reachable {
		result.Error = fmt.Sprintf("unexpected status %d", resp.StatusCode())
	}
	return result
}

// probeURL builds the provider-specific health/listing URL.
func probeURL(conn *domain.Connection) string {
	base := strings.TrimSuffix(conn.BaseURL, "/")
	if conn.Port > 0 && !strings.Contains(strings.TrimPrefix(strings.TrimPrefix(base, "https://"), "http://"), ":") {
		base = fmt.Sprintf("%s:%d", base, conn.Port)
	}
	switch conn.ProviderType {
	case domain.ProviderTypeOllama:
		return base + "/api/tags"
	case domain.ProviderTypeOpenAI:
		return base + "/v1/models"
	default:
		return base
	}
}

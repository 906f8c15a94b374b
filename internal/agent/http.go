package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// HTTPSubmitter posts signed envelopes to a gateway.
type HTTPSubmitter struct {
	endpoint string
	client   *http.Client
}

func NewHTTPSubmitter(endpoint string) (*HTTPSubmitter, error) {
	resolved, err := ResolveEndpoint(endpoint)
	if err != nil {
		return nil, err
	}
	return &HTTPSubmitter{
		endpoint: resolved,
		client:   &http.Client{Timeout: 30 * time.Second},
	}, nil
}

func (s *HTTPSubmitter) Endpoint() string {
	return s.endpoint
}

func (s *HTTPSubmitter) Submit(ctx context.Context, env Envelope) (Receipt, error) {
	body, err := json.Marshal(env)
	if err != nil {
		return Receipt{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return Receipt{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return Receipt{}, err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Receipt{}, fmt.Errorf("agent gateway returned status %d", resp.StatusCode)
	}
	var receipt Receipt
	if err := json.NewDecoder(resp.Body).Decode(&receipt); err != nil {
		return Receipt{}, err
	}
	return receipt, nil
}

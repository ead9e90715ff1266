package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/sirupsen/logrus"
)

const apiKeyHeader = "X-Api-Key"

// HTTPSource fetches race cards from a JSON odds API
type HTTPSource struct {
	baseURL string
	apiKey  string
	client  *RateLimitedHTTPClient
	logger  *logrus.Logger
}

// NewHTTPSource creates an HTTP-backed feed source
func NewHTTPSource(baseURL, apiKey string, clientCfg HTTPClientConfig, logger *logrus.Logger) *HTTPSource {
	return &HTTPSource{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  NewRateLimitedHTTPClient(clientCfg, logger),
		logger:  logger,
	}
}

// Name returns the name of the source
func (s *HTTPSource) Name() string {
	return "odds-api"
}

// FetchCards retrieves today's races with current bookmaker prices
func (s *HTTPSource) FetchCards(ctx context.Context) ([]RaceCard, error) {
	endpoint, err := url.JoinPath(s.baseURL, "races")
	if err != nil {
		return nil, NewSourceError(s.Name(), "fetch", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, NewSourceError(s.Name(), "fetch", err)
	}
	req.Header.Set("Accept", "application/json")
	if s.apiKey != "" {
		req.Header.Set(apiKeyHeader, s.apiKey)
	}

	resp, err := s.client.Do(ctx, req)
	if err != nil {
		return nil, NewSourceError(s.Name(), "fetch", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, NewSourceError(s.Name(), "fetch",
			fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	var docs []raceDocument
	if err := json.NewDecoder(resp.Body).Decode(&docs); err != nil {
		return nil, NewSourceError(s.Name(), "decode", err)
	}

	cards := make([]RaceCard, 0, len(docs))
	for i := range docs {
		cards = append(cards, docs[i].toCard())
	}

	s.logger.WithField("races", len(cards)).Debug("Fetched race cards")
	return cards, nil
}

// Ping verifies the API is reachable. Used by the health server.
func (s *HTTPSource) Ping(ctx context.Context) error {
	endpoint, err := url.JoinPath(s.baseURL, "health")
	if err != nil {
		return err
	}
	resp, err := s.client.Get(ctx, endpoint)
	if err != nil {
		return err
	}
	defer func() {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()
	if resp.StatusCode >= 500 {
		return fmt.Errorf("feed unhealthy: status %d", resp.StatusCode)
	}
	return nil
}

// Close releases the underlying HTTP client
func (s *HTTPSource) Close() error {
	return s.client.Close()
}

package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/value-scanner/internal/models"
)

// StreamClient maintains a WebSocket connection to the odds stream and
// rebuilds an immutable snapshot for a race whenever prices move.
type StreamClient struct {
	streamURL       string
	apiKey          string
	mu              sync.RWMutex
	conn            *websocket.Conn
	isConnected     bool
	handlers        []SnapshotHandler
	reconnectConfig ReconnectConfig
	lastMessageTime time.Time

	// latest prices per race, merged from incremental updates
	prices map[uuid.UUID]map[string]map[string]float64

	logger *logrus.Logger
}

// ReconnectConfig controls reconnection behavior
type ReconnectConfig struct {
	MaxRetries        int
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
	BackoffMultiplier float64
}

// SnapshotHandler is called with a fresh snapshot when prices change
type SnapshotHandler func(snapshot *models.OddsSnapshot) error

// priceUpdate is the incremental wire message: one or more price moves
// for a single race. FullImage replaces the race's prices entirely.
type priceUpdate struct {
	Op        string        `json:"op"`
	RaceID    string        `json:"race_id"`
	FullImage bool          `json:"img"`
	Changes   []priceChange `json:"changes"`
}

type priceChange struct {
	Runner    string  `json:"runner"`
	Bookmaker string  `json:"bookmaker"`
	Odds      float64 `json:"odds"`
}

// DefaultReconnectConfig returns default reconnection configuration
func DefaultReconnectConfig() ReconnectConfig {
	return ReconnectConfig{
		MaxRetries:        10,
		InitialBackoff:    1 * time.Second,
		MaxBackoff:        30 * time.Second,
		BackoffMultiplier: 1.5,
	}
}

// NewStreamClient creates a new stream client
func NewStreamClient(streamURL, apiKey string, logger *logrus.Logger) *StreamClient {
	if logger == nil {
		logger = logrus.New()
	}
	return &StreamClient{
		streamURL:       streamURL,
		apiKey:          apiKey,
		handlers:        make([]SnapshotHandler, 0),
		reconnectConfig: DefaultReconnectConfig(),
		prices:          make(map[uuid.UUID]map[string]map[string]float64),
		logger:          logger,
	}
}

// SetReconnectConfig overrides the reconnection behavior
func (s *StreamClient) SetReconnectConfig(cfg ReconnectConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reconnectConfig = cfg
}

// Connect establishes the WebSocket connection and starts the read loop
func (s *StreamClient) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isConnected {
		return fmt.Errorf("already connected")
	}

	s.logger.WithField("url", s.streamURL).Info("Connecting to odds stream")

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	header := make(map[string][]string)
	if s.apiKey != "" {
		header[apiKeyHeader] = []string{s.apiKey}
	}

	conn, _, err := dialer.DialContext(ctx, s.streamURL, header)
	if err != nil {
		return fmt.Errorf("failed to connect to stream: %w", err)
	}

	s.conn = conn
	s.isConnected = true
	s.lastMessageTime = time.Now()

	go s.readMessages(ctx)

	return nil
}

// ConnectWithRetry connects with exponential backoff until MaxRetries
// attempts are exhausted or the context is cancelled.
func (s *StreamClient) ConnectWithRetry(ctx context.Context) error {
	backoff := s.reconnectConfig.InitialBackoff
	var lastErr error

	for attempt := 0; attempt <= s.reconnectConfig.MaxRetries; attempt++ {
		if attempt > 0 {
			s.logger.WithFields(logrus.Fields{
				"attempt": attempt,
				"backoff": backoff.String(),
			}).Warn("Retrying stream connection")

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}

			backoff = time.Duration(float64(backoff) * s.reconnectConfig.BackoffMultiplier)
			if backoff > s.reconnectConfig.MaxBackoff {
				backoff = s.reconnectConfig.MaxBackoff
			}
		}

		if err := s.Connect(ctx); err != nil {
			lastErr = err
			continue
		}
		return nil
	}

	return fmt.Errorf("stream connection failed after %d attempts: %w",
		s.reconnectConfig.MaxRetries, lastErr)
}

// AddHandler registers a snapshot handler
func (s *StreamClient) AddHandler(handler SnapshotHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers = append(s.handlers, handler)
}

// readMessages reads price updates until the connection drops
func (s *StreamClient) readMessages(ctx context.Context) {
	defer s.Close()

	for {
		var raw json.RawMessage
		err := s.conn.ReadJSON(&raw)
		if err != nil {
			s.logger.WithError(err).Warn("Stream read error")
			s.mu.Lock()
			s.isConnected = false
			s.mu.Unlock()
			return
		}

		s.mu.Lock()
		s.lastMessageTime = time.Now()
		s.mu.Unlock()

		var update priceUpdate
		if err := json.Unmarshal(raw, &update); err != nil {
			s.logger.WithError(err).Warn("Dropping malformed stream message")
			continue
		}

		if update.Op == "heartbeat" {
			continue
		}

		snapshot, err := s.applyUpdate(&update)
		if err != nil {
			s.logger.WithError(err).Warn("Dropping stream update")
			continue
		}
		if snapshot == nil {
			continue
		}

		s.mu.RLock()
		handlers := s.handlers
		s.mu.RUnlock()

		for _, handler := range handlers {
			if err := handler(snapshot); err != nil {
				s.logger.WithError(err).Warn("Snapshot handler error")
			}
		}
	}
}

// applyUpdate merges an incremental price change into the tracked state
// and returns a new immutable snapshot of the affected race.
func (s *StreamClient) applyUpdate(update *priceUpdate) (*models.OddsSnapshot, error) {
	raceID, err := uuid.Parse(update.RaceID)
	if err != nil {
		return nil, fmt.Errorf("invalid race id %q: %w", update.RaceID, err)
	}
	if len(update.Changes) == 0 && !update.FullImage {
		return nil, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.prices[raceID]
	if current == nil || update.FullImage {
		current = make(map[string]map[string]float64)
		s.prices[raceID] = current
	}

	for _, ch := range update.Changes {
		books := current[ch.Runner]
		if books == nil {
			books = make(map[string]float64)
			current[ch.Runner] = books
		}
		books[ch.Bookmaker] = ch.Odds
	}

	// NewOddsSnapshot deep-copies, so later updates cannot mutate
	// snapshots already handed to the engine.
	return models.NewOddsSnapshot(raceID, time.Now().UTC(), current), nil
}

// IsConnected returns whether the stream is connected
func (s *StreamClient) IsConnected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isConnected
}

// LastMessageTime returns the time of the last received message
func (s *StreamClient) LastMessageTime() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastMessageTime
}

// Close closes the stream connection
func (s *StreamClient) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		return nil
	}

	s.isConnected = false
	return s.conn.Close()
}

package quotes

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	// streamReconnectDelay is how long to wait before redialing a dropped feed
	streamReconnectDelay = 5 * time.Second
	// streamPingInterval keeps the connection alive through idle markets
	streamPingInterval = 30 * time.Second
	// streamReadTimeout bounds a stalled read
	streamReadTimeout = 60 * time.Second
	// streamWriteTimeout bounds a stalled write
	streamWriteTimeout = 10 * time.Second
)

// Tick is one streamed quote update
type Tick struct {
	Symbol string  `json:"symbol"`
	Price  float64 `json:"price"`
	TimeMs int64   `json:"time"`
}

// At returns the tick timestamp as a time.Time
func (t Tick) At() time.Time {
	return time.UnixMilli(t.TimeMs)
}

// Stream maintains a websocket tick feed and remembers the last tick per
// symbol. It is an optional overlay on top of the polling provider: when a
// streamed price is fresher than the polled series, the dashboard shows it.
type Stream struct {
	url     string
	symbols []string
	logger  *logrus.Logger

	last      map[string]Tick
	lastMutex sync.RWMutex
}

// NewStream creates a tick streamer for the given endpoint and symbols.
// Nothing connects until Run is called.
func NewStream(url string, symbols []string, logger *logrus.Logger) *Stream {
	if logger == nil {
		logger = logrus.New()
	}
	return &Stream{
		url:     url,
		symbols: symbols,
		logger:  logger,
		last:    make(map[string]Tick),
	}
}

// LastPrice returns the most recent streamed price for the symbol, with
// its timestamp, if any tick has arrived.
func (s *Stream) LastPrice(symbol string) (float64, time.Time, bool) {
	s.lastMutex.RLock()
	defer s.lastMutex.RUnlock()
	tick, ok := s.last[symbol]
	if !ok {
		return 0, time.Time{}, false
	}
	return tick.Price, tick.At(), true
}

// Run dials the feed and keeps it alive until the context is cancelled,
// redialing after streamReconnectDelay on any failure.
func (s *Stream) Run(ctx context.Context) {
	for {
		if err := s.connectAndRead(ctx); err != nil {
			s.logger.WithError(err).Warn("tick stream disconnected")
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(streamReconnectDelay):
		}
	}
}

func (s *Stream) connectAndRead(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return fmt.Errorf("dial tick stream: %w", err)
	}

	defer conn.Close()

	if err := s.subscribe(conn); err != nil {
		return err
	}

	pingCtx, stopPing := context.WithCancel(ctx)
	defer stopPing()
	go s.pingLoop(pingCtx, conn)

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		conn.SetReadDeadline(time.Now().Add(streamReadTimeout))
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				return fmt.Errorf("read tick: %w", err)
			}
			return nil
		}
		s.handleMessage(data)
	}
}

func (s *Stream) subscribe(conn *websocket.Conn) error {
	msg := struct {
		Method string   `json:"method"`
		Params []string `json:"params"`
	}{Method: "SUBSCRIBE", Params: s.symbols}

	conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
	if err := conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("subscribe ticks: %w", err)
	}
	return nil
}

func (s *Stream) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(streamPingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.logger.WithError(err).Debug("tick stream ping failed")
				return
			}
		}
	}
}

func (s *Stream) handleMessage(data []byte) {
	var tick Tick
	if err := json.Unmarshal(data, &tick); err != nil || tick.Symbol == "" || tick.Price <= 0 {
		return
	}
	s.lastMutex.Lock()
	s.last[tick.Symbol] = tick
	s.lastMutex.Unlock()
}

// File: internal/handlers/gateway.go
package handlers

import (
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"golang.org/x/net/websocket"

	"github.com/mudly/realtime/internal/auth"
	"github.com/mudly/realtime/internal/domain"
	"github.com/mudly/realtime/internal/ratelimit"
	"github.com/mudly/realtime/internal/realtime"
)

// TokenVerifier validates handshake credentials.
type TokenVerifier interface {
	Verify(token string) (domain.Principal, error)
}

type GatewayConfig struct {
	SendBuffer         int
	MaxFramesPerSecond int
	// MaxDecodeErrors closes a connection after that many consecutive
	// undecodable frames. Zero keeps it open regardless.
	MaxDecodeErrors    int
	MaxPayloadBytes    int
}

func DefaultGatewayConfig() GatewayConfig {
	return GatewayConfig{
		SendBuffer:         realtime.DefaultSendBuffer,
		MaxFramesPerSecond: 20,
		MaxPayloadBytes:    64 << 10,
	}
}

// Gateway authenticates websocket handshakes and owns the per-connection
// lifecycle: private room join, writer goroutine, and DisconnectAll on close.
type Gateway struct {
	name     string
	registry *realtime.Registry
	verifier TokenVerifier
	limiter  *ratelimit.MemoryRateLimiter
	config   GatewayConfig
	logger   Logger
}

func NewGateway(name string, registry *realtime.Registry, verifier TokenVerifier, limiter *ratelimit.MemoryRateLimiter, config GatewayConfig, logger Logger) *Gateway {
	defaults := DefaultGatewayConfig()
	if config.SendBuffer <= 0 {
		config.SendBuffer = defaults.SendBuffer
	}
	if config.MaxFramesPerSecond <= 0 {
		config.MaxFramesPerSecond = defaults.MaxFramesPerSecond
	}
	if config.MaxDecodeErrors < 0 {
		config.MaxDecodeErrors = 0
	}
	if config.MaxPayloadBytes <= 0 {
		config.MaxPayloadBytes = defaults.MaxPayloadBytes
	}
	return &Gateway{
		name:     name,
		registry: registry,
		verifier: verifier,
		limiter:  limiter,
		config:   config,
		logger:   logger,
	}
}

// connHandler runs the read side of one authenticated connection. It returns
// when the client goes away or the connection must be dropped.
type connHandler func(conn *websocket.Conn, s *realtime.Session)

// authenticate rejects the handshake with 401 before any upgrade happens.
// Repeated failures from one client IP are answered with 429.
func (g *Gateway) authenticate(w http.ResponseWriter, r *http.Request) (domain.Principal, bool) {
	clientIP := ratelimit.GetClientIP(r)
	if g.limiter != nil {
		if info := g.limiter.Check(clientIP); !info.Allowed {
			g.logger.Warn("Handshake rejected, client banned", "gateway", g.name, "remote", clientIP)
			w.Header().Set("Retry-After", fmt.Sprintf("%.0f", info.RetryAfter.Seconds()))
			writeError(w, http.StatusTooManyRequests, "RATE_LIMITED", "Too many failed handshakes")
			return domain.Principal{}, false
		}
	}

	principal, err := g.verifier.Verify(auth.BearerToken(r))
	if err != nil {
		if g.limiter != nil {
			g.limiter.RecordFailure(clientIP)
		}
		g.logger.Info("Handshake rejected", "gateway", g.name, "remote", clientIP, "error", err)
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required")
		return domain.Principal{}, false
	}

	if g.limiter != nil {
		g.limiter.RecordSuccess(clientIP)
	}
	return principal, true
}

// serve authenticates, upgrades, and runs handle with a session already
// joined to its private room.
func (g *Gateway) serve(w http.ResponseWriter, r *http.Request, handle connHandler) {
	principal, ok := g.authenticate(w, r)
	if !ok {
		return
	}

	srv := websocket.Server{Handler: func(conn *websocket.Conn) {
		conn.MaxPayloadBytes = g.config.MaxPayloadBytes
		s := realtime.NewSession(principal, g.config.SendBuffer)
		defer conn.Close()

		if err := g.registry.Join(realtime.UserRoom(principal.UserID), s); err != nil {
			g.logger.Warn("Private room join failed", "gateway", g.name, "user_id", principal.UserID, "error", err)
			return
		}
		g.logger.Info("Session connected", "gateway", g.name, "session_id", s.ID(), "user_id", principal.UserID)

		writerDone := make(chan struct{})
		go func() {
			defer close(writerDone)
			if err := s.WritePump(conn); err != nil {
				g.logger.Debug("Session write failed", "gateway", g.name, "session_id", s.ID(), "error", err)
			}
			// the session may have been closed by the registry; unblock the reader
			_ = conn.Close()
		}()

		handle(conn, s)

		g.registry.DisconnectAll(s)
		<-writerDone
		g.logger.Info("Session disconnected", "gateway", g.name, "session_id", s.ID(), "user_id", principal.UserID)
	}}
	srv.ServeHTTP(w, r)
}

// receive reads one whole websocket message. Oversized messages are
// discarded and reported as errFrameTooLarge so the caller can keep reading.
func receive(conn *websocket.Conn) ([]byte, error) {
	var raw []byte
	err := websocket.Message.Receive(conn, &raw)
	if errors.Is(err, websocket.ErrFrameTooLarge) {
		return nil, errFrameTooLarge
	}
	return raw, err
}

var errFrameTooLarge = errors.New("frame too large")

func isClosed(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, net.ErrClosed)
}

// frameWindow enforces a per-second inbound frame budget.
type frameWindow struct {
	max   int
	start time.Time
	count int
}

func (fw *frameWindow) allow(now time.Time) bool {
	if now.Sub(fw.start) >= time.Second {
		fw.start = now
		fw.count = 0
	}
	fw.count++
	return fw.count <= fw.max
}

package http

import (
	"context"
	"errors"
	"io"
	stdhttp "net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/rtclobby/internal/config"
	"github.com/vovakirdan/rtclobby/internal/core"
	"github.com/vovakirdan/rtclobby/internal/metrics"
	"github.com/vovakirdan/rtclobby/internal/proto"
	"github.com/vovakirdan/rtclobby/internal/utils"
)

// WSHandler upgrades HTTP connections and bridges them to the lobby.
type WSHandler struct {
	broker  Broker
	metrics *metrics.Metrics
	log     *zerolog.Logger

	acceptOptions  *websocket.AcceptOptions
	outboundBuffer int
	readLimit      int64
	pingInterval   time.Duration
	relayRateLimit int
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(broker Broker, cfg *config.Config, m *metrics.Metrics, logger *zerolog.Logger) stdhttp.Handler {
	opts := &websocket.AcceptOptions{OriginPatterns: cfg.AllowedOrigins}
	if len(cfg.AllowedOrigins) == 0 {
		logger.Warn().Msg("allowed_origins is empty, accepting websocket connections from any origin")
		opts = &websocket.AcceptOptions{InsecureSkipVerify: true}
	}
	return &WSHandler{
		broker:         broker,
		metrics:        m,
		log:            logger,
		acceptOptions:  opts,
		outboundBuffer: cfg.OutboundBuffer,
		readLimit:      cfg.ReadLimit,
		pingInterval:   cfg.PingInterval,
		relayRateLimit: cfg.RelayRateLimit,
	}
}

func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	conn, err := websocket.Accept(w, r, h.acceptOptions)
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.CloseNow()
	if h.readLimit > 0 {
		conn.SetReadLimit(h.readLimit)
	}

	log := h.log.With().Str("conn_id", utils.NewID()).Str("peer", r.RemoteAddr).Logger()
	log.Info().Msg("new client connecting")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	out := newOutbound(h.outboundBuffer)
	admission, err := h.broker.Admit(ctx, out, optionalString(r.RemoteAddr), summarizeUserAgent(r.UserAgent()))
	if err != nil {
		log.Info().Err(err).Msg("lobby refused connection")
		conn.Close(websocket.StatusTryAgainLater, "lobby unavailable")
		return
	}
	name := admission.Name
	log = log.With().Str("client", name).Logger()
	defer h.broker.Disconnect(name)
	defer out.close()

	// The admission roster goes out before anything queued for this client.
	if err := wsjson.Write(ctx, conn, outboundFromMessage(core.RosterMessage(admission.Roster))); err != nil {
		log.Warn().Err(err).Msg("send initial roster")
		return
	}

	errCh := make(chan error, 2)
	go func() {
		errCh <- h.readLoop(ctx, conn, name, &log)
	}()
	go func() {
		errCh <- h.writeLoop(ctx, conn, out, &log)
	}()

	err = <-errCh
	cancel() // stop the other goroutine
	<-errCh

	status := websocket.StatusNormalClosure
	reason := "closing"
	if err != nil && !errors.Is(err, context.Canceled) {
		if errors.Is(err, io.EOF) {
			err = nil
		}
		if s := websocket.CloseStatus(err); s != -1 {
			status = s
		}
		if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
			err = nil
		}
		if err != nil {
			if status == websocket.StatusNormalClosure {
				status = websocket.StatusInternalError
			}
			reason = closeReason(err)
			log.Warn().Err(err).Msg("ws connection closed with error")
		}
	}
	log.Info().Msg("client stopping")

	conn.Close(status, reason)
}

func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, name string, log *zerolog.Logger) error {
	limiter := newRateLimiter(h.relayRateLimit)
	for {
		typ, data, err := conn.Read(ctx)
		if err != nil {
			return err
		}
		if typ != websocket.MessageText {
			h.metrics.InboundRejected(metrics.RejectBinary)
			continue
		}

		env, err := proto.Decode(data)
		if err != nil {
			log.Debug().Err(err).Msg("cannot parse incoming message")
			h.metrics.InboundRejected(metrics.RejectMalformed)
			continue
		}
		if !limiter.allow() {
			log.Debug().Msg("relay rate limit exceeded")
			h.metrics.InboundRejected(metrics.RejectRateLimited)
			continue
		}

		h.broker.Receive(name, inboundToMessage(env))
	}
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, out *outbound, log *zerolog.Logger) error {
	var ping <-chan time.Time
	if h.pingInterval > 0 {
		ticker := time.NewTicker(h.pingInterval)
		defer ticker.Stop()
		ping = ticker.C
	}

	for {
		select {
		case msg := <-out.queue:
			if err := wsjson.Write(ctx, conn, outboundFromMessage(msg)); err != nil {
				log.Error().Err(err).Msg("write ws message")
				return err
			}
		case <-ping:
			pingCtx, cancel := context.WithTimeout(ctx, h.pingInterval)
			err := conn.Ping(pingCtx)
			cancel()
			if err != nil {
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// closeReason trims err to fit in a close frame.
func closeReason(err error) string {
	const maxReason = 120
	reason := err.Error()
	if len(reason) > maxReason {
		reason = reason[:maxReason]
	}
	return reason
}

package http

import (
	"context"
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/rtclobby/internal/auth"
	"github.com/vovakirdan/rtclobby/internal/config"
	"github.com/vovakirdan/rtclobby/internal/core"
	"github.com/vovakirdan/rtclobby/internal/metrics"
)

// Broker is the part of the lobby the transport talks to.
type Broker interface {
	Admit(ctx context.Context, sender core.Sender, peer, userAgent *string) (core.Admission, error)
	Receive(sender string, msg core.Message)
	Disconnect(name string)
}

// NewServer builds the HTTP server. The websocket endpoint sits on a plain
// mux in front of gin, which serves health, metrics and static files.
func NewServer(broker Broker, cfg *config.Config, m *metrics.Metrics, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery(), LoggerMiddleware(logger))

	router.GET("/health", healthHandler)
	if cfg.MetricsEnabled && m != nil {
		router.GET("/metrics", gin.WrapH(m.Handler()))
	}
	router.NoRoute(staticHandler(cfg.StaticPath))

	jwtConfig := &auth.JWTConfig{
		Secret:   []byte(cfg.Admission.Secret),
		Issuer:   cfg.Admission.Issuer,
		Audience: cfg.Admission.Audience,
		TTL:      cfg.Admission.TTL,
	}

	mux := stdhttp.NewServeMux()
	mux.Handle("/ws", RequireAdmission(jwtConfig, m, logger, NewWSHandler(broker, cfg, m, logger)))
	mux.Handle("/", router)

	return &stdhttp.Server{
		Addr:              cfg.Bind,
		Handler:           mux,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}

// staticHandler serves files below root with index.html as the directory
// index and listings for directories without one.
func staticHandler(root string) gin.HandlerFunc {
	files := stdhttp.FileServer(gin.Dir(root, true))
	return func(c *gin.Context) {
		if c.Request.Method != stdhttp.MethodGet && c.Request.Method != stdhttp.MethodHead {
			c.AbortWithStatus(stdhttp.StatusMethodNotAllowed)
			return
		}
		files.ServeHTTP(c.Writer, c.Request)
	}
}

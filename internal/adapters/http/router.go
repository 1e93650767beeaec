package http

import (
	"context"
	"time"

	"github.com/dkeye/SignCall/internal/adapters/ratelimit"
	"github.com/dkeye/SignCall/internal/adapters/signal"
	"github.com/dkeye/SignCall/internal/app/orch"
	"github.com/dkeye/SignCall/internal/config"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"
)

func SetupRouter(ctx context.Context, cfg *config.Config, o *orch.Orchestrator, ice []webrtc.ICEServer) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if err := r.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Strs("trusted_proxies", cfg.TrustedProxies).Msg("invalid trusted proxies, trusting none")
		_ = r.SetTrustedProxies(nil)
	}
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())
	r.Use(SecurityHeaders())
	r.Use(CORS(cfg.AllowedOrigins))

	store := cookie.NewStore([]byte(cfg.Secret))
	store.Options(sessions.Options{Path: "/", MaxAge: 3600 * 24 * 7, HttpOnly: true})
	r.Use(sessions.Sessions("SignCallSessions", store))
	r.Use(ClientTokenMiddleware())

	r.Static("/static", cfg.StaticPath)
	r.GET("/", func(c *gin.Context) {
		c.File(cfg.StaticPath + "/index.html")
	})

	log.Info().Str("module", "adapters.http").Str("static", cfg.StaticPath).Strs("origins", cfg.AllowedOrigins).Msg("router setup")

	ws := signal.NewSignalWSController(o, signal.Options{
		ReadLimit:       cfg.ReadLimit,
		PingPeriod:      cfg.PingPeriod,
		PongWait:        cfg.PongWait,
		WriteWait:       cfg.WriteWait,
		SendQueueSize:   cfg.SendQueueSize,
		FramesPerSecond: cfg.Limits.FramesPerSecond,
		CheckOrigin:     OriginAllowed(cfg.AllowedOrigins),
	})
	h := &handlers{
		orch:     o,
		ice:      ice,
		limiter:  ratelimit.New(cfg.Limits.PredictPerMinute, time.Minute),
		maxFrame: cfg.Sign.MaxFrameBytes,
	}

	api := r.Group("/api")
	api.GET("/ws/signal", func(c *gin.Context) {
		ws.HandleSignal(ctx, c)
	})
	api.GET("/health", h.health)
	api.GET("/rooms", h.rooms)
	api.GET("/presence", h.presence)
	api.GET("/ice", h.iceServers)
	api.POST("/sign/detect", h.detect)

	r.POST("/predict", h.predict)

	return r
}

package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/groupparlay/coordinator/internal/api/handler"
	"github.com/groupparlay/coordinator/internal/api/middleware"
	"github.com/groupparlay/coordinator/internal/config"
	"github.com/groupparlay/coordinator/internal/service"
	"github.com/groupparlay/coordinator/internal/ws"
)

// RouterDeps bundles every dependency needed to build the router.
// Populated once in main() and passed to SetupRouter.
type RouterDeps struct {
	AuthSvc    *service.AuthService
	ProfileSvc *service.ProfileService
	WeekSvc    *service.WeekService
	LegSvc     *service.LegService
	ParlaySvc  *service.ParlayService
	OddsSvc    *service.OddsService
	Hub        *ws.Hub
	Cfg        *config.Config
}

// SetupRouter creates and configures the member-facing Gin engine with all
// routes, middleware, CORS, and rate limiting rules.
func SetupRouter(deps RouterDeps) *gin.Engine {
	if deps.Cfg.IsProd() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())

	// ── CORS ─────────────────────────────────────────────────────────────────
	r.Use(corsMiddleware(deps.Cfg))

	// ── Health check ─────────────────────────────────────────────────────────
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(deps.AuthSvc)
	profileH := handler.NewProfileHandler(deps.ProfileSvc)
	weekH := handler.NewWeekHandler(deps.WeekSvc, deps.ParlaySvc, deps.LegSvc)
	legH := handler.NewLegHandler(deps.LegSvc)
	oddsH := handler.NewOddsHandler(deps.OddsSvc)

	// ── JWT middleware (shared) ───────────────────────────────────────────────
	jwtMW := middleware.JWTMiddleware(deps.AuthSvc)

	// ── Rate limiters ─────────────────────────────────────────────────────────
	authRL := middleware.RateLimitMiddleware(5) // per IP on auth endpoints
	legRL := middleware.RateLimitMiddleware(10) // per member on leg writes

	api := r.Group("/api")
	{
		// ── Auth (public, strict rate limit) ─────────────────────────────────
		auth := api.Group("/auth")
		auth.Use(authRL)
		{
			auth.POST("/register", authH.Register)
			auth.POST("/login", authH.Login)
			auth.POST("/refresh", authH.Refresh)
		}

		// ── Authenticated routes ──────────────────────────────────────────────
		authed := api.Group("")
		authed.Use(jwtMW)
		{
			// Profile
			authed.GET("/me", profileH.Me)
			authed.PATCH("/me", profileH.UpdateMe)

			// Weeks and parlays
			weeks := authed.Group("/weeks")
			{
				weeks.GET("/current", weekH.Current)
				weeks.GET("", weekH.List)
				weeks.GET("/:id", weekH.Get)
				weeks.GET("/:id/parlay", weekH.Parlay)
				weeks.GET("/:id/parlay/preview", weekH.ParlayPreview)
				weeks.GET("/:id/legs", weekH.Legs)
			}

			// Legs
			legs := authed.Group("/legs")
			{
				legs.GET("/mine", legH.Mine)
				legs.GET("/history", legH.History)
				legs.POST("", legRL, legH.Submit)
				legs.PATCH("/:id", legRL, legH.Edit)
				legs.DELETE("/:id", legRL, legH.Delete)
			}

			// Odds board
			authed.GET("/odds/games", oddsH.Games)
		}
	}

	// ── WebSocket ─────────────────────────────────────────────────────────────
	if deps.Hub != nil {
		r.GET("/ws", func(c *gin.Context) {
			deps.Hub.ServeWs(c.Writer, c.Request)
		})
	}

	return r
}

// ── CORS helper ───────────────────────────────────────────────────────────────

// corsMiddleware returns a gin middleware that sets appropriate CORS headers.
// In development all origins are allowed; in production only the configured
// front-end origins (WS_ALLOWED_ORIGINS).
func corsMiddleware(cfg *config.Config) gin.HandlerFunc {
	allowed := make(map[string]bool, len(cfg.Server.WSAllowedOrigins))
	for _, o := range cfg.Server.WSAllowedOrigins {
		allowed[o] = true
	}

	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		if !cfg.IsProd() {
			// Development: allow any origin
			c.Header("Access-Control-Allow-Origin", "*")
		} else if origin != "" && allowed[origin] {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Vary", "Origin")
		}

		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Request-ID")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

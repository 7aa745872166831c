package backoffice

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/groupparlay/coordinator/internal/api/middleware"
	"github.com/groupparlay/coordinator/internal/backoffice/handler"
	"github.com/groupparlay/coordinator/internal/config"
	"github.com/groupparlay/coordinator/internal/repository"
	"github.com/groupparlay/coordinator/internal/service"
)

// BackofficeDeps bundles every dependency needed for the admin router.
type BackofficeDeps struct {
	AuthSvc    *service.AuthService
	ProfileSvc *service.ProfileService
	WeekSvc    *service.WeekService
	LegSvc     *service.LegService
	ParlaySvc  *service.ParlayService
	OddsSvc    *service.OddsService
	UserRepo   *repository.UserRepository
	Cfg        *config.Config
}

// SetupBackofficeRouter creates the commissioner Gin engine, served on its
// own port (BACKOFFICE_PORT).
func SetupBackofficeRouter(deps BackofficeDeps) *gin.Engine {
	if deps.Cfg.IsProd() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(ipWhitelistMiddleware(deps.Cfg.Server.BackofficeAllowedIPs))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	dashH := handler.NewDashboardHandler(deps.WeekSvc, deps.LegSvc, deps.ParlaySvc, deps.ProfileSvc)
	weekH := handler.NewWeekAdminHandler(deps.WeekSvc, deps.ParlaySvc)
	legH := handler.NewLegReviewHandler(deps.LegSvc)
	userH := handler.NewUserAdminHandler(deps.ProfileSvc, deps.UserRepo)
	oddsH := handler.NewOddsAdminHandler(deps.OddsSvc)

	admin := r.Group("/admin")
	admin.Use(middleware.JWTMiddleware(deps.AuthSvc), middleware.CommissionerMiddleware())
	{
		admin.GET("/dashboard", dashH.Dashboard)

		// Seasons
		admin.GET("/seasons", weekH.ListSeasons)
		admin.POST("/seasons", weekH.CreateSeason)

		// Weeks
		w := admin.Group("/weeks")
		{
			w.GET("", weekH.List)
			w.POST("", weekH.Create)
			w.POST("/:id/lock", weekH.Lock)
			w.POST("/:id/reopen", weekH.Reopen)
			w.POST("/:id/finalize", weekH.Finalize)
			w.PUT("/:id/lock-time", weekH.SetLockTime)
			w.POST("/:id/parlay/recompute", weekH.RecomputeParlay)
		}

		// Leg review
		l := admin.Group("/legs")
		{
			l.GET("", legH.Queue)
			l.PUT("/:id/status", legH.SetStatus)
			l.POST("/batch-status", legH.BatchStatus)
		}

		// Users
		u := admin.Group("/users")
		{
			u.GET("", userH.List)
			u.GET("/:id", userH.Detail)
			u.PATCH("/:id", userH.UpdateInfo)
			u.PUT("/:id/role", userH.SetRole)
			u.POST("/:id/suspend", userH.Suspend)
			u.POST("/:id/activate", userH.Activate)
		}

		// Odds
		admin.POST("/odds/refresh", oddsH.Refresh)
	}

	return r
}

// ── IP whitelist middleware ───────────────────────────────────────────────────

// ipWhitelistMiddleware blocks requests from IPs not in the allowlist.
// allowedIPs is a comma-separated string; empty means allow all.
func ipWhitelistMiddleware(allowedIPs string) gin.HandlerFunc {
	if allowedIPs == "" {
		return func(c *gin.Context) { c.Next() } // dev mode: no restriction
	}

	allowed := make(map[string]bool)
	for _, ip := range strings.Split(allowedIPs, ",") {
		ip = strings.TrimSpace(ip)
		if ip != "" {
			allowed[ip] = true
		}
	}

	return func(c *gin.Context) {
		if !allowed[c.ClientIP()] {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success": false,
				"error":   "access denied: your IP is not whitelisted",
				"code":    "ERR_IP_NOT_ALLOWED",
			})
			return
		}
		c.Next()
	}
}

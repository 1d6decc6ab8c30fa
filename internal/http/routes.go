package http

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

const msgRegisterLimited = "Too many registration attempts. Please try again later."

type RouterOptions struct {
	// RegisterLimiter throttles POST /register per client IP. Nil disables the limit.
	RegisterLimiter Limiter
	// TraceService names the server spans. Empty disables request tracing.
	TraceService string
}

func NewRouter(h *Handler, opts RouterOptions) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestID())
	if opts.TraceService != "" {
		r.Use(Trace(opts.TraceService))
	}
	r.Use(Metrics())
	r.Use(RequestLogger(h.Log))

	r.GET("/healthz", h.Healthz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	register := []gin.HandlerFunc{h.Register}
	if opts.RegisterLimiter != nil {
		register = append([]gin.HandlerFunc{RateLimit(opts.RegisterLimiter, msgRegisterLimited)}, register...)
	}

	mountAuth := func(g gin.IRoutes) {
		g.POST("/register", register...)
		g.POST("/login", h.Login)
		g.GET("/refresh", h.Refresh)
		g.POST("/logout", h.Logout)
	}
	auth := r.Group("/api/auth")
	mountAuth(auth)
	auth.GET("/verify", h.VerifyEmail)

	// legacy clients call the auth routes without a prefix
	mountAuth(r)

	user := r.Group("/api/user", RequireAccess(h.Sessions))
	{
		user.GET("/:userId", h.UserDetails)
		user.DELETE("/:userId", h.DeleteUser)
	}
	return r
}

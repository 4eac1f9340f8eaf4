package http

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"clinic-api/internal/service"
)

// NewRouter configura el router de Gin con middlewares y rutas.
func NewRouter(
	logger *zap.Logger,
	userH *UserHandler,
	bookingH *BookingHandler,
	healthH *HealthHandler,
	tokenServ *service.TokenService,
) *gin.Engine {
	r := gin.New()

	// Middlewares básicos: logging, recovery, CORS abierto y JSON content-type.
	r.Use(zapLoggerMiddleware(logger), gin.Recovery(), cors.Default(), jsonContentTypeMiddleware())

	r.POST("/signup", userH.Signup)
	r.POST("/confirm_email", userH.ConfirmEmail)
	r.POST("/resend_code", userH.ResendCode)
	r.POST("/login", userH.Login)
	r.GET("/protected", TokenAuthMiddleware(tokenServ), userH.Profile)
	r.POST("/appointment", bookingH.CreateAppointment)
	r.GET("/healthz", healthH.Healthz)

	return r
}

// zapLoggerMiddleware crea un middleware simple de logging con zap.
func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

// jsonContentTypeMiddleware fuerza Content-Type: application/json en responses.
func jsonContentTypeMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Content-Type", "application/json")
		c.Next()
	}
}

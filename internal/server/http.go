package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/ashwood-health/scr-backend/internal/auth"
	"github.com/ashwood-health/scr-backend/internal/auth/middleware"
	"github.com/ashwood-health/scr-backend/internal/conf"
	"github.com/ashwood-health/scr-backend/internal/pkg/logger"

	docaiservice "github.com/ashwood-health/scr-backend/internal/docai/service"
	modelservice "github.com/ashwood-health/scr-backend/internal/model/service"
	templateservice "github.com/ashwood-health/scr-backend/internal/template/service"
	userservice "github.com/ashwood-health/scr-backend/internal/user/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Services groups the HTTP service handlers wired into the router
type Services struct {
	Template *templateservice.TemplateService
	Model    *modelservice.ModelService
	User     *userservice.UserService
	DocAI    *docaiservice.DocAIService
}

// HTTPServer serves the REST API
type HTTPServer struct {
	server *http.Server
	logger *logger.Logger
}

// NewHTTPServer builds the router and wires every route group
func NewHTTPServer(
	config *conf.Config,
	log *logger.Logger,
	redisClient *redis.Client,
	services *Services,
) *HTTPServer {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS())
	router.Use(RequestIDMiddleware())
	router.Use(LoggerMiddleware(log))
	router.MaxMultipartMemory = 8 << 20

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	jwtManager := auth.NewJWTManager(config.Auth.JWTSecret, config.Auth.JWTIssuer)

	// Identity-provider webhooks authenticate with a shared secret
	webhooks := router.Group("/api/v1/webhooks")
	webhooks.Use(middleware.WebhookRateLimiter(redisClient, log))
	webhooks.Use(middleware.WebhookAuth(config.Auth.WebhookSecret, log))
	webhooks.POST("/identity", services.User.HandleIdentityWebhook)

	api := router.Group("/api/v1")
	api.Use(middleware.JWTAuth(jwtManager, log))
	api.Use(middleware.APIRateLimiter(redisClient, log))

	registerRoutes(api, services)

	addr := fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)

	return &HTTPServer{
		server: &http.Server{
			Addr:    addr,
			Handler: router,
		},
		logger: log,
	}
}

func registerRoutes(api *gin.RouterGroup, s *Services) {
	templates := api.Group("/templates")
	{
		templates.POST("", s.Template.CreateTemplate)
		templates.GET("", s.Template.ListTemplates)
		templates.GET("/:id", s.Template.GetTemplate)
		templates.PUT("/:id", s.Template.UpdateTemplate)
		templates.DELETE("/:id", s.Template.DeleteTemplate)
	}

	users := api.Group("/users")
	{
		users.GET("", s.User.ListUsers)
		users.GET("/templates/defaults", s.Template.GetDefaultTemplates)
		users.PUT("/templates/defaults/:type", s.Template.SetDefaultTemplate)
		users.DELETE("/templates/defaults/:type", s.Template.RemoveDefaultTemplate)
		users.GET("/templates/selections", s.Template.GetTemplateSelections)
		users.PUT("/templates/selections", s.Template.UpdateTemplateSelection)
	}

	models := api.Group("/models")
	{
		models.GET("", s.Model.ListModels)
		models.POST("/import", s.Model.ImportModel)
		models.POST("/sync", s.Model.SyncModels)
		models.DELETE("/:id", s.Model.RemoveModel)
	}

	api.POST("/files", s.DocAI.UploadFile)
	api.POST("/extract", s.DocAI.Extract)
	api.POST("/generate-csv", s.DocAI.GenerateCSV)
}

// Start begins serving requests
func (s *HTTPServer) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	return nil
}

// Stop gracefully shuts the server down
func (s *HTTPServer) Stop(ctx context.Context) error {
	s.logger.Info("stopping HTTP server")
	return s.server.Shutdown(ctx)
}

// RequestIDMiddleware accepts or assigns a request id, echoes it on the
// response, and stores it in the request context for log correlation
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}

		c.Header("X-Request-ID", requestID)
		c.Request = c.Request.WithContext(
			logger.WithRequestID(c.Request.Context(), requestID))

		c.Next()
	}
}

// LoggerMiddleware logs one line per request, tagged with the request id
// (and user id once authenticated) from the request context
func LoggerMiddleware(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)

		log.WithContext(c.Request.Context()).Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("ip", c.ClientIP()),
		)
	}
}

package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/oops"
	"github.com/sirupsen/logrus"

	"tabletop-companion/internal/auth"
	"tabletop-companion/internal/service"
	"tabletop-companion/internal/storage"
)

// Deps are the collaborators a Handler needs. Exporter and Registry are optional.
type Deps struct {
	Users         service.UserService
	Characters    service.CharacterService
	Issuer        auth.Issuer
	Authenticator auth.Authenticator
	Exporter      storage.Exporter
	Logger        *logrus.Logger
	Registry      *prometheus.Registry
}

// Handler wires HTTP routes to domain services.
type Handler struct {
	users      service.UserService
	characters service.CharacterService
	issuer     auth.Issuer
	authn      auth.Authenticator
	exporter   storage.Exporter
	logger     *logrus.Logger
	registry   *prometheus.Registry
	metrics    *httpMetrics
}

func NewHandler(deps Deps) *Handler {
	logger := deps.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	registry := deps.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	return &Handler{
		users:      deps.Users,
		characters: deps.Characters,
		issuer:     deps.Issuer,
		authn:      deps.Authenticator,
		exporter:   deps.Exporter,
		logger:     logger,
		registry:   registry,
		metrics:    newHTTPMetrics(registry),
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(
		h.requestLogger(),
		h.recovery(),
		corsMiddleware(),
		h.metrics.middleware(),
	)
	router.GET("/metrics", h.metricsHandler())

	api := router.Group("/api")
	{
		api.GET("/health", func(ctx *gin.Context) {
			ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		users := api.Group("/users")
		users.POST("/register", h.register)
		users.POST("/login", h.login)
		users.GET("/profile", h.requireAuth(), h.profile)

		characters := api.Group("/characters", h.requireAuth())
		characters.POST("", h.createCharacter)
		characters.GET("", h.listCharacters)
		characters.GET("/:id", h.getCharacter)
		characters.PUT("/:id", h.updateCharacter)
		characters.DELETE("/:id", h.deleteCharacter)
		characters.POST("/:id/export", h.exportCharacter)
		characters.GET("/:id/exports", h.listExports)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "X-Request-ID")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func message(msg string) gin.H {
	return gin.H{"message": msg}
}

// writeError maps service errors onto the public error taxonomy. Anything
// unrecognised is logged in full and reported as a bare 500.
func (h *Handler) writeError(c *gin.Context, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"message": "Validation failed", "errors": verr.Fields})
	case errors.Is(err, service.ErrUserAlreadyExists):
		c.JSON(http.StatusBadRequest, message("User already exists"))
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusBadRequest, message("Invalid credentials"))
	case errors.Is(err, service.ErrUserNotFound):
		c.JSON(http.StatusNotFound, message("User not found"))
	case errors.Is(err, service.ErrCharacterNotFound):
		c.JSON(http.StatusNotFound, message("Character not found"))
	case errors.Is(err, storage.ErrExportDisabled):
		c.JSON(http.StatusServiceUnavailable, message("Export storage is not configured"))
	default:
		entry := h.entry(c).WithError(err)
		if oopsErr, ok := oops.AsOops(err); ok {
			entry = entry.WithFields(logrus.Fields{
				"code":    oopsErr.Code(),
				"context": oopsErr.Context(),
			})
		}
		entry.Error("request failed")
		c.JSON(http.StatusInternalServerError, message("Internal server error"))
	}
}

// characterID parses :id. Anything that is not a positive integer cannot name
// a character, so it is reported as not found.
func characterID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusNotFound, message("Character not found"))
		return 0, false
	}
	return id, true
}

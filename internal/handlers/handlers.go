package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"activeclub/gateway/internal/config"
	"activeclub/gateway/internal/loyalty"
	"activeclub/gateway/internal/otp"
	"activeclub/gateway/internal/session"
)

// Pinger is the health probe over the persisted store.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HandlerSet struct {
	log       zerolog.Logger
	cfg       *config.AppConfig
	sessions  *session.Store
	lifecycle *session.Lifecycle
	auth      *otp.Client
	loyalty   *loyalty.Client
	cache     Pinger
}

func NewHandlerSet(
	log zerolog.Logger,
	cfg *config.AppConfig,
	sessions *session.Store,
	lifecycle *session.Lifecycle,
	auth *otp.Client,
	loyaltyClient *loyalty.Client,
	cache Pinger,
) HandlerSet {
	return HandlerSet{
		log:       log,
		cfg:       cfg,
		sessions:  sessions,
		lifecycle: lifecycle,
		auth:      auth,
		loyalty:   loyaltyClient,
		cache:     cache,
	}
}

func (h HandlerSet) Register(router *gin.RouterGroup) {
	router.GET("/healthz", h.Health)

	v1 := router.Group("/v1")
	{
		auth := v1.Group("/auth")
		auth.POST("/otp/request", h.RequestOTP)
		auth.POST("/otp/verify", h.VerifyOTP)
		auth.POST("/logout", h.Logout)

		sess := v1.Group("/session")
		sess.GET("", h.SessionInfo)
		sess.POST("/revalidate", h.RevalidateSession)

		customer := v1.Group("/customer")
		customer.GET("", h.GetCustomer)
		customer.PUT("/profile", h.UpdateProfile)
		customer.GET("/activities", h.ListActivities)
	}
}

type healthResponse struct {
	Status      string `json:"status"`
	Cache       string `json:"cache"`
	Environment string `json:"environment"`
}

func (h HandlerSet) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	cacheStatus := "ok"
	if h.cache != nil {
		if err := h.cache.Ping(ctx); err != nil {
			cacheStatus = "error"
			h.log.Error().Err(err).Msg("store ping failed")
		}
	}

	c.JSON(http.StatusOK, healthResponse{
		Status:      "ok",
		Cache:       cacheStatus,
		Environment: h.cfg.Environment,
	})
}

// sendResultError maps a classified backend outcome onto the HTTP surface.
// An auth failure carries the redirect-to-login signal for the UI shell.
func sendResultError(c *gin.Context, resultErr *loyalty.ResultError) {
	switch resultErr.Type {
	case loyalty.ErrorAuth:
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":    string(loyalty.ErrorAuth),
			"redirect": "login",
		})
	case loyalty.ErrorNotFound:
		c.JSON(http.StatusNotFound, gin.H{
			"error":   string(loyalty.ErrorNotFound),
			"message": resultErr.Message,
			"code":    resultErr.Code,
		})
	default:
		c.JSON(http.StatusBadGateway, gin.H{
			"error":   string(loyalty.ErrorAPI),
			"message": resultErr.Message,
			"code":    resultErr.Code,
		})
	}
}

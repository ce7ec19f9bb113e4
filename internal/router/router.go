package router

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"paybridge/internal/handler"
	"paybridge/internal/handler/api"
	"paybridge/internal/middleware"
	"paybridge/internal/payment"
	"paybridge/internal/repository"
)

// Deps carries everything the HTTP surface needs. Carts, Archive and
// Deduper may be nil.
type Deps struct {
	Store    repository.PaymentStore
	Carts    api.CartProvider
	Archive  handler.CallbackArchive
	Deduper  middleware.CallbackDeduper
	Sessions repository.SessionRepository
	Verifier *payment.Verifier
	Gateway  payment.Gateway

	ProcessorBaseURL string
	ShopFrontendURL  string
	GatewayOrigin    string
	AttemptTimeout   time.Duration
}

// Setup configures all routes for the Echo server.
func Setup(e *echo.Echo, deps Deps, logger *zap.Logger) {
	// Global middleware
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger(logger))
	e.Use(middleware.CORS(deps.ShopFrontendURL))

	repos := &api.Repos{Payment: deps.Store, Carts: deps.Carts}
	paymentHandler := api.NewPaymentHandler(repos, deps.Gateway, deps.ProcessorBaseURL, logger)
	configHandler := api.NewConfigHandler(deps.ProcessorBaseURL, deps.GatewayOrigin, deps.AttemptTimeout)
	callbackHandler := handler.NewPaymentCallbackHandler(
		deps.Verifier,
		deps.Store,
		deps.Archive,
		deps.Deduper,
		deps.ShopFrontendURL,
		logger,
	)

	// Storefront API, scoped to the caller's session cart
	sessionGroup := e.Group("/payments")
	sessionGroup.Use(middleware.SessionAuth(deps.Sessions))
	sessionGroup.POST("", paymentHandler.Create)
	sessionGroup.GET("/status", paymentHandler.Status)

	// Client checkout settings
	e.GET("/config", configHandler.Get)

	// Gateway return URLs
	e.GET("/success", callbackHandler.Success)
	e.GET("/failure", callbackHandler.Failure)

	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
}

// Package api wires the HTTP surface: routes, middleware and error mapping.
package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoswagger "github.com/swaggo/echo-swagger"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/time/rate"

	_ "github.com/mesadeayuda/incident-system/docs"
	"github.com/mesadeayuda/incident-system/internal/api/handler"
	"github.com/mesadeayuda/incident-system/internal/api/middleware"
	"github.com/mesadeayuda/incident-system/internal/core/domain"
	"github.com/mesadeayuda/incident-system/internal/core/ports"
	"github.com/mesadeayuda/incident-system/internal/realtime"
	"github.com/mesadeayuda/incident-system/internal/storage"
)

// Deps carries everything the router needs; main builds them once.
type Deps struct {
	Auth          ports.AuthService
	Users         ports.UserService
	Incidents     ports.IncidentService
	Areas         ports.AreaService
	Notifications ports.NotificationService
	Audit         ports.AuditService

	Throttle    handler.LoginThrottle
	Attachments *storage.AttachmentStore
	Hub         *realtime.Hub

	Mongo *mongo.Database
	Redis *redis.Client

	AllowedOrigins []string
	RateLimit      float64
	RateBurst      int

	Log zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	// Upload size is enforced precisely in the attachment store; this cap just
	// keeps oversized bodies from being buffered at all.
	e.Use(echomiddleware.BodyLimit("12M"))
	e.Use(echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			d.Log.Info().
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Msg("request")
			return nil
		},
	}))
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: d.AllowedOrigins,
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAuthorization},
	}))
	if d.RateLimit > 0 {
		e.Use(echomiddleware.RateLimiterWithConfig(echomiddleware.RateLimiterConfig{
			Store: echomiddleware.NewRateLimiterMemoryStoreWithConfig(echomiddleware.RateLimiterMemoryStoreConfig{
				Rate:  rate.Limit(d.RateLimit),
				Burst: d.RateBurst,
			}),
		}))
	}
	e.Use(echoprometheus.NewMiddleware("incidents_http"))

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(d.Auth, d.Throttle)
	userHandler := handler.NewUserHandler(d.Users)
	incidentHandler := handler.NewIncidentHandler(d.Incidents, d.Attachments)
	areaHandler := handler.NewAreaHandler(d.Areas)
	notificationHandler := handler.NewNotificationHandler(d.Notifications)
	auditHandler := handler.NewAuditHandler(d.Audit)
	healthHandler := handler.NewHealthHandler(d.Mongo, d.Redis)
	realtimeHandler := handler.NewRealtimeHandler(d.Hub, d.AllowedOrigins)

	authn := middleware.Auth(d.Auth)

	// --- Public surface ---
	e.POST("/users/login", authHandler.Login)
	e.POST("/users/register", authHandler.Register, middleware.OptionalAuth(d.Auth))
	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthHandler.Readiness)
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoswagger.WrapHandler)

	// --- Authenticated surface ---
	e.GET("/users/verify", authHandler.Verify, authn)
	e.GET("/ws", realtimeHandler.Connect, authn)
	e.Static("/uploads", d.Attachments.Dir())

	users := e.Group("/users", authn)
	users.GET("", userHandler.List, middleware.RequireCapability(domain.CapUsersRead))
	users.PATCH("/:id", userHandler.Update, middleware.RequireCapability(domain.CapUsersUpdate))
	users.DELETE("/:id", userHandler.Delete, middleware.RequireCapability(domain.CapUsersDelete))

	incidents := e.Group("/incidents", authn)
	incidents.POST("", incidentHandler.Create, middleware.RequireCapability(domain.CapIncidentsCreate))
	incidents.GET("", incidentHandler.List, middleware.RequireCapability(domain.CapIncidentsReadAll))
	incidents.GET("/:id", incidentHandler.Get, middleware.RequireCapability(domain.CapIncidentsReadAll))
	incidents.PATCH("/:id", incidentHandler.Update, middleware.RequireAny(domain.CapIncidentsUpdateAll, domain.CapIncidentsUpdateAssigned))
	incidents.PATCH("/:id/estado", incidentHandler.ChangeStatus, middleware.RequireAny(domain.CapIncidentsUpdateAll, domain.CapIncidentsUpdateAssigned))
	incidents.PATCH("/:id/asignar", incidentHandler.Assign, middleware.RequireCapability(domain.CapIncidentsAssign))
	incidents.GET("/:id/comentarios", incidentHandler.ListComments, middleware.RequireCapability(domain.CapIncidentsReadAll))
	incidents.POST("/:id/comentarios", incidentHandler.AddComment, middleware.RequireCapability(domain.CapIncidentsComment))

	areas := e.Group("/areas", authn)
	areas.GET("", areaHandler.List)
	areas.POST("", areaHandler.Create, middleware.RequireCapability(domain.CapAreasManage))
	areas.PUT("/:id", areaHandler.Update, middleware.RequireCapability(domain.CapAreasManage))
	areas.DELETE("/:id", areaHandler.Delete, middleware.RequireCapability(domain.CapAreasManage))

	notifications := e.Group("/notifications", authn, middleware.RequireCapability(domain.CapNotificationsRead))
	notifications.GET("", notificationHandler.List)
	notifications.GET("/unread-count", notificationHandler.UnreadCount)
	notifications.PATCH("/:id/read", notificationHandler.MarkRead)
	notifications.PATCH("/read-all", notificationHandler.MarkAllRead)
	notifications.DELETE("/:id", notificationHandler.Delete)

	e.GET("/audit", auditHandler.List, authn, middleware.RequireCapability(domain.CapAuditRead))

	return e
}

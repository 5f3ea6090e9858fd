// Package server assembles the echo instance: global middleware, the
// authenticated /api group and every domain handler.
package server

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/medicare/medicare/internal/domain/appointment"
	"github.com/medicare/medicare/internal/domain/medicalrecord"
	"github.com/medicare/medicare/internal/domain/user"
	"github.com/medicare/medicare/internal/domain/utilityrequest"
	"github.com/medicare/medicare/internal/platform/auth"
	"github.com/medicare/medicare/internal/platform/middleware"
	"github.com/medicare/medicare/internal/platform/respond"
	"github.com/medicare/medicare/internal/platform/validate"
)

const Version = "1.0.0"

type Options struct {
	Logger      zerolog.Logger
	Stores      Stores
	Tokens      *auth.TokenIssuer
	Revocations auth.RevocationStore

	JWTSecret      []byte
	JWTIssuer      string
	CORSOrigins    []string
	RateLimit      middleware.RateLimitConfig
	RequestTimeout time.Duration
	BodyLimit      string

	// StoreHealth serves /health/store. When nil the route reports the
	// store as healthy without probing it.
	StoreHealth echo.HandlerFunc
}

// Server holds the router together with the user service, which the
// entry point also needs for admin seeding.
type Server struct {
	Echo  *echo.Echo
	Users *user.Service
}

func New(opts Options) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = validate.New()
	e.HTTPErrorHandler = respond.ErrorHandler(opts.Logger)

	e.Use(middleware.Recovery(opts.Logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(opts.Logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     opts.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders:     []string{"Authorization", "Content-Type", middleware.RequestIDHeader},
		AllowCredentials: true,
	}))
	e.Use(middleware.BodyLimit(opts.BodyLimit))
	if opts.RequestTimeout > 0 {
		e.Use(middleware.RequestTimeout(opts.RequestTimeout))
	}

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": Version,
		})
	})
	storeHealth := opts.StoreHealth
	if storeHealth == nil {
		storeHealth = func(c echo.Context) error {
			return respond.OK(c, http.StatusOK, map[string]string{"driver": "memory", "status": "healthy"})
		}
	}
	e.GET("/health/store", storeHealth)

	api := e.Group("/api")
	api.Use(auth.JWTMiddleware(auth.JWTConfig{
		Issuer:      opts.JWTIssuer,
		SigningKey:  opts.JWTSecret,
		Revocations: opts.Revocations,
		Accounts:    user.Accounts(opts.Stores.Users),
		Skipper:     auth.AuthSkipper,
	}))
	if opts.RateLimit.RequestsPerSecond > 0 {
		api.Use(middleware.RateLimit(opts.RateLimit))
	}
	api.Use(middleware.Audit(opts.Logger))

	st := opts.Stores
	userSvc := user.NewService(st.Users, opts.Tokens, opts.Revocations)
	apptSvc := appointment.NewService(st.Appointments, st.Users)
	recordSvc := medicalrecord.NewService(st.MedicalRecords, st.Users, st.Appointments)
	requestSvc := utilityrequest.NewService(st.UtilityRequests, st.Users)

	user.NewHandler(userSvc).RegisterRoutes(api)
	appointment.NewHandler(apptSvc).RegisterRoutes(api)
	medicalrecord.NewHandler(recordSvc).RegisterRoutes(api)
	utilityrequest.NewHandler(requestSvc).RegisterRoutes(api)

	return &Server{Echo: e, Users: userSvc}
}

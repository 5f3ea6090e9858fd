package db

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"

	"github.com/medicare/medicare/internal/platform/respond"
)

// PoolStats represents database connection pool statistics.
type PoolStats struct {
	TotalConns      int32  `json:"totalConns"`
	IdleConns       int32  `json:"idleConns"`
	AcquiredConns   int32  `json:"acquiredConns"`
	MaxConns        int32  `json:"maxConns"`
	AcquireCount    int64  `json:"acquireCount"`
	AcquireDuration string `json:"acquireDuration"`
}

// StoreHealth is the body of /health/store.
type StoreHealth struct {
	Driver string      `json:"driver"`
	Status string      `json:"status"`
	Pool   interface{} `json:"pool,omitempty"`
}

func GetPoolStats(pool *pgxpool.Pool) *PoolStats {
	stat := pool.Stat()
	return &PoolStats{
		TotalConns:      stat.TotalConns(),
		IdleConns:       stat.IdleConns(),
		AcquiredConns:   stat.AcquiredConns(),
		MaxConns:        stat.MaxConns(),
		AcquireCount:    stat.AcquireCount(),
		AcquireDuration: stat.AcquireDuration().String(),
	}
}

// Pinger is anything that can verify its connection to a store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler pings the store and reports its status; stats, when
// non-nil, is called for extra detail such as pool statistics.
func HealthHandler(driver string, p Pinger, stats func() interface{}) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
		defer cancel()

		body := StoreHealth{Driver: driver, Status: "healthy"}
		if stats != nil {
			body.Pool = stats()
		}

		if err := p.Ping(ctx); err != nil {
			body.Status = "unhealthy"
			return c.JSON(http.StatusServiceUnavailable, respond.Envelope{
				Success: false,
				Data:    body,
				Message: "store unreachable",
			})
		}

		return respond.OK(c, http.StatusOK, body)
	}
}

// PoolHealthHandler is HealthHandler for a pgx pool.
func PoolHealthHandler(pool *pgxpool.Pool) echo.HandlerFunc {
	return HealthHandler("postgres", pool, func() interface{} { return GetPoolStats(pool) })
}

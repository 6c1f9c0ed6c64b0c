package db

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
)

type PoolStats struct {
	TotalConns      int32  `json:"total_conns"`
	IdleConns       int32  `json:"idle_conns"`
	AcquiredConns   int32  `json:"acquired_conns"`
	MaxConns        int32  `json:"max_conns"`
	AcquireCount    int64  `json:"acquire_count"`
	AcquireDuration string `json:"acquire_duration"`
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

// Pinger reports whether a datastore is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

const healthTimeout = 5 * time.Second

// HealthHandler serves GET /health/db for a postgres pool.
func HealthHandler(pool *pgxpool.Pool) echo.HandlerFunc {
	return CheckHandler(pool, func() interface{} { return GetPoolStats(pool) })
}

// CheckHandler pings p and answers 200 or 503. When stats is non-nil its
// result is included under "pool".
func CheckHandler(p Pinger, stats func() interface{}) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), healthTimeout)
		defer cancel()

		body := map[string]interface{}{"status": "healthy"}
		if stats != nil {
			body["pool"] = stats()
		}
		if err := p.Ping(ctx); err != nil {
			body["status"] = "unhealthy"
			body["error"] = err.Error()
			return c.JSON(http.StatusServiceUnavailable, body)
		}
		return c.JSON(http.StatusOK, body)
	}
}

package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"gearbook/internal/middleware"
	"gearbook/internal/modules/booking"
	"gearbook/internal/modules/equipment"
	jwtsvc "gearbook/internal/pkg/jwt"
)

type Deps struct {
	DB          *gorm.DB
	JWT         *jwtsvc.Service
	Bookings    *booking.Handler
	Equipment   *equipment.Handler
	Logger      zerolog.Logger
	CORSOrigins []string
}

// NewRouter mounts the health probe and the tenant-scoped API.
func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.RequestLogger(d.Logger),
		middleware.CORS(d.CORSOrigins),
	)

	r.GET("/health", health(d.DB))

	v1 := r.Group("/api/v1")
	v1.Use(middleware.JWTAuth(d.JWT))
	{
		d.Bookings.RegisterRoutes(v1)
		d.Equipment.RegisterRoutes(v1)
	}

	return r
}

func health(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			err = sqlDB.PingContext(ctx)
		}
		if err != nil {
			_ = c.Error(err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

package api

import (
	"errors"
	"time"

	cacheHandler "pantry-scanner/internal/api/handlers/cache"
	"pantry-scanner/internal/api/handlers/health"
	"pantry-scanner/internal/api/handlers/products"
	"pantry-scanner/internal/api/handlers/receipts"
	"pantry-scanner/internal/api/middleware"
	"pantry-scanner/internal/core/ai/service"
	"pantry-scanner/internal/infrastructure/config"
	"pantry-scanner/internal/pkg/common"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// multipartOverhead multipart 邊界與欄位所需的額外空間
const multipartOverhead = 1 << 20

// SetupRouter 設置路由
func SetupRouter(cfg *config.Config, svc *service.Service) (*gin.Engine, error) {
	if cfg == nil || svc == nil {
		return nil, errors.New("config and service are required")
	}

	common.LogInfo("Starting router setup",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
	)

	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(middleware.Recovery())
	router.Use(requestid.New())
	router.Use(middleware.Logger())

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	// base64 JSON 比原始圖片大約三分之一
	maxBody := svc.MaxImageBytes()*4/3 + multipartOverhead
	router.Use(middleware.BodySizeLimit(maxBody))
	router.Use(middleware.Timeout(cfg.Server.RequestTimeout))

	healthHandler := health.NewHandler(cfg.App.Version, svc)
	router.GET("/health", healthHandler.HealthCheck)
	router.GET("/ready", healthHandler.ReadinessCheck)
	router.GET("/live", healthHandler.LivenessCheck)

	api := router.Group("/api/v1")
	if cfg.RateLimit.Enabled {
		api.Use(middleware.RateLimit(cfg.RateLimit.Requests, cfg.RateLimit.Window))
	}
	api.Use(middleware.Deduplication(cfg.DedupWindow))
	{
		productHandler := products.NewHandler(svc)
		api.POST("/products/recognize", productHandler.Recognize)

		receiptHandler := receipts.NewHandler(svc)
		api.POST("/receipts/parse", receiptHandler.Parse)

		cacheAdmin := cacheHandler.NewHandler(svc)
		api.GET("/cache/stats", cacheAdmin.Stats)
		api.DELETE("/cache", cacheAdmin.Clear)
	}

	common.LogInfo("Router setup completed",
		zap.Bool("rate_limit", cfg.RateLimit.Enabled),
		zap.Duration("dedup_window", cfg.DedupWindow),
		zap.Duration("request_timeout", cfg.Server.RequestTimeout),
		zap.Int64("max_body_size", maxBody),
	)

	return router, nil
}

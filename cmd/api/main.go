package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"audiencehub/internal/config"
	"audiencehub/internal/klaviyo"
	"audiencehub/internal/logging"
	"audiencehub/internal/middleware"
	"audiencehub/internal/modules/form"
	"audiencehub/internal/modules/lists"
	"audiencehub/internal/modules/profiles"
	"audiencehub/web"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.New(cfg.Logging)
	if cfg.Klaviyo.APIKey == "" {
		logger.Warn("KLAVIYO_API_KEY is not set, all API handlers will answer with a configuration error")
	}

	client := klaviyo.NewClient(cfg.Klaviyo)

	var metrics *middleware.Metrics
	if cfg.HTTP.MetricsEnabled {
		metrics = middleware.NewMetrics(prometheus.DefaultRegisterer)
		client.SetRecorder(metrics)
	}

	profileService := profiles.NewService(client, logger)

	listsHandler := lists.NewHandler(client, cfg.Klaviyo.APIKey)
	profilesHandler := profiles.NewHandler(client, profileService, cfg.Klaviyo.APIKey, logger)
	formHandler := form.NewHandler(client, cfg.Klaviyo.APIKey, cfg.Klaviyo.FormID)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.CORS(cfg.CORS))
	if metrics != nil {
		r.Use(metrics.Handler())
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/", func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", web.IndexHTML)
	})
	r.GET("/app.js", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/javascript; charset=utf-8", web.AppJS)
	})

	root := r.Group("/")
	{
		listsHandler.RegisterRoutes(root)
		profilesHandler.RegisterRoutes(root)
		formHandler.RegisterRoutes(root)
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:      r,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("shutdown failed", "error", err)
	}
}

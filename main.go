package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"lakebase_dashboards/config"
	"lakebase_dashboards/middleware"
	"lakebase_dashboards/models"
	"lakebase_dashboards/routes"
	"lakebase_dashboards/scheduler"
	"lakebase_dashboards/services/dashboard"
	"lakebase_dashboards/services/databricks"
	"lakebase_dashboards/services/feed"
	"lakebase_dashboards/services/realtime"
	"lakebase_dashboards/services/snapshotstore"
	"lakebase_dashboards/telemetry"
	"lakebase_dashboards/templates"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const (
	figureCacheTTL   = 5 * time.Minute
	rateLimitIdleTTL = 10 * time.Minute
)

// ready flips once every pool has answered a ping
var ready atomic.Bool

// app holds everything that needs closing on shutdown
type app struct {
	pools      map[string]*gorm.DB
	dashboards *dashboard.Registry
	store      snapshotstore.Store
	cache      *dashboard.Cache
	hub        *realtime.Hub
	limiter    *middleware.RateLimiter
	scheduler  *scheduler.Scheduler
	tracing    telemetry.Shutdown
}

func main() {
	log.Println("==============================================")
	log.Println("  Lakebase Dashboards - Starting...")
	log.Println("==============================================")

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}

	// Set Gin mode based on environment
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	shutdownTracing, err := telemetry.SetupTracing(cfg.TracingEnabled, os.Stdout)
	if err != nil {
		log.Fatalf("Tracing setup failed: %v", err)
	}

	a, err := build(cfg)
	if err != nil {
		log.Fatalf("Startup failed: %v", err)
	}
	a.tracing = shutdownTracing

	// Create Gin router
	router := gin.New()

	// Add middlewares
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())
	router.Use(middleware.TracingMiddleware(nil))
	router.Use(requestLogger())

	tmpl, err := templates.Load()
	if err != nil {
		log.Fatalf("Could not load templates: %v", err)
	}
	router.SetHTMLTemplate(tmpl)

	setupHealthEndpoints(router, a.pools)
	routes.SetupRoutes(router, a.dashboards, a.hub, a.limiter)

	server := &http.Server{
		Addr:              "0.0.0.0:" + cfg.Port,
		Handler:           router,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1 MB
	}

	go func() {
		log.Printf("Server listening on 0.0.0.0:%s", cfg.Port)
		log.Println("==============================================")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Check the pools in background so a slow credential call does not
	// hold up the listener
	go func() {
		for name, db := range a.pools {
			if err := config.PingDB(context.Background(), db); err != nil {
				log.Printf("ERROR: Database %s not reachable: %v", name, err)
				log.Println("Dashboards will serve cached or empty data until it recovers")
				return
			}
		}
		ready.Store(true)
		log.Println("Application fully initialized with database")
	}()

	if err := a.scheduler.Start(); err != nil {
		log.Fatalf("Scheduler error: %v", err)
	}

	gracefulShutdown(server, a)
}

// build wires the pools, feeds and dashboards the config enables
func build(cfg *config.Config) (*app, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var client *databricks.Client
	if cfg.DatabricksHost != "" {
		c, err := databricks.NewClient(ctx, cfg.DatabricksHost, cfg.DatabricksToken, cfg.DatabricksClientID, cfg.DatabricksClientSecret)
		if err != nil {
			return nil, err
		}
		client = c
		if cfg.PGUser == "" {
			user, err := client.CurrentUser(ctx)
			if err != nil {
				return nil, err
			}
			cfg.PGUser = user.UserName
			log.Printf("Using Databricks user %s for PGUSER", user.UserName)
		}
	}
	creds := config.NewCredentialSource(cfg, client)

	a := &app{pools: make(map[string]*gorm.DB)}
	pool := func(database string) (*gorm.DB, error) {
		if db, ok := a.pools[database]; ok {
			return db, nil
		}
		db, err := config.InitDB(cfg, database, creds)
		if err != nil {
			return nil, err
		}
		a.pools[database] = db
		return db, nil
	}

	store, err := snapshotstore.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.store = store

	cache, err := dashboard.NewCache(cfg.FigureCacheSize, figureCacheTTL)
	if err != nil {
		return nil, err
	}
	a.cache = cache

	var dashboards []dashboard.Dashboard
	if cfg.Enabled(config.DashboardTelecom) {
		db, err := pool(cfg.Telecom.Database)
		if err != nil {
			return nil, err
		}
		source := feed.NewGormSource[models.IoTReading](db, cfg.Telecom.Schema, cfg.Telecom.Table, cfg.QueryRowLimit)
		f := feed.New[models.IoTReading](config.DashboardTelecom, source, store)
		if err := f.Restore(ctx); err != nil {
			log.Printf("Warning: %v", err)
		}
		dashboards = append(dashboards, dashboard.NewTelecom(f, cfg.Telecom, cache))
	}
	if cfg.Enabled(config.DashboardContentPulse) {
		db, err := pool(cfg.ContentPulse.Database)
		if err != nil {
			return nil, err
		}
		source := feed.NewGormSource[models.EngagementEvent](db, cfg.ContentPulse.Schema, cfg.ContentPulse.Table, cfg.QueryRowLimit)
		f := feed.New[models.EngagementEvent](config.DashboardContentPulse, source, store)
		if err := f.Restore(ctx); err != nil {
			log.Printf("Warning: %v", err)
		}
		dashboards = append(dashboards, dashboard.NewContentPulse(f, cfg.ContentPulse, cache))
	}

	registry := dashboard.NewRegistry(dashboards...)
	a.hub = realtime.NewHub(cfg.WebSocketClients)
	a.limiter = middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, rateLimitIdleTTL)
	a.scheduler = scheduler.NewScheduler(registry, a.hub)
	a.dashboards = registry

	log.Printf("Serving %d dashboard(s) from %d database pool(s)", len(dashboards), len(a.pools))
	return a, nil
}

// setupHealthEndpoints sets up the liveness, readiness and startup probes
func setupHealthEndpoints(router *gin.Engine, pools map[string]*gorm.DB) {
	// Liveness probe - always returns OK if server is running
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
		})
	})

	// Readiness probe - pings every pool, which also mints a credential
	router.GET("/ready", func(c *gin.Context) {
		for name, db := range pools {
			if err := config.PingDB(c.Request.Context(), db); err != nil {
				log.Printf("Readiness check failed for %s: %v", name, err)
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"status":  "not_ready",
					"message": "Database ping failed",
				})
				return
			}
		}
		ready.Store(true)
		c.JSON(http.StatusOK, gin.H{
			"status": "ready",
		})
	})

	// Startup probe - reports whether the first database check passed
	router.GET("/startup", func(c *gin.Context) {
		status := "starting"
		if ready.Load() {
			status = "started"
		}
		c.JSON(http.StatusOK, gin.H{
			"status": status,
		})
	})
}

// corsMiddleware returns a CORS middleware handler
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}

		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Access-Control-Allow-Methods", "GET, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, X-Requested-With")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// requestLogger returns a request logging middleware
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Skip logging for probes and scrapes to reduce noise
		path := c.Request.URL.Path
		if path == "/health" || path == "/ready" || path == "/startup" || path == "/metrics" {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		duration := time.Since(start)

		// Only log errors or slow requests
		if c.Writer.Status() >= 400 || duration > 1*time.Second {
			log.Printf("%s %s %d %v", c.Request.Method, path, c.Writer.Status(), duration)
		}
	}
}

// gracefulShutdown stops producers before the server, and the server
// before the resources it reads from
func gracefulShutdown(server *http.Server, a *app) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// Wait for shutdown signal
	sig := <-quit
	log.Printf("Received signal %v, shutting down gracefully...", sig)

	a.scheduler.Stop()
	a.hub.Shutdown()
	a.limiter.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Shutdown HTTP server
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	// Close database connections
	for name, db := range a.pools {
		sqlDB, err := db.DB()
		if err == nil {
			sqlDB.Close()
			log.Printf("Database %s connection closed", name)
		}
	}

	a.cache.Close()
	if err := a.store.Close(); err != nil {
		log.Printf("Error closing snapshot store: %v", err)
	}
	if err := a.tracing(ctx); err != nil {
		log.Printf("Error flushing traces: %v", err)
	}

	log.Println("Server shutdown completed")
}

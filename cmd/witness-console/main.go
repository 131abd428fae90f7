package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/edirooss/witness-console/internal/backend"
	"github.com/edirooss/witness-console/internal/config"
	"github.com/edirooss/witness-console/internal/http/handler"
	mw "github.com/edirooss/witness-console/internal/http/middleware"
	"github.com/edirooss/witness-console/internal/metrics"
	"github.com/edirooss/witness-console/internal/repo"
	"github.com/edirooss/witness-console/internal/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/secure"
	sessionsredis "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"
)

var configPath string

func init() {
	// Handle version display and flags
	parseFlags()
}

func main() {
	// Read env (.env is optional)
	_ = godotenv.Load()
	isDev := os.Getenv("ENV") == "dev"

	// Load config
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Create Zap logger
	log := buildLogger()
	defer log.Sync()
	log = log.Named("main")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Create Gin router
	if !isDev {
		gin.SetMode(gin.ReleaseMode)
	}
	gin.DefaultWriter = zap.NewStdLog(log.Named("gin")).Writer() // Configure Gin's logger to use Zap
	r := gin.New()
	handler.ConfigureEngine(r)

	// Build services
	m := metrics.New()
	rdb := repo.NewRedisClient(log, cfg.Redis.Addr, cfg.Redis.DB)
	store := repo.NewRepository(log, rdb, cfg.Redis.CameraListKey)
	defer store.Close()

	be := backend.NewClient(log, cfg.Backend, nil)
	registry := service.NewRegistryService(ctx, log, be, store.Cameras, m, cfg.Registry.DuplicateLabels)
	mirror := service.NewMirrorService(log, be, m, cfg.Mirror.EventCapacity)
	export := service.NewExportService(log, be, m)

	sessstore, err := sessionsredis.NewStoreWithDB(10, "tcp", cfg.Redis.Addr, "", strconv.Itoa(cfg.Redis.SessionDB),
		[]byte(cfg.Operator.SessionSecret))
	if err != nil {
		log.Fatal("session store creation failed", zap.Error(err))
	}
	usrsesssvc := service.NewUserSessionService(isDev, sessstore)
	authsvc := service.NewAuthService(log, cfg.Operator, usrsesssvc)

	// Apply Gin middlewares
	{
		r.Use(gin.Recovery()) // Recovery first (outermost)
		r.Use(mw.RequestID()) // Attach request ID for tracing; early in the chain so it's available everywhere

		if isDev { // Enable CORS for local UI dev servers
			r.Use(cors.New(cors.Config{
				AllowOrigins:     cfg.DevOrigins,
				AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
				AllowHeaders:     []string{"X-Request-ID", "Content-Type", "X-CSRF-Token"},
				ExposeHeaders:    []string{"X-Request-ID", "X-Total-Count", "Content-Disposition"},
				AllowCredentials: true, // Allow cookies in dev
				MaxAge:           12 * time.Hour,
			}))
		} else { // Behind a TLS-terminating proxy
			if err := r.SetTrustedProxies(append([]string{"127.0.0.1"}, cfg.TrustedProxies...)); err != nil {
				log.Fatal("invalid trusted proxies", zap.Error(err))
			}
			r.Use(secure.New(secure.Config{
				FrameDeny:          true,
				ContentTypeNosniff: true,
				SSLProxyHeaders: map[string]string{
					"X-Forwarded-Proto": "https", // Fix scheme for secure cookies
				},
			}))
		}

		r.Use(usrsesssvc.Middleware()) // Attach operator cookie-based session

		r.Use(accessLog(log.Named("http"), authsvc)) // Observability (logger, tracing)

		r.Use(func(c *gin.Context) {
			// Enforce a hard 10MB max request body.
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, 10<<20)
			c.Next()
		})
	}

	// Register route handlers
	r.GET("/metrics", gin.WrapH(m.Handler()))
	handler.RegisterRoutes(r, log, handler.Deps{
		Auth:     authsvc,
		Registry: registry,
		Mirror:   mirror,
		Export:   export,
	})

	httpsrv := &http.Server{
		Addr:              cfg.Addr + ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 2 * time.Second,  // kills header-drip Slowloris
		ReadTimeout:       10 * time.Second, // full request read (incl. body)
		WriteTimeout:      60 * time.Second, // exports can take a while; /api/live clears its own deadline
		IdleTimeout:       60 * time.Second, // keep-alive cap
		MaxHeaderBytes:    1 << 20,          // 1MB cap
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return mirror.Run(gctx, registry)
	})
	g.Go(func() error {
		log.Info("running HTTP server", zap.String("addr", httpsrv.Addr), zap.String("backend", cfg.Backend.BaseURL))
		if err := httpsrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpsrv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server failed", zap.Error(err))
		os.Exit(1)
	}
	log.Info("server closed")
}

// parseFlags reads -config and prints build metadata and exits when -v/--version is provided.
func parseFlags() {
	flag.StringVar(&configPath, "config", "witness-console.yaml", "path to the YAML config file")
	v := flag.Bool("v", false, "print version and exit")
	flag.BoolVar(v, "version", false, "print version and exit")
	flag.Parse()

	if *v {
		fmt.Printf("witness-console %s (commit %s, built %s)\n", config.Version, config.GitCommit, config.BuildDate)
		os.Exit(0)
	}
}

// accessLog is a Gin middleware that records HTTP request/response details with Zap after handling.
func accessLog(log *zap.Logger, authsvc *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		latency := time.Since(start)
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}

		var errs []error
		for _, ge := range c.Errors {
			if ge.Err != nil {
				errs = append(errs, ge.Err)
			}
		}
		joinedErr := errors.Join(errs...)

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("route", route),
			zap.Int("status", status),
			zap.String("client_ip", c.ClientIP()),
			zap.String("request_id", mw.GetRequestID(c)),
			zap.Duration("latency", latency),
		}
		if p := authsvc.WhoAmI(c); p != nil {
			fields = append(fields, zap.Dict("auth",
				zap.String("id", p.ID),
				zap.String("kind", p.PrincipalType.String()),
			))
		}
		if joinedErr != nil {
			fields = append(fields, zap.Error(joinedErr))
		}

		switch {
		case status >= 500:
			log.Error("request", fields...)
		case status >= 400:
			log.Warn("request", fields...)
		default:
			log.Info("request", fields...)
		}
	}
}

// helpers

func buildLogger() *zap.Logger {
	logConfig := zap.NewDevelopmentConfig()
	logConfig.EncoderConfig.TimeKey = ""
	logConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	logConfig.DisableStacktrace = true
	logConfig.DisableCaller = true
	logConfig.Level.SetLevel(zap.DebugLevel)
	return zap.Must(logConfig.Build())
}

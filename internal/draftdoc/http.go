// Пакет draftdoc поднимает HTTP сервис редактирования документов: API изменения содержимого, загрузку
// изображений (multipart и tus), экспорт, живое превью по websocket, фоновые задачи и метрики.
//
// Основные возможности:
//   - Маршруты API документов под /api/.
//   - Очистка неиспользуемых файлов по расписанию.
//   - Метрики Prometheus на отдельном адресе.
//   - Корректная остановка по SIGINT/SIGTERM.
package draftdoc

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aisa-it/draftdoc/internal/draftdoc/business"
	"github.com/aisa-it/draftdoc/internal/draftdoc/config"
	"github.com/aisa-it/draftdoc/internal/draftdoc/cronmanager"
	filestorage "github.com/aisa-it/draftdoc/internal/draftdoc/file-storage"
	"github.com/aisa-it/draftdoc/internal/draftdoc/maintenance"
	"github.com/aisa-it/draftdoc/internal/draftdoc/notifications"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

//go:generate go run ../../cmd/docsgen/main.go -src apierrors/apierrors.go -out ../../docs/api_errors.md

const shutdownTimeout = 10 * time.Second

type Services struct {
	db       *gorm.DB
	cfg      *config.Config
	storage  filestorage.FileStorage
	hub      *notifications.PreviewHub
	business *business.Business
}

func NewServices(db *gorm.DB, cfg *config.Config, storage filestorage.FileStorage) *Services {
	hub := notifications.NewPreviewHub()
	return &Services{
		db:       db,
		cfg:      cfg,
		storage:  storage,
		hub:      hub,
		business: business.NewBL(db, storage, hub, cfg),
	}
}

// ServerHeader middleware adds a `Server` header to the response.
func ServerHeader(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Set(echo.HeaderServer, "DraftDoc")
		return next(c)
	}
}

// NewEcho собирает обработчики и middleware. Метрики запросов регистрируются в reg.
func (s *Services) NewEcho(version string, reg prometheus.Registerer) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
		}

		// Ignore 404
		if code == http.StatusNotFound {
			c.NoContent(http.StatusNotFound)
			return
		}
		if code != http.StatusRequestEntityTooLarge {
			slog.Error("Unhandled error in endpoint", "url", c.Request().URL, "err", err)
		}
		EErrorMsgStatus(c, nil, code)
	}

	e.Use(ServerHeader)
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowCredentials: true,
	}))
	e.Use(middleware.BodyLimitWithConfig(middleware.BodyLimitConfig{
		Limit: "5M",
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/api/docs/:docId/attachments/" ||
				strings.Contains(c.Path(), "/api/docs/attachments/tus/")
		},
	}))
	e.Use(middleware.GzipWithConfig(middleware.GzipConfig{
		Level:     9,
		MinLength: 2048,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/api/ws/docs/:docId/" ||
				strings.Contains(c.Path(), "/api/docs/attachments/tus/")
		},
	}))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "draftdoc",
		Registerer: reg,
	}))
	e.Pre(middleware.AddTrailingSlashWithConfig(middleware.TrailingSlashConfig{
		Skipper: func(c echo.Context) bool {
			return strings.Contains(c.Request().URL.Path, "/tus/")
		},
	}))

	e.Validator = NewRequestValidator()

	apiGroup := e.Group("/api/")

	s.AddDocServices(apiGroup)
	s.AddAttachmentServices(apiGroup)

	apiGroup.GET("version/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"version":        version,
			"max_list_depth": s.cfg.MaxListDepth,
			"max_upload_mb":  s.cfg.MaxUploadSizeMB,
		})
	})

	// Health endpoint
	apiGroup.GET("_health/", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	return e
}

func (s *Services) jobRegistry() cronmanager.JobRegistry {
	jobs := cronmanager.JobRegistry{}
	if !s.cfg.AssetsCleanDisabled {
		jobs["assets_clean"] = cronmanager.Job{
			Func:     maintenance.NewAssetCleaner(s.db, s.storage).Job,
			Schedule: s.cfg.AssetsCleanSchedule,
		}
	}
	return jobs
}

// Server запускает API и сервер метрик и блокируется до сигнала остановки или ошибки одного из серверов.
func Server(db *gorm.DB, cfg *config.Config, version string) error {
	storage, err := filestorage.NewStorage(cfg, cfg.FilesDir)
	if err != nil {
		return err
	}

	s := NewServices(db, cfg, storage)

	cronManager := cronmanager.NewCronManager(s.jobRegistry())
	if err := cronManager.LoadJobs(); err != nil {
		return err
	}
	cronManager.Start()

	e := s.NewEcho(version, prometheus.DefaultRegisterer)

	bootTimeGauge := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "draftdoc",
		Name:      "boot_time",
		Help:      "Server startup time",
	})
	bootTimeGauge.Set(float64(time.Now().UnixMilli()))
	if err := prometheus.Register(bootTimeGauge); err != nil {
		slog.Error("Register boot time gauge", "err", err)
	}

	metrics := echo.New()
	metrics.HideBanner = true
	metrics.HidePort = true
	metrics.GET("/metrics", echoprometheus.NewHandler())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := metrics.Start(cfg.MetricsAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		slog.Info("Server start", "addr", cfg.ListenAddr, "version", version)
		if err := e.Start(cfg.ListenAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("Shutting down gracefully, press Ctrl+C again to force")
		stop()
		cronManager.Stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := metrics.Shutdown(shutdownCtx); err != nil {
			slog.Error("Metrics server shutdown", "err", err)
		}
		return e.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

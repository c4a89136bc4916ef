package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/helpdesk/internal/api/http"
	"github.com/spec-kit/helpdesk/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/config"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/observability"
	"github.com/spec-kit/helpdesk/internal/persistence"
	"github.com/spec-kit/helpdesk/internal/ratelimit"
	"github.com/spec-kit/helpdesk/internal/repository"
	"github.com/spec-kit/helpdesk/internal/repository/memory"
	"github.com/spec-kit/helpdesk/internal/sanitize"
	"github.com/spec-kit/helpdesk/internal/service"
	"github.com/spec-kit/helpdesk/internal/storage"
	"github.com/spec-kit/helpdesk/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metrics := observability.NewMetrics()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	var uow repository.UnitOfWork
	if pg.Configured() {
		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
				logger.Fatal("failed to run migrations", zap.Error(err))
			}
		}
		uow = repository.NewUnitOfWork(pg.PoolHandle())
	} else {
		uow = memory.NewStore()
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	files, err := openFileStore(cfg.Storage, logger)
	if err != nil {
		logger.Fatal("failed to open upload directory", zap.Error(err))
	}

	policy, err := service.NewAssignmentPolicy(cfg.Helpdesk.AssignmentPolicy)
	if err != nil {
		logger.Fatal("invalid assignment policy", zap.Error(err))
	}

	dispatcher := events.NewInMemoryDispatcher(logger)
	validate := handlers.NewValidator()
	sanitizer := sanitize.New()
	audit := service.NewAuditRecorder(nil)

	ticketService := service.NewTicketService(service.TicketDependencies{
		UnitOfWork:        uow,
		Audit:             audit,
		Dispatcher:        dispatcher,
		Logger:            logger,
		Metrics:           metrics,
		NumberGenerator:   domain.NewTicketNumberGenerator(cfg.Helpdesk.TicketNumberPrefix),
		MaxNumberAttempts: cfg.Helpdesk.TicketNumberMaxAttempts,
		ApproachingWindow: cfg.Helpdesk.ApproachingWindow(),
		MaxPerPage:        cfg.Helpdesk.MaxPerPage,
	})
	commentService := service.NewCommentService(service.CommentDependencies{
		UnitOfWork: uow,
		Audit:      audit,
		Sanitizer:  sanitizer,
		Dispatcher: dispatcher,
		Logger:     logger,
		Metrics:    metrics,
	})
	categoryService := service.NewCategoryService(service.CategoryDependencies{
		UnitOfWork: uow,
		Audit:      audit,
		Sanitizer:  sanitizer,
		Logger:     logger,
	})
	attachmentService := service.NewAttachmentService(service.AttachmentDependencies{
		UnitOfWork: uow,
		Files:      files,
		Audit:      audit,
		Logger:     logger,
	})
	clientService := service.NewClientService(service.ClientDependencies{
		UnitOfWork: uow,
		Tickets:    ticketService,
		Assignment: service.NewAssignmentService(policy),
		Audit:      audit,
		Sanitizer:  sanitizer,
		Validator:  validate,
		Dispatcher: dispatcher,
		Logger:     logger,
		Metrics:    metrics,
	})
	reportService := service.NewReportService(service.ReportDependencies{
		UnitOfWork:        uow,
		Logger:            logger,
		ApproachingWindow: cfg.Helpdesk.ApproachingWindow(),
	})
	userService := service.NewUserService(service.UserDependencies{
		UnitOfWork: uow,
		Audit:      audit,
		Validator:  validate,
		Logger:     logger,
		MaxPerPage: cfg.Helpdesk.MaxPerPage,
	})
	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		UserRepo:  uow.Repos().Users,
		Validator: validate,
		Logger:    logger,
	})
	if err := authService.EnsureAdmin(ctx, cfg.Auth.AdminUsername, cfg.Auth.AdminEmail, cfg.Auth.AdminPassword); err != nil {
		logger.Fatal("failed to create bootstrap administrator", zap.Error(err))
	}
	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), uow.Repos().Users)

	var (
		notificationService *service.NotificationService
		notificationWorker  *worker.NotificationWorker
	)
	if redis.Configured() {
		queue := worker.NewRedisQueue(redis.Client, cfg.Notification.QueueKey)
		notificationService = service.NewNotificationService(dispatcher, queue, uow, logger, cfg.Notification)
		notificationWorker = worker.NewNotificationWorker(queue, worker.LogDeliverer{Logger: logger}, metrics, logger)
	}
	workerDone := worker.StartNotificationWorker(ctx, notificationService, notificationWorker)

	sweeper, err := worker.NewSLASweeper(cfg.Helpdesk.SLASweepSchedule, ticketService, logger)
	if err != nil {
		logger.Fatal("invalid SLA sweep schedule", zap.Error(err))
	}
	sweeper.Start()
	defer sweeper.Stop()

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		BodyLimit:    domain.MaxAttachmentSize + 1024*1024,
		ErrorHandler: httptransport.ErrorHandler(logger),
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Users:          handlers.NewUsersHandler(authService, userService, validate, cfg.Helpdesk.DefaultPerPage),
		Tickets:        handlers.NewTicketsHandler(ticketService, attachmentService, validate, cfg.Helpdesk.DefaultPerPage),
		Comments:       handlers.NewCommentsHandler(commentService, validate),
		Categories:     handlers.NewCategoriesHandler(categoryService, validate),
		Client:         handlers.NewClientHandler(clientService, validate),
		Reports:        handlers.NewReportsHandler(reportService),
		Metrics:        metrics.Handler(),
		AuthMiddleware: authMiddleware,
		ClientLimiter:  ratelimit.NewLimiter(redis.Client, cfg.RateLimit.ClientSubmitLimit, cfg.RateLimit.Window(), logger),
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
	cancel()
	<-workerDone
}

func openFileStore(cfg config.StorageConfig, logger *zap.Logger) (storage.FileStore, error) {
	if cfg.UploadDir == "" {
		logger.Warn("UPLOAD_DIR not provided; attachments are kept in memory")
		return storage.NewMemoryStore(), nil
	}
	return storage.NewDiskStore(cfg.UploadDir)
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}

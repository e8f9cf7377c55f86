package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"testhub_backend/internal/config"
	"testhub_backend/internal/controller"
	"testhub_backend/internal/repository"
	"testhub_backend/internal/service"
	"testhub_backend/internal/util"
	"testhub_backend/pkg/configwatcher"
	"testhub_backend/pkg/database"
	"testhub_backend/pkg/logger"
	"testhub_backend/pkg/monitoring"
	"testhub_backend/pkg/security"
	"testhub_backend/pkg/tracing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config          *config.Config
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	services        *services
	tracer          *sdktrace.TracerProvider
	configCallbacks []func(*config.Config)
}

type repositories struct {
	user     *repository.UserRepository
	category *repository.CategoryRepository
	test     *repository.TestRepository
	question *repository.QuestionRepository
	attempt  *repository.AttemptRepository
}

type services struct {
	auth      *service.AuthService
	user      *service.UserService
	storage   *service.StorageService
	image     *service.ImageService
	category  *service.CategoryService
	test      *service.TestService
	question  *service.QuestionService
	attempt   *service.AttemptService
	dashboard *service.DashboardService
	record    *service.RecordService
}

type controllers struct {
	auth      *controller.AuthController
	user      *controller.UserController
	category  *controller.CategoryController
	test      *controller.TestController
	question  *controller.QuestionController
	attempt   *controller.AttemptController
	dashboard *controller.DashboardController
	record    *controller.RecordController
	health    *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:     repository.NewUserRepository(db),
		category: repository.NewCategoryRepository(db),
		test:     repository.NewTestRepository(db),
		question: repository.NewQuestionRepository(db),
		attempt:  repository.NewAttemptRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, db *gorm.DB, rdb *redis.Client) *services {
	s := &services{}

	s.storage = service.NewStorageService(cfg)
	s.image = service.NewImageService(&cfg.Image, s.storage)
	s.auth = service.NewAuthService(repos.user, cfg)
	s.user = service.NewUserService(db, s.image)
	s.category = service.NewCategoryService(repos.category)
	s.test = service.NewTestService(db, s.image)
	s.question = service.NewQuestionService(db, cfg.Quiz.MaxImportBytes)

	stats := service.NewStatsCache(rdb)
	s.attempt = service.NewAttemptService(db, service.NewSubmitGuard(rdb, cfg.Quiz.DedupeSubmissions), stats, cfg.Quiz.AllowRetakes)
	s.dashboard = service.NewDashboardService(repos.user, repos.test, repos.attempt, stats, cfg.Quiz.RecentAttempts)
	s.record = service.NewRecordService(s.category, s.test, s.attempt)

	// 配置热更新
	a.RegisterConfigCallback(func(c *config.Config) {
		s.attempt.SetAllowRetakes(c.Quiz.AllowRetakes)
		s.question.SetMaxImportBytes(c.Quiz.MaxImportBytes)
		logger.Log.Info("quiz settings applied",
			zap.Bool("allow_retakes", c.Quiz.AllowRetakes),
			zap.Int64("max_import_bytes", c.Quiz.MaxImportBytes),
		)
	})

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB) *controllers {
	return &controllers{
		auth:      controller.NewAuthController(s.auth),
		user:      controller.NewUserController(s.user),
		category:  controller.NewCategoryController(s.category),
		test:      controller.NewTestController(s.test),
		question:  controller.NewQuestionController(s.question),
		attempt:   controller.NewAttemptController(s.attempt),
		dashboard: controller.NewDashboardController(s.dashboard),
		record:    controller.NewRecordController(s.record),
		health:    controller.NewHealthController(db),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())
	router.Use(security.RateLimiter(cfg.RateLimit.MaxRequests, time.Duration(cfg.RateLimit.WindowMinutes)*time.Minute))

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

// Build 在已建立的连接上组装服务与路由，rdb 可为 nil
func Build(cfg *config.Config, db *gorm.DB, rdb *redis.Client) *App {
	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
	}

	repos := app.initRepositories(db)
	app.services = app.initServices(repos, cfg, db, rdb)
	controllers := app.initControllers(app.services, db)

	monitoring.Init()
	util.RegisterValidators()

	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	app.Router = router

	app.setupMiddlewares(router, cfg)
	app.registerRoutes(router, controllers, cfg)

	if cfg.Storage.Type == util.StorageLocal {
		router.Static("/uploads", cfg.Storage.LocalPath)
	}

	return app
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)
	logger.Log.Info("Logger initialized successfully")

	gin.SetMode(cfg.Server.Mode)

	db, err := database.InitDB(&cfg.Database, cfg.Server.Mode == gin.DebugMode)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}

	// release 模式下只有显式要求才迁移
	if cfg.ForceMigrate || cfg.Server.Mode != gin.ReleaseMode {
		if err := database.Migrate(db); err != nil {
			logger.Log.Fatal("Failed to migrate database", zap.Error(err))
		}
	}
	if cfg.MigrateOnly {
		return &App{Config: cfg, DB: db}
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
	}

	app := Build(cfg, db, rdb)

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer("testhub", cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		app.tracer = tp
	}

	return app
}

func (a *App) applyConfig(cfg *config.Config) {
	for _, cb := range a.configCallbacks {
		cb(cfg)
	}
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	stopWatch := make(chan struct{})
	go func() {
		if err := configwatcher.WatchConfig(a.Config.ConfigDir, a.applyConfig, stopWatch); err != nil {
			logger.Log.Warn("config watcher stopped", zap.Error(err))
		}
	}()

	// 启动服务器
	go func() {
		log.Printf("Server running on port %s", a.Config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")
	close(stopWatch)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	if a.tracer != nil {
		if err := a.tracer.Shutdown(ctx); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}
	if a.Redis != nil {
		a.Redis.Close()
	}

	log.Println("Server exiting")
}

package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"quiz_platform_backend/internal/config"
	"quiz_platform_backend/internal/controller"
	"quiz_platform_backend/internal/repository"
	"quiz_platform_backend/internal/service"
	"quiz_platform_backend/internal/util"
	"quiz_platform_backend/pkg/configwatcher"
	"quiz_platform_backend/pkg/database"
	"quiz_platform_backend/pkg/lock"
	"quiz_platform_backend/pkg/logger"
	"quiz_platform_backend/pkg/monitoring"
	"quiz_platform_backend/pkg/security"
	"quiz_platform_backend/pkg/tracing"

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
	user      *repository.UserRepository
	category  *repository.CategoryRepository
	question  *repository.QuestionRepository
	attempt   *repository.AttemptRepository
	analytics *repository.AnalyticsRepository
}

type services struct {
	ai        service.ChatCompleter
	generator *service.QuestionGenerator
	storage   *service.StorageService
	quiz      *service.QuizService
	attempt   *service.AttemptService
	analytics *service.AnalyticsService
	category  *service.CategoryService
}

type controllers struct {
	quiz      *controller.QuizController
	attempt   *controller.AttemptController
	analytics *controller.AnalyticsController
	category  *controller.CategoryController
	health    *controller.HealthController
}

// aiConfigurable 支持热更新模型配置的客户端
type aiConfigurable interface {
	UpdateConfig(cfg config.AIConfig)
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

func (a *App) reloadConfig(cfg *config.Config) {
	for _, cb := range a.configCallbacks {
		cb(cfg)
	}
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:      repository.NewUserRepository(db),
		category:  repository.NewCategoryRepository(db),
		question:  repository.NewQuestionRepository(db),
		attempt:   repository.NewAttemptRepository(db),
		analytics: repository.NewAnalyticsRepository(db),
	}
}

func newLocker(cfg *config.Config, rdb *redis.Client) lock.Locker {
	if cfg.Lock.Type == util.LockRedis && rdb != nil {
		return lock.NewRedisLocker(rdb, time.Duration(cfg.Lock.TTLSeconds)*time.Second)
	}
	return lock.NewLocalLocker()
}

func (a *App) initServices(repos *repositories, cfg *config.Config, db *gorm.DB, rdb *redis.Client, ai service.ChatCompleter) *services {
	s := &services{ai: ai}

	s.storage = service.NewStorageService(cfg)
	s.generator = service.NewQuestionGenerator(ai, cfg.AI.MaxConcurrent)
	s.quiz = service.NewQuizService(repos.category, repos.question, s.generator, s.storage, cfg.Quiz)
	s.attempt = service.NewAttemptService(db, repos.attempt, repos.question, newLocker(cfg, rdb))
	s.analytics = service.NewAnalyticsService(repos.analytics, repos.attempt, rdb)
	s.category = service.NewCategoryService(repos.category)

	// 配置热更新：模型参数和 origin hints
	if updatable, ok := ai.(aiConfigurable); ok {
		a.RegisterConfigCallback(func(c *config.Config) { updatable.UpdateConfig(c.AI) })
	}
	a.RegisterConfigCallback(func(c *config.Config) { s.quiz.UpdateConfig(c.Quiz) })

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB, rdb *redis.Client) *controllers {
	return &controllers{
		quiz:      controller.NewQuizController(s.quiz, s.attempt),
		attempt:   controller.NewAttemptController(s.attempt, s.analytics),
		analytics: controller.NewAnalyticsController(s.analytics),
		category:  controller.NewCategoryController(s.category),
		health:    controller.NewHealthController(db, rdb),
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

// Assemble wires repositories, services, controllers and routes on top of
// already-open stores. rdb may be nil.
func Assemble(cfg *config.Config, db *gorm.DB, rdb *redis.Client, ai service.ChatCompleter) *App {
	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
	}

	repos := app.initRepositories(db)
	app.services = app.initServices(repos, cfg, db, rdb, ai)
	controllers := app.initControllers(app.services, db, rdb)

	// 监控初始化
	monitoring.Init()

	if cfg.Server.Mode == gin.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)
	app.registerRoutes(router, controllers, repos, cfg)

	return app
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)
	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(cfg)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
		log.Fatalf("Failed to initialize database: %v", err)
	}

	var rdb *redis.Client
	if cfg.Redis.Enabled {
		rdb, err = database.InitRedis(&cfg.Redis)
		if err != nil {
			logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
			log.Fatalf("Failed to initialize redis: %v", err)
		}
	}

	var tp *sdktrace.TracerProvider
	if cfg.Tracing.Enabled {
		tp, err = tracing.InitTracer("quiz-platform", cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
	}

	app := Assemble(cfg, db, rdb, service.NewAIService(cfg.AI))
	app.tracer = tp
	return app
}

// WatchConfig 监听配置文件变化并分发给已注册的回调
func (a *App) WatchConfig(configPath string) {
	go configwatcher.WatchConfig(configPath, a.reloadConfig)
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
		// 生成请求要等待上游模型返回
		WriteTimeout: a.Config.AI.Timeout() + 10*time.Second,
	}

	// 启动服务器
	go func() {
		logger.Log.Info("Server running", zap.String("port", a.Config.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

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

	logger.Log.Info("Server exiting")
}

package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/Sohel-786/die-pattern-sub003/internal/config"
	"github.com/Sohel-786/die-pattern-sub003/internal/middleware"
	"github.com/Sohel-786/die-pattern-sub003/internal/shared/storage"
	"github.com/Sohel-786/die-pattern-sub003/internal/tms/database"
	"github.com/Sohel-786/die-pattern-sub003/internal/tms/handler"
	"github.com/Sohel-786/die-pattern-sub003/internal/tms/repository"
	"github.com/Sohel-786/die-pattern-sub003/internal/tms/service"
)

var (
	// Version 编译时注入: -ldflags "-X main.Version=x.y.z"
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// 加载 .env 文件（如果存在）
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zapLogger, err := initLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("Starting TMS server",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("mode", cfg.Server.Mode),
	)

	db, err := initDatabase(cfg.Database)
	if err != nil {
		zapLogger.Fatal("Failed to connect database", zap.Error(err))
	}

	if err := database.Migrate(db, zapLogger); err != nil {
		zapLogger.Fatal("Failed to migrate database", zap.Error(err))
	}

	adminPassword := config.GetEnvOrDefault("TMS_ADMIN_PASSWORD", "admin123")
	if err := database.Seed(context.Background(), db, adminPassword, zapLogger); err != nil {
		zapLogger.Fatal("Failed to seed database", zap.Error(err))
	}

	rdb := initRedis(cfg.Redis)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		zapLogger.Fatal("Failed to connect redis", zap.Error(err))
	}

	// 对象存储可选：未配置时上传接口返回明确错误，其余功能不受影响
	var store *storage.Storage
	if cfg.MinIO.Endpoint != "" {
		store, err = storage.New(context.Background(), storage.Config{
			Endpoint:  cfg.MinIO.Endpoint,
			AccessKey: cfg.MinIO.AccessKey,
			SecretKey: cfg.MinIO.SecretKey,
			Bucket:    cfg.MinIO.Bucket,
			UseSSL:    cfg.MinIO.UseSSL,
		})
		if err != nil {
			zapLogger.Warn("Object storage unavailable, uploads disabled", zap.Error(err))
			store = nil
		}
	} else {
		zapLogger.Warn("Object storage not configured, uploads disabled")
	}

	repos := repository.NewRepositories(db)

	authService := service.NewAuthService(repos.User, rdb, cfg)
	permissionService := service.NewPermissionService(repos.User, repos.AuditLog, rdb)
	masterService := service.NewMasterService(repos.Company, repos.Location, repos.Party, repos.Lookup, repos.AppSetting, repos.AuditLog)
	itemService := service.NewItemService(repos.Item, repos.AuditLog, db)
	procurementService := service.NewProcurementService(repos.Indent, repos.Order, repos.Item, repos.Party, repos.AuditLog, db)
	inwardService := service.NewInwardService(repos.Inward, repos.QC, repos.Movement, repos.Item, repos.Order, repos.Location, repos.Party, repos.User, repos.AuditLog, db)
	qcService := service.NewQCService(repos.QC, repos.Inward, repos.Movement, repos.Item, repos.AuditLog, db)
	movementService := service.NewMovementService(repos.Movement, repos.Item, repos.Location, repos.Party, repos.User, repos.AuditLog, db)
	userService := service.NewUserService(repos.User, repos.AuditLog, rdb, db)
	exportService := service.NewExportService(repos.Party, repos.Item, repos.Lookup, repos.AuditLog)
	auditService := service.NewAuditService(repos.AuditLog)

	authHandler := handler.NewAuthHandler(authService)
	masterHandler := handler.NewMasterHandler(masterService)
	itemHandler := handler.NewItemHandler(itemService)
	procurementHandler := handler.NewProcurementHandler(procurementService)
	inwardHandler := handler.NewInwardHandler(inwardService)
	qcHandler := handler.NewQCHandler(qcService)
	movementHandler := handler.NewMovementHandler(movementService)
	userHandler := handler.NewUserHandler(userService, permissionService)
	exportHandler := handler.NewExportHandler(exportService)
	auditHandler := handler.NewAuditHandler(auditService)
	uploadHandler := handler.NewUploadHandler(store)

	gin.SetMode(cfg.Server.Mode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logger(zapLogger))
	r.Use(middleware.CORS())
	r.Use(middleware.RequestID())
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	// 健康检查
	r.GET("/health/live", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/health/ready", func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// 版本信息
	r.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":    Version,
			"build_time": BuildTime,
		})
	})

	v1 := r.Group("/api/v1")

	// 认证 (无需登录)
	authHandler.RegisterPublicRoutes(v1)

	// 需要认证的接口
	authorized := v1.Group("")
	authorized.Use(middleware.JWTAuth(cfg.JWT.Secret))

	can := func(flag string) gin.HandlerFunc {
		return middleware.RequireCapability(permissionService, flag)
	}

	authHandler.RegisterRoutes(authorized)
	masterHandler.RegisterRoutes(authorized, can)
	itemHandler.RegisterRoutes(authorized, can)
	procurementHandler.RegisterRoutes(authorized, can)
	inwardHandler.RegisterRoutes(authorized, can)
	qcHandler.RegisterRoutes(authorized, can)
	movementHandler.RegisterRoutes(authorized, can)
	userHandler.RegisterRoutes(authorized, can)
	exportHandler.RegisterRoutes(authorized, can)
	auditHandler.RegisterRoutes(authorized, can)
	uploadHandler.RegisterRoutes(authorized, can)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		zapLogger.Info("Server listening", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("Server error", zap.Error(err))
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("Server forced to shutdown", zap.Error(err))
	}

	zapLogger.Info("Server exited")
}

func initLogger(cfg config.LogConfig) (*zap.Logger, error) {
	var zapCfg zap.Config

	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	switch cfg.Level {
	case "debug":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	}

	return zapCfg.Build()
}

func initDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)

	// TranslateError 让唯一索引冲突统一翻译为 gorm.ErrDuplicatedKey
	gormConfig := &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
		TranslateError: true,
	}

	db, err := gorm.Open(postgres.Open(dsn), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	return db, nil
}

func initRedis(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

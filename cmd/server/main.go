package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"wakeup-schedule/config"
	"wakeup-schedule/internal/api/handler"
	"wakeup-schedule/internal/api/router"
	"wakeup-schedule/internal/repository"
	"wakeup-schedule/internal/service"
	"wakeup-schedule/internal/task"
	"wakeup-schedule/pkg/clock"
	"wakeup-schedule/pkg/database"
	"wakeup-schedule/pkg/jwt"
	applogger "wakeup-schedule/pkg/logger"
	"wakeup-schedule/pkg/redis"
)

func main() {
	configPath := flag.String("config", "", "配置文件路径（默认查找 ./config/config.yaml）")
	flag.Parse()

	// 0. 本地开发时从 .env 读取环境变量，文件不存在时忽略
	_ = godotenv.Load()

	// 1. 加载配置
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	// 2. 初始化日志
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("应用启动中...",
		zap.Int("port", cfg.Server.Port),
		zap.String("log_level", cfg.Log.Level),
		zap.String("skip_store", cfg.Feature.SkipStore),
	)

	clk, err := clock.NewSystem(cfg.Schedule.Timezone)
	if err != nil {
		logger.Fatal("时区配置无效", zap.String("timezone", cfg.Schedule.Timezone), zap.Error(err))
	}

	// 3. 连接数据库
	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		logger.Fatal("数据库连接失败", zap.Error(err))
	}
	logger.Info("数据库连接成功")

	// 3.1 执行数据库迁移
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("获取底层 sql.DB 失败", zap.Error(err))
	}
	if err := database.RunMigrations(sqlDB, logger); err != nil {
		logger.Fatal("数据库迁移失败", zap.Error(err))
	}

	// 4. 连接 Redis（可选：连接失败时降级运行，除非翘课标记配置为存放在 Redis）
	rdb, err := redis.NewClient(&cfg.Redis, logger)
	if err != nil {
		if cfg.Feature.SkipStore == "redis" {
			logger.Fatal("翘课标记配置为 Redis 存储，但 Redis 连接失败", zap.Error(err))
		}
		logger.Warn("Redis 连接失败，限流、令牌吊销与提醒去重将不可用", zap.Error(err))
		rdb = nil
	}

	// 5. 初始化 JWT 管理器
	jwtMgr := jwt.NewManager(&cfg.Auth)

	// 6. 依赖注入: Repository → Service → Handler
	repo := repository.NewRepository(db)
	if cfg.Feature.SkipStore == "redis" {
		repo.SkipFlag = repository.NewRedisSkipFlagRepo(rdb)
	}
	fetcher := service.NewWakeupClient(&cfg.WakeUp, logger)
	svc := service.NewService(repo, fetcher, clk, cfg, logger)
	h := handler.NewHandler(svc)

	// 7. 初始化路由
	engine := router.Setup(cfg, h, jwtMgr, rdb, logger)

	// 8. 上课提醒
	var scheduler *cron.Cron
	if cfg.Remind.Enable {
		var notifier task.Notifier = task.NewLogNotifier(logger)
		if cfg.Remind.WebhookURL != "" {
			notifier = task.NewWebhookNotifier(cfg.Remind.WebhookURL, 10*time.Second)
		}
		var dedup task.Deduper
		if rdb != nil {
			dedup = rdb
		}
		reminder := task.NewReminder(repo, clk, cfg.Remind.Advance, notifier, dedup, logger)
		scheduler, err = task.StartScheduler(cfg.Remind.Spec, reminder, logger)
		if err != nil {
			logger.Fatal("启动上课提醒失败", zap.Error(err))
		}
	}

	// 9. 启动 HTTP 服务器（优雅关闭）
	// 写超时需覆盖导入时依次请求多个端点的耗时
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: time.Duration(len(cfg.WakeUp.Endpoints))*cfg.WakeUp.Timeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("HTTP 服务器已启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP 服务器异常", zap.Error(err))
		}
	}()

	// 10. 监听系统信号，优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("收到关闭信号，开始优雅关闭...", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("服务器关闭异常", zap.Error(err))
	}

	// 等待正在执行的提醒任务结束
	if scheduler != nil {
		<-scheduler.Stop().Done()
	}

	sqlDB.Close()

	if rdb != nil {
		rdb.Close()
	}

	logger.Info("服务器已关闭")
}

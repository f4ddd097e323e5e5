// Package main API 服务入口
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"reflect-story-api/internal/application/chat"
	"reflect-story-api/internal/application/status"
	"reflect-story-api/internal/application/story"
	"reflect-story-api/internal/config"
	"reflect-story-api/internal/infrastructure/llm"
	"reflect-story-api/internal/infrastructure/persistence/postgres"
	"reflect-story-api/internal/infrastructure/persistence/redis"
	"reflect-story-api/internal/interfaces/http/handler"
	"reflect-story-api/internal/interfaces/http/router"
	"reflect-story-api/pkg/logger"
	"reflect-story-api/pkg/tracer"
)

// Version 版本信息，构建时注入
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// 加载 .env 文件（如果存在）
	_ = godotenv.Load()

	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 初始化日志
	logger.Init(
		cfg.Observability.Logging.Level,
		cfg.Observability.Logging.Format,
	)

	ctx := context.Background()
	log := logger.FromContext(ctx)
	log.Info("starting server",
		"version", Version,
		"build_time", BuildTime,
		"env", cfg.App.Env,
	)

	// 初始化追踪
	shutdownTracer, err := tracer.Init(ctx, tracer.Config{
		ServiceName: cfg.App.Name,
		Endpoint:    cfg.Observability.Tracing.Endpoint,
		SampleRate:  cfg.Observability.Tracing.SampleRate,
		Enabled:     cfg.Observability.Tracing.Enabled,
	})
	if err != nil {
		log.Error("failed to init tracer", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := shutdownTracer(ctx); err != nil {
			log.Error("failed to shutdown tracer", "error", err)
		}
	}()

	// 初始化 PostgreSQL
	pgClient, err := postgres.NewClient(&cfg.Database.Postgres)
	if err != nil {
		logger.Fatal(ctx, "failed to init postgres", err)
	}
	defer pgClient.Close()

	if err := pgClient.Migrate(); err != nil {
		logger.Fatal(ctx, "failed to migrate database", err)
	}

	// 初始化 Redis，失败时降级为无缓存运行
	var cache *redis.Cache
	redisClient, err := redis.NewClient(&cfg.Cache.Redis)
	if err != nil {
		log.Warn("redis unavailable, running without cache", "error", err.Error())
		redisClient = nil
	} else {
		defer redisClient.Close()
		cache = redis.NewCache(redisClient)
	}

	// 组装依赖
	storyRepo := postgres.NewStoryRepository(pgClient)
	statusRepo := postgres.NewStatusRepository(pgClient)
	registry := llm.NewRegistry(&cfg.AI)

	chatService := chat.NewService(registry)
	storyService := story.NewService(storyRepo, cache)
	statusService := status.NewService(statusRepo)

	r := router.New(cfg, router.Handlers{
		Health: handler.NewHealthHandler(pgClient, redisClient),
		Chat:   handler.NewChatHandler(chatService),
		Story:  handler.NewStoryHandler(storyService),
		Status: handler.NewStatusHandler(statusService),
	})

	// 创建 HTTP 服务器
	addr := fmt.Sprintf("%s:%d", cfg.Server.HTTP.Host, cfg.Server.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.HTTP.ReadTimeout,
		WriteTimeout: cfg.Server.HTTP.WriteTimeout,
		IdleTimeout:  cfg.Server.HTTP.IdleTimeout,
	}

	// 启动服务器
	go func() {
		log.Info("http server starting", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("http server error", "error", err)
			os.Exit(1)
		}
	}()

	// 等待中断信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	// 优雅关闭
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", "error", err)
	}

	log.Info("server exited")
}

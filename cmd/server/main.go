// Escala 月度排班服务
// 主程序入口

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/paiban/escala/internal/config"
	"github.com/paiban/escala/internal/database"
	"github.com/paiban/escala/internal/handler"
	"github.com/paiban/escala/internal/metrics"
	"github.com/paiban/escala/internal/middleware"
	"github.com/paiban/escala/internal/repository"
	"github.com/paiban/escala/pkg/logger"
)

// 构建信息（通过 ldflags 注入）
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	logger.Init(logger.Config{
		Level:  cfg.App.LogLevel,
		Format: cfg.App.LogFormat,
		Output: "stdout",
	})

	fmt.Printf("Escala 排班服务 v%s\n", Version)
	fmt.Printf("Build: %s (%s)\n", BuildTime, GitCommit)
	fmt.Println()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var db *database.DB
	var runs repository.RunRepositoryInterface
	if cfg.Database.Enabled {
		db, err = database.New(&cfg.Database)
		if err != nil {
			logger.Fatal().Err(err).Msg("数据库连接失败")
		}
		defer db.Close()
		if err := db.Migrate(ctx); err != nil {
			logger.Fatal().Err(err).Msg("数据库迁移失败")
		}
		runs = repository.NewRunRepository(db)
	}

	mux := newMux(cfg, db, runs)

	limiter := middleware.NewRateLimiter(ctx, cfg.API.RateLimit, time.Minute)
	h := middleware.Chain(mux,
		middleware.RequestIDMiddleware,
		middleware.LoggingMiddleware,
		middleware.RecoveryMiddleware,
		middleware.SecurityHeadersMiddleware,
		middleware.CORSMiddleware(cfg.API.CORS),
		middleware.RateLimitMiddleware(limiter),
		middleware.MaxBodyMiddleware(cfg.API.MaxBodySize),
	)

	port := fmt.Sprintf("%d", cfg.App.Port)
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      h,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.API.Timeout + cfg.Scheduler.DefaultTimeout,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info().
			Str("port", port).
			Str("version", Version).
			Str("env", cfg.App.Env).
			Bool("database", cfg.Database.Enabled).
			Msg("服务器启动")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("服务器启动失败")
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("正在关闭服务器...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("服务器关闭失败")
		os.Exit(1)
	}

	logger.Info().Msg("服务器已关闭")
}

// newMux 注册路由，runs 为 nil 时不提供运行记录查询
func newMux(cfg *config.Config, db *database.DB, runs repository.RunRepositoryInterface) *http.ServeMux {
	scheduleHandler := handler.NewScheduleHandler(cfg.Scheduler, runs)

	mux := http.NewServeMux()

	// 系统端点
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		status, code := "ok", http.StatusOK
		if db != nil {
			if err := db.Health(r.Context()); err != nil {
				status, code = "degraded", http.StatusServiceUnavailable
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		fmt.Fprintf(w, `{"status":"%s","service":"escala"}`, status)
	})

	mux.HandleFunc("GET /version", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"version":"%s","build_time":"%s","git_commit":"%s"}`, Version, BuildTime, GitCommit)
	})

	if cfg.Metrics.Enabled {
		mux.Handle("GET "+cfg.Metrics.Path, metrics.Handler())
	}

	// 排班
	mux.HandleFunc("/api/v1/schedule/random", scheduleHandler.Random)
	mux.HandleFunc("/api/v1/schedule/vns", scheduleHandler.VNS)
	mux.HandleFunc("/api/v1/schedule/greedy", scheduleHandler.Greedy)
	mux.HandleFunc("/api/v1/schedule/validate", scheduleHandler.Validate)

	// 统计
	mux.HandleFunc("/api/v1/stats/coverage", handler.GetCoverageHandler)
	mux.HandleFunc("/api/v1/stats/fairness", handler.GetFairnessHandler)
	mux.HandleFunc("/api/v1/stats/summary", handler.GetSummaryHandler)

	mux.HandleFunc("GET /api/v1/constraints", handler.GetConstraintLibraryHandler)

	if runs != nil {
		runHandler := handler.NewRunHandler(runs)
		mux.HandleFunc("GET /api/v1/runs", runHandler.List)
		mux.HandleFunc("GET /api/v1/runs/{id}", runHandler.Get)
	}

	return mux
}

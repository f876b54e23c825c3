// Package logger 提供统一的日志框架
package logger

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	once   sync.Once
	logger zerolog.Logger
)

type contextKey string

const (
	RequestIDKey contextKey = "request_id"
	RunIDKey     contextKey = "run_id"
)

// Config 日志配置
type Config struct {
	Level      string `yaml:"level" json:"level"`
	Format     string `yaml:"format" json:"format"` // json/console
	Output     string `yaml:"output" json:"output"` // stdout/stderr/file
	FilePath   string `yaml:"file_path,omitempty" json:"file_path,omitempty"`
	TimeFormat string `yaml:"time_format,omitempty" json:"time_format,omitempty"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		Level:      "info",
		Format:     "console",
		Output:     "stdout",
		TimeFormat: time.RFC3339,
	}
}

// Init 初始化全局日志器，只有第一次调用生效
func Init(cfg Config) {
	once.Do(func() {
		zerolog.SetGlobalLevel(parseLevel(cfg.Level))

		out := openOutput(cfg)
		if cfg.Format != "json" {
			timeFormat := cfg.TimeFormat
			if timeFormat == "" {
				timeFormat = time.RFC3339
			}
			out = zerolog.ConsoleWriter{Out: out, TimeFormat: timeFormat}
		}

		logger = zerolog.New(out).With().Timestamp().Str("service", "escala").Logger()
	})
}

// openOutput 打开日志输出，文件打不开时退回标准输出
func openOutput(cfg Config) io.Writer {
	switch cfg.Output {
	case "stderr":
		return os.Stderr
	case "file":
		if cfg.FilePath == "" {
			return os.Stdout
		}
		f, err := os.OpenFile(cfg.FilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "打开日志文件 %s 失败: %v\n", cfg.FilePath, err)
			return os.Stdout
		}
		return f
	}
	return os.Stdout
}

// parseLevel 解析日志级别，无法识别时使用 info
func parseLevel(level string) zerolog.Level {
	if level == "warning" {
		level = "warn"
	}
	l, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		return zerolog.InfoLevel
	}
	return l
}

// Get 获取日志器，未初始化时按默认配置初始化
func Get() *zerolog.Logger {
	Init(DefaultConfig())
	return &logger
}

// WithContext 附加上下文中的请求ID和运行ID
func WithContext(ctx context.Context) *zerolog.Logger {
	c := Get().With()
	if reqID, ok := ctx.Value(RequestIDKey).(string); ok {
		c = c.Str("request_id", reqID)
	}
	if runID, ok := ctx.Value(RunIDKey).(string); ok {
		c = c.Str("run_id", runID)
	}
	l := c.Logger()
	return &l
}

func Debug() *zerolog.Event { return Get().Debug() }

func Info() *zerolog.Event { return Get().Info() }

func Warn() *zerolog.Event { return Get().Warn() }

func Error() *zerolog.Event { return Get().Error() }

func Fatal() *zerolog.Event { return Get().Fatal() }

// WithError 错误级别事件并附加错误
func WithError(err error) *zerolog.Event {
	return Get().Error().Err(err)
}

// SchedulerLogger 排班引擎专用日志器
type SchedulerLogger struct {
	base *zerolog.Logger
}

// NewSchedulerLogger 创建排班引擎日志器
func NewSchedulerLogger() *SchedulerLogger {
	l := Get().With().Str("component", "scheduler").Logger()
	return &SchedulerLogger{base: &l}
}

// With 返回附加了运行ID的日志器
func (l *SchedulerLogger) With(runID string) *SchedulerLogger {
	child := l.base.With().Str("run_id", runID).Logger()
	return &SchedulerLogger{base: &child}
}

// StartSchedule 记录排班开始
func (l *SchedulerLogger) StartSchedule(start string, people, slots int) {
	l.base.Info().
		Str("start", start).
		Int("people", people).
		Int("slots", slots).
		Msg("开始生成排班")
}

// InfeasibleRequest 记录无法满足的人员申请
func (l *SchedulerLogger) InfeasibleRequest(person, details string) {
	l.base.Warn().
		Str("person", person).
		Str("details", details).
		Msg("人员申请无法满足")
}

// InitialSolution 记录初始解代价
func (l *SchedulerLogger) InitialSolution(start string, cost int) {
	l.base.Info().
		Str("start", start).
		Int("cost", cost).
		Msg("初始解生成完成")
}

// Improvement 记录邻域搜索发现更优解
func (l *SchedulerLogger) Improvement(iteration, k, cost int) {
	l.base.Debug().
		Int("iteration", iteration).
		Int("k", k).
		Int("cost", cost).
		Msg("发现更优解")
}

// SearchComplete 记录邻域搜索完成
func (l *SchedulerLogger) SearchComplete(duration time.Duration, initial, best int) {
	l.base.Info().
		Dur("duration", duration).
		Int("initial_cost", initial).
		Int("best_cost", best).
		Int("improvement", initial-best).
		Msg("邻域搜索完成")
}

// Package database 管理运行记录使用的 PostgreSQL 连接
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/paiban/escala/internal/config"
	"github.com/paiban/escala/pkg/logger"

	_ "github.com/lib/pq" // PostgreSQL 驱动
)

// slowQueryThreshold 慢查询阈值
const slowQueryThreshold = 100 * time.Millisecond

// DB 数据库连接封装，查询超过阈值时记录慢查询日志
type DB struct {
	*sql.DB
}

// New 打开连接池并在5秒内完成连通性检查
func New(cfg *config.DatabaseConfig) (*DB, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("打开数据库连接失败: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("数据库连接测试失败: %w", err)
	}

	logger.Info().
		Str("host", cfg.Host).
		Int("port", cfg.Port).
		Str("database", cfg.Name).
		Msg("数据库连接成功")

	return &DB{DB: db}, nil
}

// Close 关闭数据库连接
func (db *DB) Close() error {
	if db == nil || db.DB == nil {
		return nil
	}
	logger.Info().Msg("关闭数据库连接")
	return db.DB.Close()
}

// Health 健康检查
func (db *DB) Health(ctx context.Context) error {
	return db.PingContext(ctx)
}

// Transaction 在事务中执行 fn，fn 返回错误或 panic 时回滚
func (db *DB) Transaction(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("开始事务失败: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("事务回滚失败: %v (原始错误: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("事务提交失败: %w", err)
	}
	return nil
}

// Migrate 在一个事务中创建运行记录表
func (db *DB) Migrate(ctx context.Context) error {
	err := db.Transaction(ctx, func(tx *sql.Tx) error {
		for i, stmt := range schema {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("执行第 %d 条迁移失败: %w", i+1, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	logger.Info().Int("statements", len(schema)).Msg("数据库迁移完成")
	return nil
}

func (db *DB) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	defer timed(query)()
	return db.DB.ExecContext(ctx, query, args...)
}

func (db *DB) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	defer timed(query)()
	return db.DB.QueryContext(ctx, query, args...)
}

func (db *DB) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	defer timed(query)()
	return db.DB.QueryRowContext(ctx, query, args...)
}

// timed 返回在查询结束时调用的计时函数
func timed(query string) func() {
	start := time.Now()
	return func() {
		if d := time.Since(start); d > slowQueryThreshold {
			logger.Warn().
				Str("query", truncateQuery(query)).
				Dur("duration", d).
				Msg("慢SQL查询")
		}
	}
}

// truncateQuery 截断长查询
func truncateQuery(query string) string {
	if len(query) > 200 {
		return query[:200] + "..."
	}
	return query
}

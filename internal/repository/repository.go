// Package repository 提供数据访问层
package repository

import (
	"context"
	"database/sql"
)

// ListFilter 列表查询过滤器
type ListFilter struct {
	Month    string `json:"month,omitempty"`
	Start    string `json:"start,omitempty"` // random/warm
	Offset   int    `json:"offset"`
	Limit    int    `json:"limit"`
	OrderDir string `json:"order_dir,omitempty"` // asc/desc
}

// DefaultListFilter 返回默认过滤器
func DefaultListFilter() ListFilter {
	return ListFilter{
		Offset:   0,
		Limit:    20,
		OrderDir: "desc",
	}
}

// WithLimit 设置限制
func (f ListFilter) WithLimit(limit int) ListFilter {
	f.Limit = limit
	return f
}

// WithOffset 设置偏移
func (f ListFilter) WithOffset(offset int) ListFilter {
	f.Offset = offset
	return f
}

// WithMonth 设置月份过滤
func (f ListFilter) WithMonth(month string) ListFilter {
	f.Month = month
	return f
}

// WithStart 设置初始解类型过滤
func (f ListFilter) WithStart(start string) ListFilter {
	f.Start = start
	return f
}

// orderDir 只接受 asc/desc，其余按 desc 处理
func (f ListFilter) orderDir() string {
	if f.OrderDir == "asc" {
		return "ASC"
	}
	return "DESC"
}

// DB 数据库接口
type DB interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Scanner 行扫描接口
type Scanner interface {
	Scan(dest ...interface{}) error
}

package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/paiban/escala/pkg/model"
	"github.com/paiban/escala/pkg/scheduler/constraint"
	"github.com/paiban/escala/pkg/scheduler/optimizer"
)

// Run 一次邻域搜索运行记录
type Run struct {
	ID            uuid.UUID `json:"id"`
	Month         string    `json:"month"`
	Seed          int64     `json:"seed"`
	Kmax          int       `json:"kmax"`
	MaxIterations int       `json:"max_iterations"`
	Start         string    `json:"start"`
	InitialCost   int       `json:"initial_cost"`
	BestCost      int       `json:"best_cost"`
	Improvements  int       `json:"improvements"`
	Moves         int       `json:"moves"`
	DurationMs    int64     `json:"duration_ms"`
	CreatedAt     time.Time `json:"created_at"`
}

// Assignment 运行结果中的一个分配
type Assignment struct {
	Person string `json:"person"`
	Slot   string `json:"slot"`
}

// NewRun 由搜索结果构造运行记录
func NewRun(month string, res *optimizer.Result) *Run {
	return &Run{
		ID:            uuid.New(),
		Month:         month,
		Seed:          res.Seed,
		Kmax:          res.Kmax,
		MaxIterations: res.MaxIterations,
		Start:         res.Start,
		InitialCost:   res.InitialCost,
		BestCost:      res.BestCost,
		Improvements:  res.Improvements,
		Moves:         res.Moves,
		DurationMs:    res.Duration.Milliseconds(),
	}
}

// AssignmentsFromMatrix 把分配矩阵展开为 (人员, 班段) 记录
func AssignmentsFromMatrix(people []string, x constraint.Matrix) []Assignment {
	var out []Assignment
	for p := range x {
		for _, s := range x.Assigned(p) {
			out = append(out, Assignment{Person: people[p], Slot: model.SlotAt(s).Label()})
		}
	}
	return out
}

// RunRepositoryInterface 运行记录仓储接口
type RunRepositoryInterface interface {
	Create(ctx context.Context, run *Run) error
	GetByID(ctx context.Context, id uuid.UUID) (*Run, error)
	List(ctx context.Context, filter ListFilter) ([]*Run, int, error)
	ListByMonth(ctx context.Context, month string) ([]*Run, error)
	CreateAssignments(ctx context.Context, runID uuid.UUID, assignments []Assignment) error
	GetAssignments(ctx context.Context, runID uuid.UUID) ([]Assignment, error)
}

// RunRepository 运行记录仓储实现
type RunRepository struct {
	db DB
}

// NewRunRepository 创建运行记录仓储
func NewRunRepository(db DB) *RunRepository {
	return &RunRepository{db: db}
}

const runColumns = `id, month, seed, kmax, max_iterations, start_kind,
	initial_cost, best_cost, improvements, moves, duration_ms, created_at`

// Create 创建运行记录
func (r *RunRepository) Create(ctx context.Context, run *Run) error {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	run.CreatedAt = time.Now()

	query := `
		INSERT INTO vns_runs (` + runColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.db.ExecContext(ctx, query,
		run.ID, run.Month, run.Seed, run.Kmax, run.MaxIterations, run.Start,
		run.InitialCost, run.BestCost, run.Improvements, run.Moves, run.DurationMs, run.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("创建运行记录失败: %w", err)
	}

	return nil
}

// GetByID 根据ID获取运行记录，不存在时返回 nil
func (r *RunRepository) GetByID(ctx context.Context, id uuid.UUID) (*Run, error) {
	query := `SELECT ` + runColumns + ` FROM vns_runs WHERE id = $1`

	run, err := scanRun(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("扫描运行记录失败: %w", err)
	}
	return run, nil
}

// List 按过滤条件列出运行记录
func (r *RunRepository) List(ctx context.Context, filter ListFilter) ([]*Run, int, error) {
	where, args := buildRunFilter(filter)

	countQuery := "SELECT COUNT(*) FROM vns_runs " + where
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("统计运行记录失败: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s FROM vns_runs %s
		ORDER BY created_at %s
		LIMIT $%d OFFSET $%d
	`, runColumns, where, filter.orderDir(), len(args)+1, len(args)+2)
	args = append(args, filter.Limit, filter.Offset)

	runs, err := r.query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return runs, total, nil
}

// ListByMonth 列出某月份的全部运行记录，按代价升序
func (r *RunRepository) ListByMonth(ctx context.Context, month string) ([]*Run, error) {
	query := `SELECT ` + runColumns + ` FROM vns_runs WHERE month = $1 ORDER BY best_cost, created_at`
	return r.query(ctx, query, month)
}

// CreateAssignments 批量写入运行结果的分配
func (r *RunRepository) CreateAssignments(ctx context.Context, runID uuid.UUID, assignments []Assignment) error {
	if len(assignments) == 0 {
		return nil
	}

	values := make([]string, 0, len(assignments))
	args := make([]interface{}, 0, len(assignments)*3)
	for i, a := range assignments {
		values = append(values, fmt.Sprintf("($%d, $%d, $%d)", i*3+1, i*3+2, i*3+3))
		args = append(args, runID, a.Person, a.Slot)
	}

	query := "INSERT INTO vns_run_assignments (run_id, person, slot) VALUES " + strings.Join(values, ", ")
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("写入运行分配失败: %w", err)
	}
	return nil
}

// GetAssignments 获取运行结果的分配
func (r *RunRepository) GetAssignments(ctx context.Context, runID uuid.UUID) ([]Assignment, error) {
	query := `
		SELECT person, slot FROM vns_run_assignments
		WHERE run_id = $1
		ORDER BY person, slot
	`

	rows, err := r.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("查询运行分配失败: %w", err)
	}
	defer rows.Close()

	var assignments []Assignment
	for rows.Next() {
		var a Assignment
		if err := rows.Scan(&a.Person, &a.Slot); err != nil {
			return nil, fmt.Errorf("扫描运行分配失败: %w", err)
		}
		assignments = append(assignments, a)
	}
	return assignments, rows.Err()
}

func (r *RunRepository) query(ctx context.Context, query string, args ...interface{}) ([]*Run, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("查询运行记录失败: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("扫描运行记录失败: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// buildRunFilter 生成 WHERE 子句及参数
func buildRunFilter(filter ListFilter) (string, []interface{}) {
	var conditions []string
	var args []interface{}

	if filter.Month != "" {
		args = append(args, filter.Month)
		conditions = append(conditions, fmt.Sprintf("month = $%d", len(args)))
	}
	if filter.Start != "" {
		args = append(args, filter.Start)
		conditions = append(conditions, fmt.Sprintf("start_kind = $%d", len(args)))
	}

	if len(conditions) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(conditions, " AND "), args
}

func scanRun(row Scanner) (*Run, error) {
	run := &Run{}
	err := row.Scan(
		&run.ID, &run.Month, &run.Seed, &run.Kmax, &run.MaxIterations, &run.Start,
		&run.InitialCost, &run.BestCost, &run.Improvements, &run.Moves, &run.DurationMs, &run.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return run, nil
}

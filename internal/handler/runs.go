package handler

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/paiban/escala/internal/repository"
	"github.com/paiban/escala/pkg/errors"
)

// RunHandler 运行记录查询
type RunHandler struct {
	runs repository.RunRepositoryInterface
}

// NewRunHandler 创建运行记录处理器
func NewRunHandler(runs repository.RunRepositoryInterface) *RunHandler {
	return &RunHandler{runs: runs}
}

// RunDetail 运行记录及其分配
type RunDetail struct {
	*repository.Run
	Assignments []repository.Assignment `json:"assignments"`
}

// List 列出运行记录，支持 month、start、limit、offset 查询参数
func (h *RunHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := repository.DefaultListFilter().
		WithMonth(q.Get("month")).
		WithStart(q.Get("start"))

	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit <= 0 || limit > 200 {
			respondError(w, errors.InvalidInput("limit", "应为 1-200 的整数"))
			return
		}
		filter = filter.WithLimit(limit)
	}
	if v := q.Get("offset"); v != "" {
		offset, err := strconv.Atoi(v)
		if err != nil || offset < 0 {
			respondError(w, errors.InvalidInput("offset", "应为非负整数"))
			return
		}
		filter = filter.WithOffset(offset)
	}

	runs, total, err := h.runs.List(r.Context(), filter)
	if err != nil {
		respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "查询运行记录失败"))
		return
	}
	if runs == nil {
		runs = []*repository.Run{}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"total": total,
		"runs":  runs,
	})
}

// Get 获取单个运行记录
func (h *RunHandler) Get(w http.ResponseWriter, r *http.Request) {
	idStr := r.PathValue("id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "无效的运行ID格式"))
		return
	}

	run, err := h.runs.GetByID(r.Context(), id)
	if err != nil {
		respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "查询运行记录失败"))
		return
	}
	if run == nil {
		respondError(w, errors.NotFound("运行记录", idStr))
		return
	}

	assignments, err := h.runs.GetAssignments(r.Context(), id)
	if err != nil {
		respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "查询运行分配失败"))
		return
	}
	if assignments == nil {
		assignments = []repository.Assignment{}
	}
	respondJSON(w, http.StatusOK, RunDetail{Run: run, Assignments: assignments})
}

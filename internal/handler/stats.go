package handler

import (
	"net/http"

	"github.com/paiban/escala/internal/metrics"
	"github.com/paiban/escala/pkg/logger"
	"github.com/paiban/escala/pkg/stats"
	"github.com/paiban/escala/pkg/validator"
)

// StatsRequest 统计请求：问题实例与一份排班
type StatsRequest struct {
	ProblemInput
	Schedule map[string][]string `json:"schedule" validate:"required"`
}

// StatsResponse 统计响应
type StatsResponse struct {
	Success  bool                   `json:"success"`
	Coverage *stats.CoverageMetrics `json:"coverage,omitempty"`
	Fairness *stats.FairnessMetrics `json:"fairness,omitempty"`
}

// GetCoverageHandler 覆盖率分析API
func GetCoverageHandler(w http.ResponseWriter, r *http.Request) {
	analyze(w, r, true, false)
}

// GetFairnessHandler 公平性分析API
func GetFairnessHandler(w http.ResponseWriter, r *http.Request) {
	analyze(w, r, false, true)
}

// GetSummaryHandler 同时返回覆盖率和公平性
func GetSummaryHandler(w http.ResponseWriter, r *http.Request) {
	analyze(w, r, true, true)
}

func analyze(w http.ResponseWriter, r *http.Request, coverage, fairness bool) {
	var req StatsRequest
	if err := decodeRequest(r, &req); err != nil {
		respondError(w, err)
		return
	}
	inst, appErr := req.instance()
	if appErr != nil {
		respondError(w, appErr)
		return
	}
	x, err := validator.NewConflictDetector(inst).BuildMatrix(req.Schedule)
	if err != nil {
		respondError(w, toAppError(err))
		return
	}

	logger.Debug().
		Int("people", inst.PeopleCount()).
		Int("assigned", totalAssigned(req.Schedule)).
		Msg("接收统计分析请求")

	resp := StatsResponse{Success: true}
	if coverage {
		resp.Coverage = stats.NewCoverageAnalyzer().Analyze(inst, x)
		if req.Month != "" {
			metrics.SetCoverageRate(req.Month, resp.Coverage.OverallCoverage)
		}
	}
	if fairness {
		resp.Fairness = stats.NewFairnessAnalyzer().Analyze(inst, x)
	}
	respondJSON(w, http.StatusOK, resp)
}

func totalAssigned(schedule map[string][]string) int {
	n := 0
	for _, labels := range schedule {
		n += len(labels)
	}
	return n
}

package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paiban/escala/internal/config"
	"github.com/paiban/escala/internal/constraints"
	"github.com/paiban/escala/internal/repository"
	"github.com/paiban/escala/pkg/validator"
)

type memoryRuns struct {
	mu          sync.Mutex
	runs        map[uuid.UUID]*repository.Run
	assignments map[uuid.UUID][]repository.Assignment
}

func newMemoryRuns() *memoryRuns {
	return &memoryRuns{
		runs:        make(map[uuid.UUID]*repository.Run),
		assignments: make(map[uuid.UUID][]repository.Assignment),
	}
}

func (m *memoryRuns) Create(_ context.Context, run *repository.Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	run.CreatedAt = time.Now()
	m.runs[run.ID] = run
	return nil
}

func (m *memoryRuns) GetByID(_ context.Context, id uuid.UUID) (*repository.Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.runs[id], nil
}

func (m *memoryRuns) List(_ context.Context, f repository.ListFilter) ([]*repository.Run, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*repository.Run
	for _, r := range m.runs {
		if f.Month == "" || r.Month == f.Month {
			out = append(out, r)
		}
	}
	return out, len(out), nil
}

func (m *memoryRuns) ListByMonth(ctx context.Context, month string) ([]*repository.Run, error) {
	runs, _, err := m.List(ctx, repository.DefaultListFilter().WithMonth(month))
	return runs, err
}

func (m *memoryRuns) CreateAssignments(_ context.Context, id uuid.UUID, a []repository.Assignment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.assignments[id] = a
	return nil
}

func (m *memoryRuns) GetAssignments(_ context.Context, id uuid.UUID) ([]repository.Assignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.assignments[id], nil
}

func testConfig() config.SchedulerConfig {
	return config.SchedulerConfig{
		DefaultTimeout:       10 * time.Second,
		DefaultKmax:          3,
		DefaultMaxIterations: 1,
		Workers:              2,
		KmaxLimit:            50,
		MaxIterationsLimit:   10,
	}
}

func newTestMux(runs *memoryRuns) *http.ServeMux {
	sh := NewScheduleHandler(testConfig(), runs)
	rh := NewRunHandler(runs)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/schedule/random", sh.Random)
	mux.HandleFunc("/api/v1/schedule/vns", sh.VNS)
	mux.HandleFunc("/api/v1/schedule/greedy", sh.Greedy)
	mux.HandleFunc("/api/v1/schedule/validate", sh.Validate)
	mux.HandleFunc("/api/v1/stats/summary", GetSummaryHandler)
	mux.HandleFunc("GET /api/v1/constraints", GetConstraintLibraryHandler)
	mux.HandleFunc("GET /api/v1/runs", rh.List)
	mux.HandleFunc("GET /api/v1/runs/{id}", rh.Get)
	return mux
}

// problem 两人一天：ana/bia 都申请 1D、1N，每班段一人
func problem() map[string]interface{} {
	return map[string]interface{}{
		"people": []map[string]interface{}{
			{"name": "ana", "requests": []string{"1D", "1N"}},
			{"name": "bia", "requests": []string{"1D", "1N"}},
		},
		"limits": map[string]int{
			"max_people_per_shift":   1,
			"min_shifts":             1,
			"max_shifts":             1,
			"max_consecutive_shifts": 1,
			"consecutive_rest_time":  1,
		},
		"month_days": 1,
	}
}

func with(base map[string]interface{}, kv ...interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(base)+len(kv)/2)
	for k, v := range base {
		out[k] = v
	}
	for i := 0; i+1 < len(kv); i += 2 {
		out[kv[i].(string)] = kv[i+1]
	}
	return out
}

func do(t *testing.T, mux http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(method, path, &buf))
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestRandom(t *testing.T) {
	mux := newTestMux(newMemoryRuns())

	rec := do(t, mux, http.MethodPost, "/api/v1/schedule/random", with(problem(), "seed", 3))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decode[ScheduleResponse](t, rec)
	assert.True(t, resp.Success)
	assert.Equal(t, "random", resp.Start)
	assert.Equal(t, 0, resp.Cost)
	assert.Len(t, resp.Schedule["ana"], 1)
	assert.Len(t, resp.Schedule["bia"], 1)
	assert.Equal(t, 2, resp.Coverage.CoveredSlots)
}

func TestVNS(t *testing.T) {
	t.Run("随机初始解并行运行", func(t *testing.T) {
		runs := newMemoryRuns()
		mux := newTestMux(runs)

		rec := do(t, mux, http.MethodPost, "/api/v1/schedule/vns", with(problem(), "runs", 3, "seed", 5))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		resp := decode[ScheduleResponse](t, rec)
		assert.Equal(t, 0, resp.Cost)
		assert.LessOrEqual(t, resp.Cost, resp.InitialCost)
		require.Len(t, resp.Runs, 3)
		assert.Equal(t, []int64{5, 6, 7}, []int64{resp.Runs[0].Seed, resp.Runs[1].Seed, resp.Runs[2].Seed})
		assert.Empty(t, resp.RunID)
		assert.Empty(t, runs.runs)
	})

	t.Run("热启动", func(t *testing.T) {
		mux := newTestMux(newMemoryRuns())
		warm := map[string]interface{}{"schedule": map[string][]string{"ana": {"1T"}, "bia": {"1N"}}}

		rec := do(t, mux, http.MethodPost, "/api/v1/schedule/vns", with(problem(), "warm_start", warm))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		resp := decode[ScheduleResponse](t, rec)
		assert.Equal(t, "warm", resp.Start)
		assert.Equal(t, []string{"1D"}, resp.Schedule["ana"])
		assert.Equal(t, []string{"1N"}, resp.Schedule["bia"])
	})

	t.Run("贪心排班作为热启动", func(t *testing.T) {
		mux := newTestMux(newMemoryRuns())
		greedy := map[string]interface{}{
			"people": []map[string]interface{}{
				{"name": "ana", "priority": 1, "max_shifts": 1, "requests": []string{"1M"}},
				{"name": "bia", "priority": 2, "max_shifts": 1, "requests": []string{"1N"}},
			},
			"vacancies": []string{"1M", "1T", "1N"},
		}

		rec := do(t, mux, http.MethodPost, "/api/v1/schedule/vns", with(problem(), "greedy", greedy))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		resp := decode[ScheduleResponse](t, rec)
		assert.Equal(t, "warm", resp.Start)
		assert.Equal(t, 0, resp.InitialCost)
	})

	t.Run("保存运行记录", func(t *testing.T) {
		runs := newMemoryRuns()
		mux := newTestMux(runs)

		rec := do(t, mux, http.MethodPost, "/api/v1/schedule/vns", with(problem(), "persist", true, "month", "202401"))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		resp := decode[ScheduleResponse](t, rec)
		require.NotEmpty(t, resp.RunID)

		rec = do(t, mux, http.MethodGet, "/api/v1/runs/"+resp.RunID, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		detail := decode[RunDetail](t, rec)
		assert.Equal(t, "202401", detail.Month)
		assert.Len(t, detail.Assignments, 2)

		rec = do(t, mux, http.MethodGet, "/api/v1/runs?month=202401", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		list := decode[struct {
			Total int `json:"total"`
		}](t, rec)
		assert.Equal(t, 1, list.Total)
	})
}

func TestVNS_Errors(t *testing.T) {
	mux := newTestMux(newMemoryRuns())
	warm := map[string]interface{}{"schedule": map[string][]string{"caio": {"1M"}}}

	tests := []struct {
		name       string
		method     string
		body       interface{}
		wantStatus int
		wantCode   string
	}{
		{"非POST方法", http.MethodGet, nil, http.StatusBadRequest, "INVALID_INPUT"},
		{"请求体格式错误", http.MethodPost, "not-an-object", http.StatusBadRequest, "INVALID_INPUT"},
		{"未知字段", http.MethodPost, with(problem(), "kmaxx", 3), http.StatusBadRequest, "INVALID_INPUT"},
		{"缺少月份天数", http.MethodPost, with(problem(), "month_days", 0), http.StatusBadRequest, "INVALID_INPUT"},
		{"kmax超过上限", http.MethodPost, with(problem(), "kmax", 51), http.StatusBadRequest, "INVALID_INPUT"},
		{"kmax为负数", http.MethodPost, with(problem(), "kmax", -1), http.StatusBadRequest, "VALIDATION_FAILED"},
		{"限制非法", http.MethodPost, with(problem(), "limits", map[string]int{"max_people_per_shift": 1}), http.StatusBadRequest, "INVALID_INSTANCE"},
		{"热启动与贪心同时提供", http.MethodPost, with(problem(), "warm_start", warm, "greedy", map[string]interface{}{"people": []interface{}{}, "vacancies": []string{}}), http.StatusBadRequest, "INVALID_INPUT"},
		{"热启动不兼容", http.MethodPost, with(problem(), "warm_start", warm), http.StatusConflict, "INCOMPATIBLE_SCHEDULE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, mux, tt.method, "/api/v1/schedule/vns", tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			body := decode[map[string]interface{}](t, rec)
			assert.Equal(t, tt.wantCode, body["code"])
		})
	}
}

func TestGreedy(t *testing.T) {
	mux := newTestMux(newMemoryRuns())
	body := map[string]interface{}{
		"people": []map[string]interface{}{
			{"name": "ana", "priority": 1, "max_shifts": 4, "requests": []string{"1M", "1T", "2D", "2N"}},
		},
		"vacancies": []string{"1M", "1T", "2D", "2N"},
	}

	rec := do(t, mux, http.MethodPost, "/api/v1/schedule/greedy", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decode[struct {
		Schedule struct {
			Schedule map[string][]string `json:"schedule"`
		} `json:"schedule"`
		Display map[string][]string `json:"display"`
	}](t, rec)
	assert.Equal(t, []string{"1M", "1T", "2D", "2N"}, resp.Schedule.Schedule["ana"])
	assert.Equal(t, []string{"1D", "2P"}, resp.Display["ana"])

	rec = do(t, mux, http.MethodPost, "/api/v1/schedule/greedy", map[string]interface{}{
		"people":    []map[string]interface{}{{"name": ""}},
		"vacancies": []string{},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestValidate(t *testing.T) {
	mux := newTestMux(newMemoryRuns())

	rec := do(t, mux, http.MethodPost, "/api/v1/schedule/validate",
		with(problem(), "schedule", map[string][]string{"ana": {"1D", "1N"}, "bia": {"1D"}}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	report := decode[validator.Report](t, rec)
	assert.False(t, report.Valid)
	types := make(map[validator.ConflictType]bool)
	for _, c := range report.Conflicts {
		types[c.Type] = true
	}
	assert.True(t, types[validator.ConflictCapacity])
	assert.True(t, types[validator.ConflictConsecutive])
	assert.True(t, types[validator.ConflictMaxShifts])

	rec = do(t, mux, http.MethodPost, "/api/v1/schedule/validate",
		with(problem(), "schedule", map[string][]string{"caio": {"1D"}}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStatsSummary(t *testing.T) {
	mux := newTestMux(newMemoryRuns())

	rec := do(t, mux, http.MethodPost, "/api/v1/stats/summary",
		with(problem(), "schedule", map[string][]string{"ana": {"1D"}}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decode[StatsResponse](t, rec)
	require.NotNil(t, resp.Coverage)
	require.NotNil(t, resp.Fairness)
	assert.Equal(t, 1, resp.Coverage.CoveredSlots)
	assert.Equal(t, []string{"bia"}, resp.Fairness.BelowMinimum)
}

func TestRunHandler_Errors(t *testing.T) {
	mux := newTestMux(newMemoryRuns())

	rec := do(t, mux, http.MethodGet, "/api/v1/runs/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, mux, http.MethodGet, "/api/v1/runs/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, mux, http.MethodGet, "/api/v1/runs?limit=0", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestConstraintLibrary(t *testing.T) {
	rec := do(t, newTestMux(newMemoryRuns()), http.MethodGet, "/api/v1/constraints", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[constraints.LibraryResponse](t, rec)
	var names []string
	for _, d := range resp.Library {
		names = append(names, d.Name)
	}
	assert.Contains(t, names, "max_consecutive_run")
	assert.Contains(t, names, "rest_after_run")
}

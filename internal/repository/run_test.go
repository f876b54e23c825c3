package repository

import (
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/paiban/escala/pkg/scheduler/constraint"
	"github.com/paiban/escala/pkg/scheduler/optimizer"
)

func TestBuildRunFilter(t *testing.T) {
	tests := []struct {
		name      string
		filter    ListFilter
		wantWhere string
		wantArgs  int
	}{
		{"无过滤", DefaultListFilter(), "", 0},
		{"按月份", DefaultListFilter().WithMonth("202401"), "WHERE month = $1", 1},
		{"月份和初始解", DefaultListFilter().WithMonth("202401").WithStart("warm"), "WHERE month = $1 AND start_kind = $2", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			where, args := buildRunFilter(tt.filter)
			if where != tt.wantWhere {
				t.Errorf("where = %q, want %q", where, tt.wantWhere)
			}
			if len(args) != tt.wantArgs {
				t.Errorf("len(args) = %d, want %d", len(args), tt.wantArgs)
			}
		})
	}
}

func TestListFilter_OrderDir(t *testing.T) {
	if got := DefaultListFilter().orderDir(); got != "DESC" {
		t.Errorf("orderDir() = %q", got)
	}
	f := DefaultListFilter()
	f.OrderDir = "asc"
	if got := f.orderDir(); got != "ASC" {
		t.Errorf("orderDir() = %q", got)
	}
	f.OrderDir = "asc; DROP TABLE vns_runs"
	if got := f.orderDir(); got != "DESC" {
		t.Errorf("非法排序方向应回退为 DESC, got %q", got)
	}
}

func TestNewRun(t *testing.T) {
	res := &optimizer.Result{
		Start: optimizer.StartWarm, Seed: 9, Kmax: 20, MaxIterations: 1,
		InitialCost: 12, BestCost: 7, Improvements: 3, Moves: 40,
		Duration: 1500 * time.Millisecond,
	}

	run := NewRun("202401", res)
	if run.ID == uuid.Nil {
		t.Error("应生成运行ID")
	}
	if run.Month != "202401" || run.Start != "warm" || run.BestCost != 7 || run.DurationMs != 1500 {
		t.Errorf("NewRun() = %+v", run)
	}
}

func TestAssignmentsFromMatrix(t *testing.T) {
	x := constraint.NewMatrix(2, 4)
	x[0][1] = true
	x[1][0] = true
	x[1][3] = true

	got := AssignmentsFromMatrix([]string{"ana", "bia"}, x)
	want := []Assignment{
		{Person: "ana", Slot: "1N"},
		{Person: "bia", Slot: "1D"},
		{Person: "bia", Slot: "2N"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("AssignmentsFromMatrix() = %v, want %v", got, want)
	}
}

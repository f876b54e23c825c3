package instance

import (
	"testing"

	"github.com/paiban/escala/pkg/errors"
	"github.com/paiban/escala/pkg/model"
)

func baseRestrictions() model.Restrictions {
	return model.Restrictions{
		People: []model.Person{
			{Name: "ana", Requests: []string{"1D", "1N", "2D"}},
			{Name: "bia", Requests: []string{"2N"}},
		},
		Limits: model.Limits{
			MaxPeoplePerShift:    2,
			MinShifts:            1,
			MaxShifts:            3,
			MaxConsecutiveShifts: 1,
			ConsecutiveRestTime:  1,
		},
		MonthDays: 2,
	}
}

func TestNew_UniformCapacity(t *testing.T) {
	inst, err := New(baseRestrictions())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if inst.SlotCount() != 4 {
		t.Fatalf("SlotCount() = %d, want 4", inst.SlotCount())
	}
	for s := 0; s < inst.SlotCount(); s++ {
		if inst.Capacity(s) != 2 {
			t.Errorf("Capacity(%d) = %d, want 2", s, inst.Capacity(s))
		}
	}
	if len(inst.Catalog()) != 4 {
		t.Errorf("Catalog() = %v", inst.Catalog())
	}

	ana, _ := inst.PersonIndex("ana")
	if !inst.Requested(ana, 0) || !inst.Requested(ana, 1) || !inst.Requested(ana, 2) || inst.Requested(ana, 3) {
		t.Error("ana 的申请矩阵错误")
	}
}

func TestNew_CatalogCapacity(t *testing.T) {
	r := baseRestrictions()
	r.Shifts = []string{"1D", "1D", "2N", "1D"}

	inst, err := New(r)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	want := []int{3, 0, 0, 1}
	for s, c := range want {
		if inst.Capacity(s) != c {
			t.Errorf("Capacity(%s) = %d, want %d", inst.Label(s), inst.Capacity(s), c)
		}
	}
	if got := inst.Catalog(); len(got) != 2 || got[0] != 0 || got[1] != 3 {
		t.Errorf("Catalog() = %v, want [0 3]", got)
	}
}

func TestNew_InvalidInstance(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *model.Restrictions)
	}{
		{"申请了不存在的班段", func(r *model.Restrictions) { r.People[0].Requests = []string{"3D"} }},
		{"申请标签格式错误", func(r *model.Restrictions) { r.People[0].Requests = []string{"1X"} }},
		{"目录包含不存在的班段", func(r *model.Restrictions) { r.Shifts = []string{"9N"} }},
		{"容量为0", func(r *model.Restrictions) { r.Limits.MaxPeoplePerShift = 0 }},
		{"最少班次为负", func(r *model.Restrictions) { r.Limits.MinShifts = -1 }},
		{"最少大于最多", func(r *model.Restrictions) { r.Limits.MinShifts = 5 }},
		{"连续班次为0", func(r *model.Restrictions) { r.Limits.MaxConsecutiveShifts = 0 }},
		{"休息时长为0", func(r *model.Restrictions) { r.Limits.ConsecutiveRestTime = 0 }},
		{"天数为0", func(r *model.Restrictions) { r.MonthDays = 0 }},
		{"人员重复", func(r *model.Restrictions) { r.People[1].Name = "ana" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := baseRestrictions()
			tt.mutate(&r)
			_, err := New(r)
			if !errors.Is(err, errors.CodeInvalidInstance) {
				t.Errorf("New() error = %v, want INVALID_INSTANCE", err)
			}
		})
	}
}

func TestNew_EmptyRequestsIsWarning(t *testing.T) {
	r := baseRestrictions()
	r.People = append(r.People, model.Person{Name: "caio"})

	inst, err := New(r)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	warnings := inst.Warnings()
	if len(warnings) != 1 || warnings[0].Code != errors.CodeInfeasibleRequest {
		t.Fatalf("Warnings() = %v", warnings)
	}
}

func TestNew_NoCapacityIsWarning(t *testing.T) {
	r := baseRestrictions()
	r.Shifts = []string{"1D", "1N", "2D"}

	inst, err := New(r)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	warnings := inst.Warnings()
	if len(warnings) != 1 || warnings[0].Code != errors.CodeInfeasibleRequest {
		t.Fatalf("Warnings() = %v", warnings)
	}
	if warnings[0].Fields["person"] != "bia" {
		t.Errorf("person = %v, want bia", warnings[0].Fields["person"])
	}
}

func TestCatalog_ReturnsCopy(t *testing.T) {
	inst, err := New(baseRestrictions())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	got := inst.Catalog()
	got[0] = 99
	if inst.Catalog()[0] != 0 {
		t.Error("修改返回值不应影响实例")
	}
}

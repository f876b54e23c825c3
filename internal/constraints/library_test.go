package constraints

import (
	"testing"

	"github.com/paiban/escala/pkg/model"
	"github.com/paiban/escala/pkg/scheduler/constraint/builtin"
)

func TestLibraryCoversRegisteredConstraints(t *testing.T) {
	manager := builtin.NewDefaultManager(model.Limits{MaxConsecutiveShifts: 2, ConsecutiveRestTime: 1})
	for _, c := range manager.GetAll() {
		d, ok := Find(string(c.Type()))
		if !ok {
			t.Errorf("约束 %s 缺少说明", c.Type())
			continue
		}
		if d.Type != "hard" {
			t.Errorf("约束 %s 类型 = %s, want hard", d.Name, d.Type)
		}
	}
}

func TestLibraryParamsAreLimitFields(t *testing.T) {
	fields := map[string]bool{
		"max_people_per_shift":   true,
		"min_shifts":             true,
		"max_shifts":             true,
		"max_consecutive_shifts": true,
		"consecutive_rest_time":  true,
	}
	seen := map[string]bool{}
	for _, d := range GetLibrary() {
		for _, p := range d.Params {
			if !fields[p.Name] {
				t.Errorf("约束 %s 的参数 %s 不是限制字段", d.Name, p.Name)
			}
			seen[p.Name] = true
		}
	}
	if len(seen) != len(fields) {
		t.Errorf("参数覆盖 %d 个限制字段, want %d", len(seen), len(fields))
	}
}

func TestFindUnknown(t *testing.T) {
	if _, ok := Find("max_hours_per_day"); ok {
		t.Error("未知约束不应被找到")
	}
}

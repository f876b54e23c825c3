package optimizer

import (
	"sort"

	"github.com/paiban/escala/pkg/errors"
	"github.com/paiban/escala/pkg/model"
	"github.com/paiban/escala/pkg/scheduler/constraint"
	"github.com/paiban/escala/pkg/scheduler/constraint/builtin"
	"github.com/paiban/escala/pkg/scheduler/instance"
)

// AdaptSchedule 把三班制外部排班转换为引擎的两班制分配矩阵
//
// 早班/午班/连班映射到当天白班，夜班映射到当天夜班，每个映射扣减一次可用容量。
// 两个标签落在同一个班段、人员未申请该班段、容量不足或结果违反硬约束时返回
// INCOMPATIBLE_SCHEDULE。Vacancies 不参与转换。
func AdaptSchedule(inst *instance.Instance, ext model.ExternalSchedule) (constraint.Matrix, []int, error) {
	x := constraint.NewMatrix(inst.PeopleCount(), inst.SlotCount())
	available := inst.Capacities()

	names := make([]string, 0, len(ext.Schedule))
	for name := range ext.Schedule {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		p, ok := inst.PersonIndex(name)
		if !ok {
			return nil, nil, errors.IncompatibleSchedule(name, "", "人员不在实例中")
		}

		labels := append([]string(nil), ext.Schedule[name]...)
		model.SortTurnLabels(labels)

		for _, label := range labels {
			turn, err := model.ParseTurnLabel(label)
			if err != nil {
				return nil, nil, errors.IncompatibleSchedule(name, label, err.Error())
			}
			if turn.Day > inst.MonthDays() {
				return nil, nil, errors.IncompatibleSchedule(name, label, "超出本月天数")
			}

			s := turn.EngineSlot().Index()
			if x[p][s] {
				return nil, nil, errors.IncompatibleSchedule(name, label, "与同一天的另一个白天班次映射到同一个白班")
			}
			if !inst.Requested(p, s) {
				return nil, nil, errors.IncompatibleSchedule(name, label, "映射后的班段 "+inst.Label(s)+" 未被申请")
			}
			if available[s] <= 0 {
				return nil, nil, errors.IncompatibleSchedule(name, label, "班段 "+inst.Label(s)+" 容量不足")
			}
			x[p][s] = true
			available[s]--
		}
	}

	result := builtin.NewDefaultManager(inst.Limits()).Evaluate(x, inst.People())
	if !result.IsValid {
		v := result.Violations[0]
		return nil, nil, errors.IncompatibleSchedule(v.Person, v.Slot, "转换后违反约束: "+v.ConstraintName)
	}

	return x, available, nil
}

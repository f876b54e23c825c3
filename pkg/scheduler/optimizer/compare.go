package optimizer

import (
	"github.com/paiban/escala/pkg/scheduler/constraint"
	"github.com/paiban/escala/pkg/scheduler/instance"
)

// PersonDiff 某人在两个解之间的差异
type PersonDiff struct {
	Person  string   `json:"person"`
	Added   []string `json:"added"`
	Removed []string `json:"removed"`
}

// Compare 比较搜索前后的两个矩阵，只返回有变化的人员
func Compare(inst *instance.Instance, before, after constraint.Matrix) []PersonDiff {
	var diffs []PersonDiff
	for p := range after {
		d := PersonDiff{Person: inst.PersonName(p)}
		for s := range after[p] {
			switch {
			case after[p][s] && !before[p][s]:
				d.Added = append(d.Added, inst.Label(s))
			case before[p][s] && !after[p][s]:
				d.Removed = append(d.Removed, inst.Label(s))
			}
		}
		if len(d.Added) > 0 || len(d.Removed) > 0 {
			diffs = append(diffs, d)
		}
	}
	return diffs
}

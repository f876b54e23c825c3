package solver

import (
	"math/rand"
	"testing"

	"github.com/paiban/escala/pkg/model"
	"github.com/paiban/escala/pkg/scheduler/constraint"
	"github.com/paiban/escala/pkg/scheduler/instance"
)

func mustInstance(t *testing.T, r model.Restrictions) *instance.Instance {
	t.Helper()
	inst, err := instance.New(r)
	if err != nil {
		t.Fatalf("instance.New() error = %v", err)
	}
	return inst
}

// generatedRestrictions 生成一个较大的随机实例
func generatedRestrictions(seed int64) model.Restrictions {
	rng := rand.New(rand.NewSource(seed))
	days := 30
	people := make([]model.Person, 10)
	for i := range people {
		var requests []string
		for s := 0; s < days*model.PeriodsPerDay; s++ {
			if rng.Intn(3) == 0 {
				requests = append(requests, model.SlotAt(s).Label())
			}
		}
		people[i] = model.Person{Name: string(rune('a'+i)) + "_person", Requests: requests}
	}
	return model.Restrictions{
		People: people,
		Limits: model.Limits{
			MaxPeoplePerShift:    2,
			MinShifts:            2,
			MaxShifts:            8,
			MaxConsecutiveShifts: 2,
			ConsecutiveRestTime:  2,
		},
		MonthDays: days,
	}
}

// checkInvariants 检查可行性、容量和只分配申请班段
func checkInvariants(t *testing.T, inst *instance.Instance, x constraint.Matrix, cm *constraint.Manager) {
	t.Helper()
	if !cm.Feasible(x) {
		t.Errorf("解不可行: %+v", cm.Evaluate(x, inst.People()).Violations)
	}
	for s := 0; s < inst.SlotCount(); s++ {
		if n := x.ColumnCount(s); n > inst.Capacity(s) {
			t.Errorf("班段 %s 分配 %d 人，超过容量 %d", inst.Label(s), n, inst.Capacity(s))
		}
	}
	for p := range x {
		for s, v := range x[p] {
			if v && !inst.Requested(p, s) {
				t.Errorf("人员 %s 被分配了未申请的班段 %s", inst.PersonName(p), inst.Label(s))
			}
		}
	}
}

func TestCost_UncoveredSlot(t *testing.T) {
	// 1天2个班段，N=2：白班两人，夜班无人
	x := constraint.NewMatrix(2, 2)
	x[0][0], x[1][0] = true, true
	covered := []bool{true, false}

	// 白班贡献 0，夜班贡献 (2-0) + 2
	if got := Cost(x, covered, 2); got != 4 {
		t.Errorf("Cost() = %d, want 4", got)
	}

	// 部分覆盖只计人数缺口
	x[1][0] = false
	if got := Cost(x, covered, 2); got != 5 {
		t.Errorf("Cost() = %d, want 5", got)
	}
}

func TestRandomSchedule_TwoPeopleOneDay(t *testing.T) {
	r := model.Restrictions{
		People: []model.Person{
			{Name: "ana", Requests: []string{"1D", "1N"}},
			{Name: "bia", Requests: []string{"1D", "1N"}},
		},
		Limits: model.Limits{
			MaxPeoplePerShift:    1,
			MinShifts:            1,
			MaxShifts:            1,
			MaxConsecutiveShifts: 1,
			ConsecutiveRestTime:  1,
		},
		MonthDays: 1,
	}
	inst := mustInstance(t, r)

	for seed := int64(0); seed < 20; seed++ {
		rc := NewRandomConstructor(inst, seed)
		cost := rc.RandomSchedule()
		if cost != 0 {
			t.Fatalf("seed %d: cost = %d, want 0", seed, cost)
		}
		x := rc.View()
		if x.RowCount(0) != 1 || x.RowCount(1) != 1 || x.ColumnCount(0) != 1 || x.ColumnCount(1) != 1 {
			t.Fatalf("seed %d: 应一人白班一人夜班, got %v", seed, x)
		}
	}
}

func TestRandomSchedule_Invariants(t *testing.T) {
	inst := mustInstance(t, generatedRestrictions(7))

	for seed := int64(0); seed < 10; seed++ {
		rc := NewRandomConstructor(inst, seed)
		rc.RandomSchedule()
		checkInvariants(t, inst, rc.View(), rc.Constraints())

		for p, n := range rc.Counts() {
			if n > inst.Limits().MaxShifts {
				t.Errorf("seed %d: 人员 %s 分配 %d 个班段，超过最多 %d", seed, inst.PersonName(p), n, inst.Limits().MaxShifts)
			}
		}
		for s, a := range rc.Available() {
			if a < 0 || a > inst.Capacity(s) {
				t.Errorf("seed %d: 班段 %s 可用容量 %d 越界", seed, inst.Label(s), a)
			}
		}
	}
}

func TestRandomSchedule_Deterministic(t *testing.T) {
	inst := mustInstance(t, generatedRestrictions(3))

	a := NewRandomConstructor(inst, 42)
	b := NewRandomConstructor(inst, 42)
	a.RandomOrder()
	b.RandomOrder()
	costA, costB := a.RandomSchedule(), b.RandomSchedule()

	if costA != costB {
		t.Errorf("相同种子代价不同: %d vs %d", costA, costB)
	}
	if !a.View().Equal(b.View()) {
		t.Error("相同种子矩阵不同")
	}
}

func TestAssignOne_RollbackOnViolation(t *testing.T) {
	r := model.Restrictions{
		People: []model.Person{{Name: "ana", Requests: []string{"1D", "1N"}}},
		Limits: model.Limits{
			MaxPeoplePerShift:    1,
			MinShifts:            1,
			MaxShifts:            2,
			MaxConsecutiveShifts: 1,
			ConsecutiveRestTime:  1,
		},
		MonthDays: 1,
	}
	rc := NewRandomConstructor(mustInstance(t, r), 1)

	if !rc.AssignOne(0) {
		t.Fatal("第一次分配应成功")
	}
	if rc.AssignOne(0) {
		t.Fatal("相邻班段应被连续约束拒绝")
	}
	if rc.View().RowCount(0) != 1 {
		t.Errorf("拒绝后应回滚, row = %v", rc.View()[0])
	}
	if rc.HasRequests(0) {
		t.Error("被拒绝的申请应被消耗")
	}
	if rc.AssignOne(0) {
		t.Error("无剩余申请时不应分配")
	}
}

func TestAssignOne_NoCapacity(t *testing.T) {
	r := model.Restrictions{
		People: []model.Person{{Name: "ana", Requests: []string{"1N"}}},
		Shifts: []string{"1D"},
		Limits: model.Limits{
			MaxPeoplePerShift:    1,
			MinShifts:            1,
			MaxShifts:            1,
			MaxConsecutiveShifts: 1,
			ConsecutiveRestTime:  1,
		},
		MonthDays: 1,
	}
	rc := NewRandomConstructor(mustInstance(t, r), 1)

	if rc.AssignOne(0) {
		t.Fatal("容量为0的班段不应分配")
	}
	if rc.HasRequests(0) {
		t.Error("申请应被消耗")
	}
	if rc.View().RowCount(0) != 0 {
		t.Error("矩阵应保持为空")
	}
}

func TestFillToMinimum(t *testing.T) {
	inst := mustInstance(t, generatedRestrictions(11))
	rc := NewRandomConstructor(inst, 5)
	rc.FillToMinimum()

	for p := 0; p < inst.PeopleCount(); p++ {
		if !rc.MinReached(p) && rc.HasRequests(p) {
			t.Errorf("人员 %s 未达最少班次但仍有申请", inst.PersonName(p))
		}
		if rc.CatalogCount(p) > inst.Limits().MinShifts {
			t.Errorf("人员 %s 分配 %d 个，多于最少班次", inst.PersonName(p), rc.CatalogCount(p))
		}
	}
	checkInvariants(t, inst, rc.View(), rc.Constraints())
}

func TestReset(t *testing.T) {
	inst := mustInstance(t, generatedRestrictions(5))
	rc := NewRandomConstructor(inst, 9)
	rc.RandomSchedule()
	rc.Reset()

	for p := range rc.View() {
		if rc.View().RowCount(p) != 0 {
			t.Fatalf("Reset 后人员 %s 仍有分配", inst.PersonName(p))
		}
	}
	for s, a := range rc.Available() {
		if a != inst.Capacity(s) {
			t.Fatalf("Reset 后班段 %s 可用容量 = %d, want %d", inst.Label(s), a, inst.Capacity(s))
		}
	}
}

func TestRemoveRandomAndRepair(t *testing.T) {
	inst := mustInstance(t, generatedRestrictions(13))
	rc := NewRandomConstructor(inst, 2)
	rc.RandomSchedule()

	p := 0
	for ; p < inst.PeopleCount(); p++ {
		if rc.View().RowCount(p) > 0 {
			break
		}
	}
	before := rc.Available()
	s, ok := rc.RemoveRandom(p)
	if !ok {
		t.Fatal("RemoveRandom 应移除一个班段")
	}
	if rc.View()[p][s] {
		t.Error("班段未被移除")
	}
	if rc.Available()[s] != before[s]+1 {
		t.Error("移除后应归还容量")
	}

	rc.PrepareRepair()
	rc.FillRemaining()
	rc.UpdateCoverage()
	checkInvariants(t, inst, rc.View(), rc.Constraints())
}

func TestLoad_RecomputesAvailability(t *testing.T) {
	r := generatedRestrictions(17)
	inst := mustInstance(t, r)
	rc := NewRandomConstructor(inst, 3)
	rc.RandomSchedule()
	x := rc.Matrix()

	other := NewRandomConstructor(inst, 99)
	if err := other.Load(x); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !other.View().Equal(x) {
		t.Fatal("Load 后矩阵不一致")
	}
	for s, a := range other.Available() {
		if a != inst.Capacity(s)-x.ColumnCount(s) {
			t.Errorf("班段 %s 可用容量 = %d", inst.Label(s), a)
		}
	}
	if other.Cost() != rc.Cost() {
		t.Errorf("Load 后代价 = %d, want %d", other.Cost(), rc.Cost())
	}

	if err := other.Load(constraint.NewMatrix(1, 1)); err == nil {
		t.Error("尺寸不符应返回错误")
	}
}

package solver

import (
	"context"
	"sort"
	"time"

	"github.com/paiban/escala/pkg/errors"
	"github.com/paiban/escala/pkg/logger"
	"github.com/paiban/escala/pkg/model"
)

// GreedyResult 三班制贪心排班结果
type GreedyResult struct {
	Schedule model.ExternalSchedule `json:"schedule"`
	// Rejected 因相邻班次规则被拒绝的申请
	Rejected map[string][]string `json:"rejected,omitempty"`
	// Workload 每人按权重折算的班数（早/午 0.5，连班/夜班 1）
	Workload    map[string]float64 `json:"workload"`
	VacancyLoad float64            `json:"vacancy_load"`
	Rounds      int                `json:"rounds"`
	Duration    time.Duration      `json:"duration"`
}

// GreedyScheduler 三班制贪心排班器
//
// 人员按优先级升序轮流处理，每轮每人沿自己的申请列表向后找到第一个
// 仍空缺且无冲突的班次并分配。结果可作为邻域搜索的热启动。
type GreedyScheduler struct {
	logger *logger.SchedulerLogger
}

// NewGreedyScheduler 创建贪心排班器
func NewGreedyScheduler() *GreedyScheduler {
	return &GreedyScheduler{logger: logger.NewSchedulerLogger()}
}

// Name 返回求解器名称
func (g *GreedyScheduler) Name() string {
	return "GreedyScheduler"
}

// greedyState 一次贪心排班的状态
type greedyState struct {
	people    []model.GreedyPerson
	vacancies []string
	schedule  map[string][]string
	// counter 每个申请班次的相邻计数，-1 表示被相邻规则拒绝
	counter  map[string]map[string]int
	requests map[string][]string // 按日期排序的申请，用于遍历相邻计数
}

// Schedule 生成三班制排班
func (g *GreedyScheduler) Schedule(ctx context.Context, people []model.GreedyPerson, vacancies []string) (*GreedyResult, error) {
	startTime := time.Now()
	g.logger.StartSchedule("greedy", len(people), len(vacancies))

	if err := validateGreedyInput(people, vacancies); err != nil {
		return nil, err
	}

	st := &greedyState{
		people:    make([]model.GreedyPerson, len(people)),
		vacancies: append([]string(nil), vacancies...),
		schedule:  make(map[string][]string, len(people)),
		counter:   make(map[string]map[string]int, len(people)),
		requests:  make(map[string][]string, len(people)),
	}
	copy(st.people, people)
	sort.SliceStable(st.people, func(i, j int) bool {
		return st.people[i].Priority < st.people[j].Priority
	})

	for _, p := range st.people {
		st.schedule[p.Name] = []string{}
		sorted := append([]string(nil), p.Requests...)
		model.SortTurnLabels(sorted)
		st.requests[p.Name] = sorted
		st.counter[p.Name] = make(map[string]int, len(sorted))
		for _, r := range sorted {
			st.counter[p.Name][r] = 0
		}
	}

	next := make([]int, len(st.people))
	rounds := 0
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rounds++

		for i, p := range st.people {
			if len(st.vacancies) == 0 {
				break
			}
			for next[i] < len(p.Requests) {
				shift := p.Requests[next[i]]
				next[i]++
				if st.vacant(shift) >= 0 && !st.conflict(p, shift) {
					st.assign(p.Name, shift)
					break
				}
			}
		}

		finished := 0
		for i, p := range st.people {
			if next[i] >= len(p.Requests) {
				finished++
			}
		}
		if finished == len(st.people) || len(st.vacancies) == 0 {
			break
		}
	}

	result := &GreedyResult{
		Schedule: model.ExternalSchedule{
			Schedule:  st.schedule,
			Vacancies: st.vacancies,
		},
		Rejected:    make(map[string][]string),
		Workload:    make(map[string]float64, len(st.people)),
		VacancyLoad: WeightedCount(st.vacancies),
		Rounds:      rounds,
	}
	for _, p := range st.people {
		result.Workload[p.Name] = WeightedCount(st.schedule[p.Name])
		for _, r := range st.requests[p.Name] {
			if st.counter[p.Name][r] == -1 {
				result.Rejected[p.Name] = append(result.Rejected[p.Name], r)
			}
		}
	}
	result.Duration = time.Since(startTime)

	logger.Info().
		Int("rounds", rounds).
		Int("vacancies", len(st.vacancies)).
		Dur("duration", result.Duration).
		Msg("贪心排班完成")

	return result, nil
}

// validateGreedyInput 校验人员和空缺标签
func validateGreedyInput(people []model.GreedyPerson, vacancies []string) error {
	ve := &errors.ValidationErrors{}
	seen := make(map[string]bool, len(people))
	for _, p := range people {
		if p.Name == "" {
			ve.Add("name", "不能为空")
			continue
		}
		if seen[p.Name] {
			ve.Add("name", "人员 "+p.Name+" 重复")
		}
		seen[p.Name] = true
		if p.MaxShifts < 0 {
			ve.Add("max_shifts", "人员 "+p.Name+" 的最多班次不能为负数")
		}
		for _, r := range p.Requests {
			if _, err := model.ParseTurnLabel(r); err != nil {
				ve.Add("requests", err.Error())
			}
		}
	}
	for _, v := range vacancies {
		if _, err := model.ParseTurnLabel(v); err != nil {
			ve.Add("vacancies", err.Error())
		}
	}
	if ve.HasErrors() {
		return ve.ToAppError()
	}
	return nil
}

// vacant 返回空缺中第一个匹配的位置，不存在时返回 -1
func (st *greedyState) vacant(shift string) int {
	for i, v := range st.vacancies {
		if v == shift {
			return i
		}
	}
	return -1
}

func (st *greedyState) assign(person, shift string) {
	st.schedule[person] = append(st.schedule[person], shift)
	i := st.vacant(shift)
	st.vacancies = append(st.vacancies[:i], st.vacancies[i+1:]...)
}

func (st *greedyState) scheduled(person, shift string) bool {
	for _, s := range st.schedule[person] {
		if s == shift {
			return true
		}
	}
	return false
}

// conflict 检查最多班次、连班与早/午班互斥以及相邻规则
func (st *greedyState) conflict(p model.GreedyPerson, shift string) bool {
	if len(st.schedule[p.Name]) >= p.MaxShifts {
		return true
	}

	label, _ := model.ParseTurnLabel(shift)
	sameDay := func(t model.Turn) bool {
		return st.scheduled(p.Name, model.TurnLabel{Day: label.Day, Turn: t}.String())
	}
	switch label.Turn {
	case model.TurnMorning, model.TurnAfternoon:
		if sameDay(model.TurnDouble) {
			return true
		}
	case model.TurnDouble:
		if sameDay(model.TurnMorning) || sameDay(model.TurnAfternoon) {
			return true
		}
	}

	return st.adjacencyLimit(p.Name, label)
}

// adjacent 判断 other 是否与新班次相邻：同一天的其他班次，
// 夜班后的次日连班，或连班前一天的夜班
func adjacent(other, next model.TurnLabel) bool {
	switch {
	case other.Day == next.Day && other.Turn != next.Turn:
		return true
	case other.Day == next.Day+1 && other.Turn == model.TurnDouble && next.Turn == model.TurnNight:
		return true
	case other.Day == next.Day-1 && other.Turn == model.TurnNight && next.Turn == model.TurnDouble:
		return true
	}
	return false
}

// adjacencyLimit 与计数为 1 的相邻班次相连，或同时连接两个已排班次时拒绝
func (st *greedyState) adjacencyLimit(person string, next model.TurnLabel) bool {
	counter := st.counter[person]
	key := next.String()

	var linked []string
	for _, r := range st.requests[person] {
		other, err := model.ParseTurnLabel(r)
		if err != nil || !adjacent(other, next) {
			continue
		}
		if counter[r] == 1 {
			counter[key] = -1
			return true
		}
		if st.scheduled(person, r) {
			linked = append(linked, r)
		}
	}

	if len(linked) == 2 {
		counter[key] = -1
		return true
	}
	for _, r := range linked {
		counter[r]++
	}
	counter[key] = len(linked)
	return false
}

// turnWeight 班次权重，按半个班计
var turnWeight = map[model.Turn]int{
	model.TurnMorning:   1,
	model.TurnAfternoon: 1,
	model.TurnDouble:    2,
	model.TurnNight:     2,
}

// WeightedCount 按权重折算的班数
func WeightedCount(labels []string) float64 {
	total := 0
	for _, l := range labels {
		if t, err := model.ParseTurnLabel(l); err == nil {
			total += turnWeight[t.Turn]
		}
	}
	return float64(total) / 2
}

// DisplayLabels 排序并合并展示：同日早+午显示为 D，连班+夜班显示为 P
func DisplayLabels(labels []string) []string {
	sorted := append([]string(nil), labels...)
	model.SortTurnLabels(sorted)

	var out []string
	remove := func(label string) bool {
		for i, l := range out {
			if l == label {
				out = append(out[:i], out[i+1:]...)
				return true
			}
		}
		return false
	}
	for _, l := range sorted {
		t, err := model.ParseTurnLabel(l)
		if err != nil {
			out = append(out, l)
			continue
		}
		day := model.TurnLabel{Day: t.Day}
		switch {
		case t.Turn == model.TurnAfternoon && remove(withTurn(day, model.TurnMorning)):
			out = append(out, withTurn(day, model.TurnDouble))
		case t.Turn == model.TurnNight && remove(withTurn(day, model.TurnDouble)):
			out = append(out, withTurn(day, 'P'))
		default:
			out = append(out, l)
		}
	}
	return out
}

func withTurn(t model.TurnLabel, turn model.Turn) string {
	t.Turn = turn
	return t.String()
}

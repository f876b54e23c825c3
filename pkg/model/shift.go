// Package model 定义排班引擎的核心数据模型
package model

import (
	"fmt"
	"sort"
	"strconv"
)

// Turn 贪心排班使用的三班制班次
type Turn byte

const (
	TurnMorning   Turn = 'M' // 早班
	TurnAfternoon Turn = 'T' // 午班
	TurnDouble    Turn = 'D' // 早午连班
	TurnNight     Turn = 'N' // 夜班
)

// turnOrder 同一天内班次的排序
var turnOrder = map[Turn]int{
	TurnMorning:   1,
	TurnAfternoon: 2,
	TurnDouble:    3,
	TurnNight:     4,
}

// TurnLabel 三班制的班次标签（"3M"、"3T"、"3N"）
type TurnLabel struct {
	Day  int  `json:"day"`
	Turn Turn `json:"turn"`
}

// String 返回标签文本
func (t TurnLabel) String() string {
	return strconv.Itoa(t.Day) + string(t.Turn)
}

// IsDaytime 是否为白天班次（早班/午班/连班）
func (t TurnLabel) IsDaytime() bool {
	return t.Turn == TurnMorning || t.Turn == TurnAfternoon || t.Turn == TurnDouble
}

// EngineSlot 映射到引擎的两班制班段：早/午/连班 → 白班，夜班 → 夜班
func (t TurnLabel) EngineSlot() Slot {
	if t.Turn == TurnNight {
		return Slot{Day: t.Day, Period: PeriodNight}
	}
	return Slot{Day: t.Day, Period: PeriodDay}
}

// Less 按日期、再按 M < T < D < N 排序
func (t TurnLabel) Less(other TurnLabel) bool {
	if t.Day != other.Day {
		return t.Day < other.Day
	}
	return turnOrder[t.Turn] < turnOrder[other.Turn]
}

// ParseTurnLabel 解析三班制标签
func ParseTurnLabel(label string) (TurnLabel, error) {
	day, letter, err := splitLabel(label)
	if err != nil {
		return TurnLabel{}, err
	}
	turn := Turn(letter)
	if _, ok := turnOrder[turn]; !ok {
		return TurnLabel{}, fmt.Errorf("班次标签 %q 的班次必须是 M、T、D 或 N", label)
	}
	return TurnLabel{Day: day, Turn: turn}, nil
}

// SortTurnLabels 对标签文本排序，无法解析的标签排在最后并保持原有顺序
func SortTurnLabels(labels []string) {
	sort.SliceStable(labels, func(i, j int) bool {
		a, errA := ParseTurnLabel(labels[i])
		b, errB := ParseTurnLabel(labels[j])
		if errA != nil || errB != nil {
			return errA == nil && errB != nil
		}
		return a.Less(b)
	})
}

// ExternalSchedule 外部（贪心）排班结果，用于热启动
type ExternalSchedule struct {
	// Schedule 人员 → 已分配的三班制标签
	Schedule map[string][]string `json:"schedule"`
	// Vacancies 仍空缺的班次（仅供参考，引擎不使用）
	Vacancies []string `json:"vacancies,omitempty"`
}

// Assigned 返回某人的班次数
func (e *ExternalSchedule) Assigned(person string) int {
	return len(e.Schedule[person])
}

// Package model 定义排班引擎的核心数据模型
package model

import (
	"fmt"
	"strconv"
	"time"
)

// Period 引擎内部的班段（每天两个：白班/夜班）
type Period int

const (
	PeriodDay   Period = iota // 白班 D
	PeriodNight               // 夜班 N
)

// PeriodsPerDay 每天的班段数
const PeriodsPerDay = 2

// Letter 返回班段字母
func (p Period) Letter() byte {
	if p == PeriodNight {
		return 'N'
	}
	return 'D'
}

// String 实现 Stringer
func (p Period) String() string {
	if p == PeriodNight {
		return "night"
	}
	return "day"
}

// Slot 一个排班单元（日期 + 班段）
type Slot struct {
	Day    int    `json:"day"` // 1-based
	Period Period `json:"period"`
}

// Index 返回班段在月内的顺序下标
func (s Slot) Index() int {
	return (s.Day-1)*PeriodsPerDay + int(s.Period)
}

// Label 返回 "<day><D|N>" 形式的标签
func (s Slot) Label() string {
	return strconv.Itoa(s.Day) + string(s.Period.Letter())
}

// SlotAt 根据下标还原班段
func SlotAt(index int) Slot {
	return Slot{Day: index/PeriodsPerDay + 1, Period: Period(index % PeriodsPerDay)}
}

// ParseSlot 解析 "<day><D|N>" 标签
func ParseSlot(label string) (Slot, error) {
	day, letter, err := splitLabel(label)
	if err != nil {
		return Slot{}, err
	}
	switch letter {
	case 'D':
		return Slot{Day: day, Period: PeriodDay}, nil
	case 'N':
		return Slot{Day: day, Period: PeriodNight}, nil
	}
	return Slot{}, fmt.Errorf("班段标签 %q 的班段必须是 D 或 N", label)
}

// SlotCount 返回一个月的班段总数
func SlotCount(monthDays int) int {
	return monthDays * PeriodsPerDay
}

// splitLabel 拆分标签为日期和字母
func splitLabel(label string) (int, byte, error) {
	if len(label) < 2 {
		return 0, 0, fmt.Errorf("班段标签 %q 格式无效", label)
	}
	day, err := strconv.Atoi(label[:len(label)-1])
	if err != nil {
		return 0, 0, fmt.Errorf("班段标签 %q 日期无效: %w", label, err)
	}
	if day < 1 {
		return 0, 0, fmt.Errorf("班段标签 %q 日期必须为正数", label)
	}
	return day, label[len(label)-1], nil
}

// DaysInMonth 根据 YYYYMM 月份键计算当月天数
func DaysInMonth(month string) (int, error) {
	if len(month) != 6 {
		return 0, fmt.Errorf("月份 %q 应为 YYYYMM 格式", month)
	}
	year, err := strconv.Atoi(month[:4])
	if err != nil {
		return 0, fmt.Errorf("月份 %q 年份无效: %w", month, err)
	}
	m, err := strconv.Atoi(month[4:])
	if err != nil || m < 1 || m > 12 {
		return 0, fmt.Errorf("月份 %q 月份无效", month)
	}
	// 下个月第0天即本月最后一天
	return time.Date(year, time.Month(m)+1, 0, 0, 0, 0, 0, time.UTC).Day(), nil
}

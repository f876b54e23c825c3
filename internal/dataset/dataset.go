// Package dataset 读取排班输入数据：人员申请文件和月度班段目录
package dataset

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/paiban/escala/pkg/model"
)

// personRecord 人员申请文件中的一条记录，dias 为空白分隔的班段标签
type personRecord struct {
	Nome string `json:"nome"`
	Dias string `json:"dias"`
}

// LoadPeople 读取人员申请文件，保持文件中的人员顺序
func LoadPeople(path string) ([]model.Person, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取人员文件失败: %w", err)
	}

	var records []personRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("解析人员文件 %s 失败: %w", path, err)
	}

	people := make([]model.Person, 0, len(records))
	index := make(map[string]int, len(records))
	for _, r := range records {
		if r.Nome == "" {
			return nil, fmt.Errorf("人员文件 %s 中存在空姓名", path)
		}
		p := model.Person{Name: r.Nome, Requests: strings.Fields(r.Dias)}
		// 同名记录以后出现者为准
		if i, ok := index[r.Nome]; ok {
			people[i] = p
			continue
		}
		index[r.Nome] = len(people)
		people = append(people, p)
	}
	return people, nil
}

// LoadCatalogs 读取月度班段目录文件（月份 → 班段标签列表）
func LoadCatalogs(path string) (map[string][]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取班段目录失败: %w", err)
	}

	var catalogs map[string][]string
	if err := json.Unmarshal(data, &catalogs); err != nil {
		return nil, fmt.Errorf("解析班段目录 %s 失败: %w", path, err)
	}
	return catalogs, nil
}

// LoadMonthCatalog 读取某月份的班段目录
func LoadMonthCatalog(path, month string) ([]string, error) {
	catalogs, err := LoadCatalogs(path)
	if err != nil {
		return nil, err
	}
	shifts, ok := catalogs[month]
	if !ok {
		return nil, fmt.Errorf("班段目录中没有月份 %s", month)
	}
	return shifts, nil
}

// LoadGreedyPeople 读取三班制贪心排班的人员文件
func LoadGreedyPeople(path string) ([]model.GreedyPerson, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取人员文件失败: %w", err)
	}

	var people []model.GreedyPerson
	if err := json.Unmarshal(data, &people); err != nil {
		return nil, fmt.Errorf("解析人员文件 %s 失败: %w", path, err)
	}
	return people, nil
}

// Month 组装某月份的完整排班输入：<dir>/<month>.json 与目录文件中的该月班段
func Month(dir, catalogPath, month string, limits model.Limits) (model.Restrictions, error) {
	days, err := model.DaysInMonth(month)
	if err != nil {
		return model.Restrictions{}, err
	}
	people, err := LoadPeople(filepath.Join(dir, month+".json"))
	if err != nil {
		return model.Restrictions{}, err
	}
	shifts, err := LoadMonthCatalog(catalogPath, month)
	if err != nil {
		return model.Restrictions{}, err
	}

	return model.Restrictions{
		People:    people,
		Shifts:    shifts,
		Limits:    limits,
		MonthDays: days,
	}, nil
}

// LoadExternalSchedule 读取外部排班结果（贪心排班输出），用于热启动
func LoadExternalSchedule(path string) (model.ExternalSchedule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.ExternalSchedule{}, fmt.Errorf("读取外部排班失败: %w", err)
	}

	var ext model.ExternalSchedule
	if err := json.Unmarshal(data, &ext); err != nil {
		return model.ExternalSchedule{}, fmt.Errorf("解析外部排班 %s 失败: %w", path, err)
	}
	if ext.Schedule == nil {
		return model.ExternalSchedule{}, fmt.Errorf("外部排班 %s 缺少 schedule 字段", path)
	}
	return ext, nil
}

package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/paiban/escala/pkg/model"
)

// SweepMonth 参数扫描中的一个月份
type SweepMonth struct {
	Month     string `yaml:"month" validate:"required,len=6,numeric"` // YYYYMM
	MinShifts int    `yaml:"min_shifts" validate:"min=1"`
}

// SweepLimits 各月份共用的标量限制，最少班次按月份设置
type SweepLimits struct {
	MaxPeoplePerShift    int `yaml:"max_people_per_shift" validate:"min=1"`
	MaxShifts            int `yaml:"max_shifts" validate:"min=1"`
	MaxConsecutiveShifts int `yaml:"max_consecutive_shifts" validate:"min=1"`
	ConsecutiveRestTime  int `yaml:"consecutive_rest_time" validate:"min=1"`
}

// Sweep 参数扫描定义
type Sweep struct {
	DataDir       string       `yaml:"data_dir" validate:"required"`
	CatalogFile   string       `yaml:"catalog_file" validate:"required"`
	Output        string       `yaml:"output" validate:"required"`
	Seeds         []int64      `yaml:"seeds" validate:"required,min=1"`
	Kmax          []int        `yaml:"kmax" validate:"required,min=1,dive,min=1"`
	MaxIterations int          `yaml:"max_iterations" validate:"min=1"`
	Workers       int          `yaml:"workers" validate:"omitempty,min=1"`
	WarmStart     bool         `yaml:"warm_start"`
	Persist       bool         `yaml:"persist"`
	Limits        SweepLimits  `yaml:"limits"`
	Months        []SweepMonth `yaml:"months" validate:"required,min=1,dive"`
}

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// LoadSweepFile 读取并校验 YAML 扫描定义，相对路径以定义文件所在目录为基准
func LoadSweepFile(path string) (*Sweep, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取扫描定义失败: %w", err)
	}

	sweep := &Sweep{Workers: 1}
	if err := yaml.Unmarshal(data, sweep); err != nil {
		return nil, fmt.Errorf("解析扫描定义失败: %w", err)
	}
	if err := ValidateSweep(sweep); err != nil {
		return nil, err
	}

	base := filepath.Dir(path)
	for _, p := range []*string{&sweep.DataDir, &sweep.Output} {
		if !filepath.IsAbs(*p) {
			*p = filepath.Join(base, *p)
		}
	}
	if !filepath.IsAbs(sweep.CatalogFile) {
		sweep.CatalogFile = filepath.Join(sweep.DataDir, sweep.CatalogFile)
	}

	return sweep, nil
}

// ValidateSweep 校验扫描定义
func ValidateSweep(s *Sweep) error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("扫描定义校验失败: %w", err)
	}
	for _, m := range s.Months {
		if _, err := model.DaysInMonth(m.Month); err != nil {
			return fmt.Errorf("月份 %s 无效: %w", m.Month, err)
		}
		if m.MinShifts > s.Limits.MaxShifts {
			return fmt.Errorf("月份 %s 的最少班次 %d 大于最多班次 %d", m.Month, m.MinShifts, s.Limits.MaxShifts)
		}
	}
	return nil
}

// LimitsFor 返回某月份的完整限制
func (s *Sweep) LimitsFor(m SweepMonth) model.Limits {
	return model.Limits{
		MaxPeoplePerShift:    s.Limits.MaxPeoplePerShift,
		MinShifts:            m.MinShifts,
		MaxShifts:            s.Limits.MaxShifts,
		MaxConsecutiveShifts: s.Limits.MaxConsecutiveShifts,
		ConsecutiveRestTime:  s.Limits.ConsecutiveRestTime,
	}
}

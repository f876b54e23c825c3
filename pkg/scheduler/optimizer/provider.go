package optimizer

import (
	"github.com/paiban/escala/pkg/model"
	"github.com/paiban/escala/pkg/scheduler/solver"
)

// InitialSolutionProvider 初始解提供者
type InitialSolutionProvider interface {
	// Name 返回初始解来源名称
	Name() string

	// Initial 在构造器中建立初始解并返回其代价
	Initial(rc *solver.RandomConstructor) (int, error)
}

const (
	StartRandom = "random"
	StartWarm   = "warm"
)

// RandomStart 随机构造初始解
type RandomStart struct {
	// Shuffle 构造前打乱人员顺序，默认按输入顺序处理
	Shuffle bool
}

// Name 返回初始解来源名称
func (RandomStart) Name() string { return StartRandom }

// Initial 随机填充得到初始解
func (s RandomStart) Initial(rc *solver.RandomConstructor) (int, error) {
	if s.Shuffle {
		rc.RandomOrder()
	}
	return rc.RandomSchedule(), nil
}

// WarmStart 从外部排班热启动
type WarmStart struct {
	Schedule model.ExternalSchedule
}

// Name 返回初始解来源名称
func (WarmStart) Name() string { return StartWarm }

// Initial 转换外部排班并载入构造器
func (s WarmStart) Initial(rc *solver.RandomConstructor) (int, error) {
	x, _, err := AdaptSchedule(rc.Instance(), s.Schedule)
	if err != nil {
		return 0, err
	}
	if err := rc.Load(x); err != nil {
		return 0, err
	}
	return rc.Cost(), nil
}

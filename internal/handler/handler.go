// Package handler 提供HTTP请求处理器
package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/paiban/escala/pkg/errors"
	"github.com/paiban/escala/pkg/logger"
	"github.com/paiban/escala/pkg/model"
	"github.com/paiban/escala/pkg/scheduler/instance"
)

var validate = validator.New()

func init() {
	// 校验错误使用 JSON 字段名
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// ProblemInput 一个月排班问题的请求体
type ProblemInput struct {
	People []model.Person `json:"people" validate:"required,dive"`
	// Shifts 班段目录，为空时每个班段容量均为 max_people_per_shift
	Shifts []string     `json:"shifts,omitempty"`
	Limits model.Limits `json:"limits"`
	// Month 与 MonthDays 二选一，Month 为 YYYYMM
	Month     string `json:"month,omitempty" validate:"omitempty,len=6,numeric"`
	MonthDays int    `json:"month_days,omitempty" validate:"omitempty,min=1,max=31"`
}

// restrictions 转换为引擎输入，month_days 缺省时由 month 推算
func (p *ProblemInput) restrictions() (model.Restrictions, *errors.AppError) {
	days := p.MonthDays
	if days == 0 {
		if p.Month == "" {
			return model.Restrictions{}, errors.InvalidInput("month_days", "month 与 month_days 至少提供一个")
		}
		d, err := model.DaysInMonth(p.Month)
		if err != nil {
			return model.Restrictions{}, errors.InvalidInput("month", err.Error())
		}
		days = d
	}
	return model.Restrictions{
		People:    p.People,
		Shifts:    p.Shifts,
		Limits:    p.Limits,
		MonthDays: days,
	}, nil
}

// instance 构建问题实例
func (p *ProblemInput) instance() (*instance.Instance, *errors.AppError) {
	r, appErr := p.restrictions()
	if appErr != nil {
		return nil, appErr
	}
	inst, err := instance.New(r)
	if err != nil {
		return nil, toAppError(err)
	}
	return inst, nil
}

// decodeRequest 解析并校验请求体
func decodeRequest(r *http.Request, dst interface{}) *errors.AppError {
	if r.Method != http.MethodPost {
		return errors.New(errors.CodeInvalidInput, "仅支持POST方法")
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return errors.Wrap(err, errors.CodeInvalidInput, "解析请求失败")
	}
	if err := validate.Struct(dst); err != nil {
		return validationError(err)
	}
	return nil
}

// validationError 把 validator 的字段错误转换为统一的验证错误
func validationError(err error) *errors.AppError {
	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return errors.Wrap(err, errors.CodeInvalidInput, "请求校验失败")
	}
	ve := &errors.ValidationErrors{}
	for _, fe := range fieldErrs {
		ve.Add(jsonPath(fe.Namespace()), fmt.Sprintf("不满足 %s %s", fe.Tag(), fe.Param()))
	}
	return ve.ToAppError()
}

// jsonPath 去掉结构体名前缀，VNSRequest.ProblemInput.people[0].name 变为 people[0].name
func jsonPath(namespace string) string {
	parts := strings.Split(namespace, ".")
	out := parts[:0]
	for i, p := range parts {
		if i == 0 || p == "ProblemInput" {
			continue
		}
		out = append(out, p)
	}
	return strings.Join(out, ".")
}

// toAppError 非 AppError 的错误按内部错误处理
func toAppError(err error) *errors.AppError {
	if appErr, ok := err.(*errors.AppError); ok {
		return appErr
	}
	return errors.Wrap(err, errors.CodeInternal, "内部错误")
}

// respondJSON 返回JSON响应
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.WithError(err).Msg("写入响应失败")
	}
}

// respondError 返回错误响应
func respondError(w http.ResponseWriter, err *errors.AppError) {
	respondJSON(w, err.HTTPStatus, map[string]interface{}{
		"error":   true,
		"code":    err.Code,
		"message": err.Message,
		"details": err.Details,
		"fields":  err.Fields,
	})
}

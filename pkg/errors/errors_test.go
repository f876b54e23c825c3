package errors

import (
	"fmt"
	"net/http"
	"testing"
)

func TestAppError_HTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want int
	}{
		{"实例无效", InvalidInstance("MaxShifts 必须为正数"), http.StatusBadRequest},
		{"申请不可满足", InfeasibleRequest("ana", "申请为空"), http.StatusUnprocessableEntity},
		{"外部排班不兼容", IncompatibleSchedule("ana", "3M", "同日早午班冲突"), http.StatusConflict},
		{"未知错误码", New(Code("X"), "x"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.HTTPStatus != tt.want {
				t.Errorf("HTTPStatus = %d, want %d", tt.err.HTTPStatus, tt.want)
			}
		})
	}
}

func TestIs_ThroughWrapping(t *testing.T) {
	base := IncompatibleSchedule("bia", "4T", "未申请")
	wrapped := fmt.Errorf("热启动失败: %w", base)

	if !Is(wrapped, CodeIncompatibleSchedule) {
		t.Error("包装后的错误应仍可识别错误码")
	}
	if Is(wrapped, CodeInvalidInstance) {
		t.Error("错误码不应匹配")
	}
	if GetCode(fmt.Errorf("plain")) != CodeUnknown {
		t.Error("普通错误应返回 UNKNOWN")
	}
	if base.Fields["person"] != "bia" || base.Fields["label"] != "4T" {
		t.Errorf("Fields = %v", base.Fields)
	}
}

func TestValidationErrors_ToAppError(t *testing.T) {
	ve := &ValidationErrors{}
	if ve.HasErrors() {
		t.Fatal("空集合不应有错误")
	}
	ve.Add("kmax", "必须为正数")
	ve.Add("seed", "无效")

	err := ve.ToAppError()
	if err.Code != CodeValidationFail {
		t.Errorf("Code = %s", err.Code)
	}
	if len(err.Fields) != 2 {
		t.Errorf("Fields = %v", err.Fields)
	}
}

func TestValidationErrors_SameField(t *testing.T) {
	ve := &ValidationErrors{}
	ve.Add("requests", "标签 1X 无效")
	ve.Add("requests", "标签 2Y 无效")

	err := ve.ToAppError()
	if got := err.Fields["requests"]; got != "标签 1X 无效; 标签 2Y 无效" {
		t.Errorf("Fields[requests] = %v", got)
	}
}

func TestWrap_KeepsFields(t *testing.T) {
	inner := IncompatibleSchedule("ana", "3M", "未申请")
	err := Wrap(inner, CodeInvalidInput, "热启动排班无效")
	if err.Fields["person"] != "ana" {
		t.Errorf("Fields = %v", err.Fields)
	}
	if !Is(err, CodeInvalidInput) {
		t.Error("外层错误码应为 INVALID_INPUT")
	}
}

package model

import (
	"reflect"
	"testing"
)

func TestTurnLabel_EngineSlot(t *testing.T) {
	tests := []struct {
		label string
		want  Slot
	}{
		{"3M", Slot{Day: 3, Period: PeriodDay}},
		{"3T", Slot{Day: 3, Period: PeriodDay}},
		{"3D", Slot{Day: 3, Period: PeriodDay}},
		{"3N", Slot{Day: 3, Period: PeriodNight}},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			l, err := ParseTurnLabel(tt.label)
			if err != nil {
				t.Fatalf("ParseTurnLabel(%q) error = %v", tt.label, err)
			}
			if got := l.EngineSlot(); got != tt.want {
				t.Errorf("EngineSlot() = %+v, want %+v", got, tt.want)
			}
			if l.String() != tt.label {
				t.Errorf("String() = %q, want %q", l.String(), tt.label)
			}
		})
	}
}

func TestParseTurnLabel_Invalid(t *testing.T) {
	for _, label := range []string{"3X", "N", "-1M", "aT"} {
		if _, err := ParseTurnLabel(label); err == nil {
			t.Errorf("ParseTurnLabel(%q) 应返回错误", label)
		}
	}
}

func TestSortTurnLabels(t *testing.T) {
	labels := []string{"10N", "2T", "2M", "bad", "1N", "2D"}
	SortTurnLabels(labels)

	want := []string{"1N", "2M", "2T", "2D", "10N", "bad"}
	if !reflect.DeepEqual(labels, want) {
		t.Errorf("SortTurnLabels() = %v, want %v", labels, want)
	}
}

package model

import (
	"testing"
)

func TestParseSlot(t *testing.T) {
	tests := []struct {
		name    string
		label   string
		want    Slot
		wantErr bool
	}{
		{"白班", "1D", Slot{Day: 1, Period: PeriodDay}, false},
		{"夜班两位日期", "31N", Slot{Day: 31, Period: PeriodNight}, false},
		{"三班制字母无效", "3M", Slot{}, true},
		{"日期为0", "0D", Slot{}, true},
		{"过短", "D", Slot{}, true},
		{"日期非数字", "xD", Slot{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSlot(tt.label)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseSlot(%q) error = %v, wantErr %v", tt.label, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseSlot(%q) = %+v, want %+v", tt.label, got, tt.want)
			}
		})
	}
}

func TestSlot_IndexRoundTrip(t *testing.T) {
	for i := 0; i < SlotCount(31); i++ {
		s := SlotAt(i)
		if s.Index() != i {
			t.Fatalf("SlotAt(%d).Index() = %d", i, s.Index())
		}
		parsed, err := ParseSlot(s.Label())
		if err != nil || parsed != s {
			t.Fatalf("ParseSlot(%q) = %+v, %v", s.Label(), parsed, err)
		}
	}
	if got := (Slot{Day: 3, Period: PeriodNight}).Index(); got != 5 {
		t.Errorf("3N 下标应为5，实际 %d", got)
	}
}

func TestDaysInMonth(t *testing.T) {
	tests := []struct {
		month   string
		want    int
		wantErr bool
	}{
		{"202401", 31, false},
		{"202402", 29, false},
		{"202302", 28, false},
		{"202404", 30, false},
		{"202413", 0, true},
		{"2024", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.month, func(t *testing.T) {
			got, err := DaysInMonth(tt.month)
			if (err != nil) != tt.wantErr {
				t.Fatalf("DaysInMonth(%q) error = %v", tt.month, err)
			}
			if got != tt.want {
				t.Errorf("DaysInMonth(%q) = %d, want %d", tt.month, got, tt.want)
			}
		})
	}
}

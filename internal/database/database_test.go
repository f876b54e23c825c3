package database

import (
	"strings"
	"testing"
)

func TestTruncateQuery(t *testing.T) {
	short := "SELECT 1"
	if got := truncateQuery(short); got != short {
		t.Errorf("truncateQuery() = %q", got)
	}

	long := strings.Repeat("x", 250)
	got := truncateQuery(long)
	if len(got) != 203 || !strings.HasSuffix(got, "...") {
		t.Errorf("长查询应截断为200字符加省略号, len=%d", len(got))
	}
}

func TestSchemaOrder(t *testing.T) {
	runs, assignments := -1, -1
	for i, stmt := range schema {
		switch {
		case strings.Contains(stmt, "CREATE TABLE IF NOT EXISTS vns_runs "):
			runs = i
		case strings.Contains(stmt, "CREATE TABLE IF NOT EXISTS vns_run_assignments"):
			assignments = i
		}
	}
	if runs < 0 || assignments < 0 || runs > assignments {
		t.Errorf("vns_runs 必须先于 vns_run_assignments 创建, runs=%d assignments=%d", runs, assignments)
	}
}

func TestCloseNil(t *testing.T) {
	var db *DB
	if err := db.Close(); err != nil {
		t.Errorf("Close() on nil = %v", err)
	}
}

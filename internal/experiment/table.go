package experiment

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Table 结果表：行为指标，列为月份，按插入顺序输出
type Table struct {
	columns []string
	rows    []string
	cells   map[string]map[string]string
}

// NewTable 创建结果表
func NewTable() *Table {
	return &Table{cells: make(map[string]map[string]string)}
}

// Set 写入一个单元格
func (t *Table) Set(row, column string, value interface{}) {
	if _, ok := t.cells[row]; !ok {
		t.rows = append(t.rows, row)
		t.cells[row] = make(map[string]string)
	}
	if !t.hasColumn(column) {
		t.columns = append(t.columns, column)
	}
	t.cells[row][column] = fmt.Sprint(value)
}

// Get 读取一个单元格
func (t *Table) Get(row, column string) (string, bool) {
	v, ok := t.cells[row][column]
	return v, ok
}

// Rows 返回行名
func (t *Table) Rows() []string { return append([]string(nil), t.rows...) }

// Columns 返回列名
func (t *Table) Columns() []string { return append([]string(nil), t.columns...) }

func (t *Table) hasColumn(column string) bool {
	for _, c := range t.columns {
		if c == column {
			return true
		}
	}
	return false
}

// WriteCSV 以 CSV 输出，首列为行名
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(append([]string{""}, t.columns...)); err != nil {
		return err
	}
	for _, row := range t.rows {
		record := make([]string, 0, len(t.columns)+1)
		record = append(record, row)
		for _, c := range t.columns {
			record = append(record, t.cells[row][c])
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// SaveCSV 写入文件，必要时创建目录
func (t *Table) SaveCSV(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("创建输出目录失败: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("创建结果文件失败: %w", err)
	}
	defer f.Close()

	if err := t.WriteCSV(f); err != nil {
		return fmt.Errorf("写入结果文件失败: %w", err)
	}
	return f.Close()
}

// Package metrics 提供Prometheus文本格式的监控指标
package metrics

import (
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Registry 指标注册表
type Registry struct {
	counters   map[string]*Counter
	gauges     map[string]*Gauge
	histograms map[string]*Histogram
	mu         sync.RWMutex
}

// series 一组带标签的数值
type series struct {
	Name   string
	Help   string
	Labels []string
	values map[string]float64
	mu     sync.RWMutex
}

// Counter 计数器
type Counter struct{ series }

// Gauge 仪表盘
type Gauge struct{ series }

// Histogram 直方图
type Histogram struct {
	Name    string
	Help    string
	Labels  []string
	Buckets []float64
	counts  map[string][]int
	sums    map[string]float64
	mu      sync.RWMutex
}

// 指标名称
const (
	HTTPRequestsTotal    = "escala_http_requests_total"
	HTTPRequestDuration  = "escala_http_request_duration_seconds"
	VNSRunsTotal         = "escala_vns_runs_total"
	VNSRunDuration       = "escala_vns_run_duration_seconds"
	VNSImprovementsTotal = "escala_vns_improvements_total"
	VNSBestCost          = "escala_vns_best_cost"
	GreedyRunsTotal      = "escala_greedy_runs_total"
	ActiveRuns           = "escala_active_runs"
	ScheduleCoverageRate = "escala_schedule_coverage_rate"
	ValidationConflicts  = "escala_validation_conflicts_total"
)

// labelSep 标签值分隔符，不会出现在标签值中
const labelSep = "\x1f"

var (
	registry *Registry
	once     sync.Once
)

// GetRegistry 获取全局注册表
func GetRegistry() *Registry {
	once.Do(func() {
		registry = NewRegistry()
		initDefaultMetrics(registry)
	})
	return registry
}

// NewRegistry 创建空注册表
func NewRegistry() *Registry {
	return &Registry{
		counters:   make(map[string]*Counter),
		gauges:     make(map[string]*Gauge),
		histograms: make(map[string]*Histogram),
	}
}

func initDefaultMetrics(r *Registry) {
	r.NewCounter(HTTPRequestsTotal, "HTTP请求总数", []string{"method", "path", "status"})
	r.NewHistogram(HTTPRequestDuration, "HTTP请求延迟",
		[]string{"method", "path"},
		[]float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0})

	r.NewCounter(VNSRunsTotal, "邻域搜索运行次数", []string{"start", "status"})
	r.NewHistogram(VNSRunDuration, "邻域搜索运行耗时",
		[]string{"start"},
		[]float64{0.01, 0.05, 0.1, 0.5, 1.0, 5.0, 10.0, 30.0, 60.0, 300.0})
	r.NewCounter(VNSImprovementsTotal, "邻域搜索接受的改进次数", []string{"start"})
	r.NewGauge(VNSBestCost, "最近一次运行的最优代价", []string{"month"})
	r.NewCounter(GreedyRunsTotal, "贪心排班次数", []string{"status"})
	r.NewGauge(ActiveRuns, "当前进行中的运行数", nil)
	r.NewGauge(ScheduleCoverageRate, "最近一次结果的班段覆盖率", []string{"month"})
	r.NewCounter(ValidationConflicts, "校验发现的冲突数", []string{"type"})
}

// NewCounter 创建计数器
func (r *Registry) NewCounter(name, help string, labels []string) *Counter {
	r.mu.Lock()
	defer r.mu.Unlock()

	c := &Counter{series{Name: name, Help: help, Labels: labels, values: make(map[string]float64)}}
	r.counters[name] = c
	return c
}

// NewGauge 创建仪表盘
func (r *Registry) NewGauge(name, help string, labels []string) *Gauge {
	r.mu.Lock()
	defer r.mu.Unlock()

	g := &Gauge{series{Name: name, Help: help, Labels: labels, values: make(map[string]float64)}}
	r.gauges[name] = g
	return g
}

// NewHistogram 创建直方图
func (r *Registry) NewHistogram(name, help string, labels []string, buckets []float64) *Histogram {
	r.mu.Lock()
	defer r.mu.Unlock()

	h := &Histogram{
		Name:    name,
		Help:    help,
		Labels:  labels,
		Buckets: buckets,
		counts:  make(map[string][]int),
		sums:    make(map[string]float64),
	}
	r.histograms[name] = h
	return h
}

// GetCounter 获取计数器
func (r *Registry) GetCounter(name string) *Counter {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.counters[name]
}

// GetGauge 获取仪表盘
func (r *Registry) GetGauge(name string) *Gauge {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.gauges[name]
}

// GetHistogram 获取直方图
func (r *Registry) GetHistogram(name string) *Histogram {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.histograms[name]
}

func (s *series) add(value float64, labelValues []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[strings.Join(labelValues, labelSep)] += value
}

// Value 返回某组标签的当前值
func (s *series) Value(labelValues ...string) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values[strings.Join(labelValues, labelSep)]
}

// Inc 增加计数
func (c *Counter) Inc(labelValues ...string) { c.add(1, labelValues) }

// Add 增加指定值，负值被忽略
func (c *Counter) Add(value float64, labelValues ...string) {
	if value < 0 {
		return
	}
	c.add(value, labelValues)
}

// Set 设置值
func (g *Gauge) Set(value float64, labelValues ...string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.values[strings.Join(labelValues, labelSep)] = value
}

// Inc 增加
func (g *Gauge) Inc(labelValues ...string) { g.add(1, labelValues) }

// Dec 减少
func (g *Gauge) Dec(labelValues ...string) { g.add(-1, labelValues) }

// Observe 记录观测值
func (h *Histogram) Observe(value float64, labelValues ...string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	key := strings.Join(labelValues, labelSep)
	counts, ok := h.counts[key]
	if !ok {
		counts = make([]int, len(h.Buckets)+1)
		h.counts[key] = counts
	}

	// 非累积计数，输出时再累加
	i := sort.SearchFloat64s(h.Buckets, value)
	counts[i]++
	h.sums[key] += value
}

// Count 返回某组标签的观测次数
func (h *Histogram) Count(labelValues ...string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	total := 0
	for _, c := range h.counts[strings.Join(labelValues, labelSep)] {
		total += c
	}
	return total
}

// WriteTo 以Prometheus文本格式输出全部指标，名称和标签按字典序
func (r *Registry) WriteTo(w io.Writer) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, name := range sortedKeys(r.counters) {
		r.counters[name].write(w, "counter")
	}
	for _, name := range sortedKeys(r.gauges) {
		r.gauges[name].write(w, "gauge")
	}
	for _, name := range sortedKeys(r.histograms) {
		r.histograms[name].write(w)
	}
}

func (s *series) write(w io.Writer, kind string) {
	fmt.Fprintf(w, "# HELP %s %s\n", s.Name, s.Help)
	fmt.Fprintf(w, "# TYPE %s %s\n", s.Name, kind)

	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, key := range sortedKeys(s.values) {
		fmt.Fprintf(w, "%s%s %s\n", s.Name, braces(formatLabels(s.Labels, key)), formatValue(s.values[key]))
	}
}

func (h *Histogram) write(w io.Writer) {
	fmt.Fprintf(w, "# HELP %s %s\n", h.Name, h.Help)
	fmt.Fprintf(w, "# TYPE %s histogram\n", h.Name)

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, key := range sortedKeys(h.counts) {
		labels := formatLabels(h.Labels, key)
		prefix := labels
		if prefix != "" {
			prefix += ","
		}

		counts := h.counts[key]
		cumulative := 0
		for i, bucket := range h.Buckets {
			cumulative += counts[i]
			fmt.Fprintf(w, "%s_bucket{%sle=\"%s\"} %d\n", h.Name, prefix, formatValue(bucket), cumulative)
		}
		cumulative += counts[len(h.Buckets)]
		fmt.Fprintf(w, "%s_bucket{%sle=\"+Inf\"} %d\n", h.Name, prefix, cumulative)
		fmt.Fprintf(w, "%s_sum%s %s\n", h.Name, braces(labels), formatValue(h.sums[key]))
		fmt.Fprintf(w, "%s_count%s %d\n", h.Name, braces(labels), cumulative)
	}
}

// Handler 返回Prometheus格式的指标HTTP处理器
func Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		GetRegistry().WriteTo(w)
	})
}

// formatLabels 把标签名与标签键组合为 name="value" 列表
func formatLabels(names []string, key string) string {
	if len(names) == 0 {
		return ""
	}
	vals := strings.Split(key, labelSep)
	parts := make([]string, len(names))
	for i, name := range names {
		val := ""
		if i < len(vals) {
			val = vals[i]
		}
		parts[i] = fmt.Sprintf("%s=%q", name, val)
	}
	return strings.Join(parts, ",")
}

func braces(labels string) string {
	if labels == "" {
		return ""
	}
	return "{" + labels + "}"
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// RecordRequestMetrics 记录请求指标
func RecordRequestMetrics(method, path string, status int, duration time.Duration) {
	r := GetRegistry()
	r.GetCounter(HTTPRequestsTotal).Inc(method, path, strconv.Itoa(status))
	r.GetHistogram(HTTPRequestDuration).Observe(duration.Seconds(), method, path)
}

// RecordVNSRun 记录一次邻域搜索运行
func RecordVNSRun(start, month string, success bool, improvements, bestCost int, duration time.Duration) {
	r := GetRegistry()

	status := "success"
	if !success {
		status = "failure"
	}
	r.GetCounter(VNSRunsTotal).Inc(start, status)
	r.GetHistogram(VNSRunDuration).Observe(duration.Seconds(), start)
	if !success {
		return
	}
	r.GetCounter(VNSImprovementsTotal).Add(float64(improvements), start)
	if month != "" {
		r.GetGauge(VNSBestCost).Set(float64(bestCost), month)
	}
}

// RecordGreedyRun 记录一次贪心排班
func RecordGreedyRun(success bool) {
	status := "success"
	if !success {
		status = "failure"
	}
	GetRegistry().GetCounter(GreedyRunsTotal).Inc(status)
}

// TrackActiveRun 增加进行中的运行数，返回的函数在运行结束时调用
func TrackActiveRun() func() {
	g := GetRegistry().GetGauge(ActiveRuns)
	g.Inc()
	return func() { g.Dec() }
}

// SetCoverageRate 设置覆盖率
func SetCoverageRate(month string, rate float64) {
	GetRegistry().GetGauge(ScheduleCoverageRate).Set(rate, month)
}

// RecordConflict 记录校验冲突
func RecordConflict(conflictType string) {
	GetRegistry().GetCounter(ValidationConflicts).Inc(conflictType)
}

package metrics

import (
	"cmp"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/exp/slices"
)

// Metric is a statistic that can be combined with another one of the same
// kind, e.g. the results of several games.
type Metric interface {
	Merge(other Metric) Metric
	Rows() [][2]string
}

// Named holds the metrics of a player by name.
type Named map[string]Metric

// Merge adds other into n. Metrics of the same name must be of the same kind.
func (n Named) Merge(other Named) {
	for name, metric := range other {
		if current, ok := n[name]; ok {
			n[name] = current.Merge(metric)
		} else {
			n[name] = metric.Merge(nil)
		}
	}
}

func (n Named) Names() []string {
	names := make([]string, 0, len(n))
	for name := range n {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func (n Named) String() string {
	var sb strings.Builder
	for _, name := range n.Names() {
		sb.WriteString(name)
		sb.WriteString(":")
		for _, row := range n[name].Rows() {
			fmt.Fprintf(&sb, " %s=%s", row[0], row[1])
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// Histogram counts occurrences of values.
type Histogram[K cmp.Ordered] map[K]int

func (h Histogram[K]) Add(value K) {
	h[value]++
}

func (h Histogram[K]) Total() int {
	total := 0
	for _, count := range h {
		total += count
	}
	return total
}

func (h Histogram[K]) Merge(other Metric) Metric {
	out := make(Histogram[K], len(h))
	for k, count := range h {
		out[k] = count
	}
	if other != nil {
		for k, count := range other.(Histogram[K]) {
			out[k] += count
		}
	}
	return out
}

func (h Histogram[K]) Rows() [][2]string {
	keys := make([]K, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	rows := make([][2]string, 0, len(keys))
	for _, k := range keys {
		rows = append(rows, [2]string{fmt.Sprint(k), strconv.Itoa(h[k])})
	}
	return rows
}

// Bucket rounds value down to a multiple of width.
func Bucket(value, width int) int {
	return value / width * width
}

// Ratio counts how many of Total events were hits.
type Ratio struct {
	Hits  int
	Total int
}

func (r *Ratio) Add(hit bool) {
	r.Total++
	if hit {
		r.Hits++
	}
}

func (r Ratio) Value() float64 {
	if r.Total == 0 {
		return 0
	}
	return float64(r.Hits) / float64(r.Total)
}

func (r Ratio) Merge(other Metric) Metric {
	if other != nil {
		o := other.(Ratio)
		r.Hits += o.Hits
		r.Total += o.Total
	}
	return r
}

func (r Ratio) Rows() [][2]string {
	return [][2]string{
		{"hits", strconv.Itoa(r.Hits)},
		{"total", strconv.Itoa(r.Total)},
		{"ratio", strconv.FormatFloat(r.Value(), 'f', 3, 64)},
	}
}

// Package metrics emits CloudWatch Embedded Metric Format (EMF) records.
// Each record is a single JSON line; CloudWatch Logs extracts the metrics
// from it when the process runs in Lambda.
//
// Outside Lambda, records are discarded unless SetOutput names a writer,
// so CLI output stays clean.
//
// See: https://docs.aws.amazon.com/AmazonCloudWatch/latest/monitoring/CloudWatch_Embedded_Metric_Format_Specification.html
package metrics

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"sync"
	"time"
)

// Namespace is the CloudWatch namespace for every StyleAI metric.
const Namespace = "StyleAI"

// Standard CloudWatch metric units.
const (
	UnitMilliseconds = "Milliseconds"
	UnitCount        = "Count"
	UnitBytes        = "Bytes"
	UnitNone         = "None"
)

// sink is where records go. One per process.
type sink struct {
	mu       sync.Mutex
	w        io.Writer
	function string
}

var defaultSink = sync.OnceValue(func() *sink {
	s := &sink{w: io.Discard, function: os.Getenv("AWS_LAMBDA_FUNCTION_NAME")}
	if s.function != "" {
		s.w = os.Stdout
	}
	return s
})

func (s *sink) write(line []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.w.Write(append(line, '\n'))
}

// SetOutput redirects EMF records to w.
func SetOutput(w io.Writer) {
	s := defaultSink()
	s.mu.Lock()
	s.w = w
	s.mu.Unlock()
}

type metricDef struct {
	Name string `json:"Name"`
	Unit string `json:"Unit"`
}

// Recorder accumulates one EMF record. Create one per operation; a Recorder
// is not safe for concurrent use, but concurrent Flush calls on different
// recorders never interleave their lines.
type Recorder struct {
	namespace  string
	dimensions map[string]string
	units      map[string]string
	values     map[string]float64
	properties map[string]any
}

// New creates a Recorder. The FunctionName dimension is added automatically
// inside Lambda.
func New(namespace string) *Recorder {
	r := &Recorder{
		namespace:  namespace,
		dimensions: map[string]string{},
		units:      map[string]string{},
		values:     map[string]float64{},
		properties: map[string]any{},
	}
	if fn := defaultSink().function; fn != "" {
		r.dimensions["FunctionName"] = fn
	}
	return r
}

// Dimension adds an indexed dimension.
func (r *Recorder) Dimension(key, value string) *Recorder {
	r.dimensions[key] = value
	return r
}

// Metric records a value with one of the Unit* constants. Recording the same
// name twice keeps the last value.
func (r *Recorder) Metric(name string, value float64, unit string) *Recorder {
	r.units[name] = unit
	r.values[name] = value
	return r
}

// Count records a count of one.
func (r *Recorder) Count(name string) *Recorder {
	return r.Metric(name, 1, UnitCount)
}

// Since records the milliseconds elapsed since start.
func (r *Recorder) Since(name string, start time.Time) *Recorder {
	return r.Metric(name, float64(time.Since(start).Milliseconds()), UnitMilliseconds)
}

// Property adds a searchable, non-metric field.
func (r *Recorder) Property(key string, value any) *Recorder {
	r.properties[key] = value
	return r
}

// MarshalJSON renders the record: properties, dimension values, and metric
// values at the top level plus the _aws directive. Dimension and metric
// names are sorted so output is stable.
func (r *Recorder) MarshalJSON() ([]byte, error) {
	names := slices.Sorted(maps.Keys(r.values))
	defs := make([]metricDef, len(names))
	for i, n := range names {
		defs[i] = metricDef{Name: n, Unit: r.units[n]}
	}

	doc := maps.Clone(r.properties)
	for k, v := range r.dimensions {
		doc[k] = v
	}
	for k, v := range r.values {
		doc[k] = v
	}
	doc["_aws"] = map[string]any{
		"Timestamp": time.Now().UnixMilli(),
		"CloudWatchMetrics": []map[string]any{{
			"Namespace":  r.namespace,
			"Dimensions": [][]string{slices.Sorted(maps.Keys(r.dimensions))},
			"Metrics":    defs,
		}},
	}
	return json.Marshal(doc)
}

// Flush writes the record as one JSON line. Records without metrics are
// dropped. The Recorder must not be reused afterwards.
func (r *Recorder) Flush() {
	if len(r.values) == 0 {
		return
	}
	line, err := r.MarshalJSON()
	if err != nil {
		fmt.Fprintf(os.Stderr, "emf: failed to marshal metrics: %v\n", err)
		return
	}
	defaultSink().write(line)
}

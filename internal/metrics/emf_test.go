package metrics

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"
	"sync"
	"testing"
	"time"
)

func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() { SetOutput(io.Discard) })
	return &buf
}

func TestNew_FunctionNameDimension(t *testing.T) {
	s := defaultSink()
	s.function = "styleai-api"
	defer func() { s.function = "" }()

	r := New(Namespace)
	if r.namespace != "StyleAI" {
		t.Errorf("expected namespace StyleAI, got %s", r.namespace)
	}
	if r.dimensions["FunctionName"] != "styleai-api" {
		t.Errorf("expected FunctionName dimension, got %q", r.dimensions["FunctionName"])
	}
}

func TestRecorder_FlushOutput(t *testing.T) {
	buf := captureOutput(t)
	defaultSink().function = ""

	New(Namespace).
		Dimension("Flow", "suggest-outfit").
		Dimension("Result", "success").
		Metric("FlowLatencyMs", 1234.5, UnitMilliseconds).
		Count("FlowCalls").
		Property("model", "gemini-2.5-flash").
		Flush()

	line := strings.TrimSpace(buf.String())
	if strings.Count(line, "\n") != 0 {
		t.Fatalf("EMF record must be a single line, got %q", line)
	}

	var doc map[string]any
	if err := json.Unmarshal([]byte(line), &doc); err != nil {
		t.Fatalf("failed to parse EMF output: %v\nOutput: %s", err, line)
	}

	aws, ok := doc["_aws"].(map[string]any)
	if !ok {
		t.Fatal("missing _aws directive")
	}
	if _, ok := aws["Timestamp"]; !ok {
		t.Error("missing Timestamp")
	}
	cw, ok := aws["CloudWatchMetrics"].([]any)
	if !ok || len(cw) != 1 {
		t.Fatalf("expected one CloudWatchMetrics entry, got %v", aws["CloudWatchMetrics"])
	}
	entry := cw[0].(map[string]any)
	if entry["Namespace"] != "StyleAI" {
		t.Errorf("expected namespace StyleAI, got %v", entry["Namespace"])
	}
	dims := entry["Dimensions"].([]any)[0].([]any)
	if len(dims) != 2 || dims[0] != "Flow" || dims[1] != "Result" {
		t.Errorf("expected sorted dimensions [Flow Result], got %v", dims)
	}

	if doc["Flow"] != "suggest-outfit" {
		t.Errorf("expected Flow dimension value, got %v", doc["Flow"])
	}
	if doc["FlowLatencyMs"] != 1234.5 {
		t.Errorf("expected FlowLatencyMs=1234.5, got %v", doc["FlowLatencyMs"])
	}
	if doc["FlowCalls"] != float64(1) {
		t.Errorf("expected FlowCalls=1, got %v", doc["FlowCalls"])
	}
	if doc["model"] != "gemini-2.5-flash" {
		t.Errorf("expected model property, got %v", doc["model"])
	}
}

func TestRecorder_FlushEmpty(t *testing.T) {
	buf := captureOutput(t)
	New("Test").Dimension("Flow", "x").Flush()
	if buf.Len() != 0 {
		t.Errorf("expected no output for a record without metrics, got %s", buf.String())
	}
}

func TestRecorder_Since(t *testing.T) {
	rec := New("Test").Since("ElapsedMs", time.Now().Add(-50*time.Millisecond))
	if v := rec.values["ElapsedMs"]; v < 50 {
		t.Errorf("expected at least 50ms, got %v", v)
	}
	if rec.units["ElapsedMs"] != UnitMilliseconds {
		t.Errorf("expected milliseconds unit, got %s", rec.units["ElapsedMs"])
	}
}

func TestRecorder_MetricOverwrites(t *testing.T) {
	rec := New("Test").Metric("Items", 3, UnitCount).Metric("Items", 5, UnitCount)
	data, err := rec.MarshalJSON()
	if err != nil {
		t.Fatal(err)
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatal(err)
	}
	if doc["Items"] != float64(5) {
		t.Errorf("expected last value 5, got %v", doc["Items"])
	}
	metrics := doc["_aws"].(map[string]any)["CloudWatchMetrics"].([]any)[0].(map[string]any)["Metrics"].([]any)
	if len(metrics) != 1 {
		t.Errorf("expected one metric definition, got %d", len(metrics))
	}
}

func TestRecorder_ConcurrentFlushDoesNotInterleave(t *testing.T) {
	buf := captureOutput(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			New("Test").Count("Calls").Flush()
		}()
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 20 {
		t.Fatalf("expected 20 lines, got %d", len(lines))
	}
	for _, l := range lines {
		if !json.Valid([]byte(l)) {
			t.Errorf("interleaved or invalid line: %s", l)
		}
	}
}

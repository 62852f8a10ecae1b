package logging

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestLevelFromEnv(t *testing.T) {
	tests := map[string]zerolog.Level{
		"":      zerolog.InfoLevel,
		"debug": zerolog.DebugLevel,
		"WARN":  zerolog.WarnLevel,
		"error": zerolog.ErrorLevel,
		"loud":  zerolog.InfoLevel,
	}
	for value, want := range tests {
		t.Setenv(LevelEnvVar, value)
		if got := levelFromEnv(); got != want {
			t.Errorf("%s=%q: expected %s, got %s", LevelEnvVar, value, want, got)
		}
	}
}

func TestStartupLogger_Log(t *testing.T) {
	var buf bytes.Buffer
	prev := log.Logger
	t.Cleanup(func() { log.Logger = prev })
	t.Setenv(LevelEnvVar, "info")
	InitJSON(&buf)

	NewStartupLogger("styleai-web").
		Store("backend", "dynamo").
		Store("table", "wardrobe").
		Store("owner", "").
		S3Bucket("photos", "styleai-photos").
		Feature("sentry", false).
		Config("model", "gemini-2.5-flash").
		InitDuration(25 * time.Millisecond).
		Log()

	var evt map[string]any
	if err := json.Unmarshal(buf.Bytes(), &evt); err != nil {
		t.Fatalf("startup event is not JSON: %v\n%s", err, buf.String())
	}
	if evt["message"] != "Startup complete" {
		t.Errorf("unexpected message %v", evt["message"])
	}
	store, _ := evt["store"].(map[string]any)
	if store["backend"] != "dynamo" || store["table"] != "wardrobe" {
		t.Errorf("unexpected store block %v", evt["store"])
	}
	if _, ok := store["owner"]; ok {
		t.Errorf("blank values should be omitted, got %v", store)
	}
	if _, ok := evt["ssmParams"]; ok {
		t.Errorf("empty sections should be omitted, got %v", evt["ssmParams"])
	}
	process, _ := evt["process"].(map[string]any)
	if process["name"] != "styleai-web" {
		t.Errorf("unexpected process block %v", evt["process"])
	}
	features, _ := evt["features"].(map[string]any)
	if features["sentry"] != false {
		t.Errorf("unexpected features %v", evt["features"])
	}
}

package logging

import (
	"os"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Startup event sections, in output order.
const (
	sectionStore   = "store"
	sectionBuckets = "s3Buckets"
	sectionSSM     = "ssmParams"
	sectionConfig  = "config"
)

var sectionOrder = []string{sectionStore, sectionBuckets, sectionSSM, sectionConfig}

// StartupLogger collects what a process was started with and emits it as
// one structured event. Blank values are omitted.
type StartupLogger struct {
	name         string
	initDuration time.Duration
	sections     map[string]map[string]string
	features     map[string]bool
}

// NewStartupLogger creates a StartupLogger for the named binary
// (e.g. "styleai-serve", "styleai-lambda").
func NewStartupLogger(name string) *StartupLogger {
	return &StartupLogger{
		name:     name,
		sections: make(map[string]map[string]string),
		features: make(map[string]bool),
	}
}

func (s *StartupLogger) add(section, key, value string) *StartupLogger {
	if value == "" {
		return s
	}
	if s.sections[section] == nil {
		s.sections[section] = make(map[string]string)
	}
	s.sections[section][key] = value
	return s
}

// Store registers a wardrobe store setting, such as the backend or table name.
func (s *StartupLogger) Store(label, value string) *StartupLogger {
	return s.add(sectionStore, label, value)
}

// S3Bucket registers an S3 bucket used by this process.
func (s *StartupLogger) S3Bucket(label, name string) *StartupLogger {
	return s.add(sectionBuckets, label, name)
}

// SSMParam registers an SSM parameter path. Only the path is logged.
func (s *StartupLogger) SSMParam(label, path string) *StartupLogger {
	return s.add(sectionSSM, label, path)
}

// Config registers a non-sensitive configuration value.
func (s *StartupLogger) Config(key, value string) *StartupLogger {
	return s.add(sectionConfig, key, value)
}

// Feature registers a boolean feature flag.
func (s *StartupLogger) Feature(name string, enabled bool) *StartupLogger {
	s.features[name] = enabled
	return s
}

func (s *StartupLogger) InitDuration(d time.Duration) *StartupLogger {
	s.initDuration = d
	return s
}

// Log emits the startup event at INFO.
func (s *StartupLogger) Log() {
	evt := log.Info().Dict("process", processDict(s.name))
	for _, name := range sectionOrder {
		if values := s.sections[name]; len(values) > 0 {
			d := zerolog.Dict()
			for k, v := range values {
				d.Str(k, v)
			}
			evt.Dict(name, d)
		}
	}
	if len(s.features) > 0 {
		d := zerolog.Dict()
		for k, v := range s.features {
			d.Bool(k, v)
		}
		evt.Dict("features", d)
	}
	if s.initDuration > 0 {
		evt.Dur("initDuration", s.initDuration)
	}
	evt.Msg("Startup complete")
}

func processDict(name string) *zerolog.Event {
	d := zerolog.Dict().
		Str("name", name).
		Str("goVersion", runtime.Version()).
		Str("arch", runtime.GOARCH).
		Str("logLevel", zerolog.GlobalLevel().String())
	if fn := os.Getenv("AWS_LAMBDA_FUNCTION_NAME"); fn != "" {
		d.Str("functionName", fn).
			Str("region", os.Getenv("AWS_REGION")).
			Str("memoryMB", os.Getenv("AWS_LAMBDA_FUNCTION_MEMORY_SIZE"))
	}
	return d
}

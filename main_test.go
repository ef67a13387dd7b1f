package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	para "github.com/dgnsrekt/notereader/internal/paragraph"
	"github.com/dgnsrekt/notereader/internal/settings"
	"github.com/dgnsrekt/notereader/internal/synth"
)

func TestDefaultConfigParses(t *testing.T) {
	var cfg struct {
		Engine    string `yaml:"engine"`
		QueueSize int    `yaml:"queue_size"`
		Pause     string `yaml:"pause"`
		Polly     struct {
			Voice      string `yaml:"voice"`
			SampleRate int    `yaml:"sample_rate"`
		} `yaml:"polly"`
	}
	if err := yaml.Unmarshal([]byte(defaultConfig), &cfg); err != nil {
		t.Fatalf("default config is not valid yaml: %v", err)
	}
	if cfg.Engine != synth.EnginePolly || cfg.QueueSize != 2 || cfg.Polly.SampleRate != 16000 {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if d, err := time.ParseDuration(cfg.Pause); err != nil || d != time.Second {
		t.Errorf("pause = %q", cfg.Pause)
	}
}

func TestValidateOptions(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  any
		ok   bool
	}{
		{"defaults", "", nil, true},
		{"gtts", "engine", "gtts", true},
		{"mixed case engine", "engine", " Polly ", true},
		{"unknown engine", "engine", "espeak", false},
		{"zero queue", "queue_size", 0, false},
		{"negative pause", "pause", -time.Second, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			viper.Reset()
			setDefaults()
			if tt.key != "" {
				viper.Set(tt.key, tt.val)
			}
			err := validateOptions()
			if tt.ok && err != nil {
				t.Errorf("validateOptions() error = %v", err)
			}

			if !tt.ok && err == nil {
				t.Error("expected error")
			}
		})
	}
	viper.Reset()
	setDefaults()
}

func TestValidateOptionsNormalizesEngine(t *testing.T) {
	defer func() {
		viper.Reset()
		setDefaults()
	}()
	viper.Reset()
	setDefaults()
	viper.Set("engine", " GTTS ")

	if err := validateOptions(); err != nil {
		t.Fatalf("validateOptions() error = %v", err)
	}
	if engine != synth.EngineGTTS {
		t.Errorf("engine = %q, want %q", engine, synth.EngineGTTS)
	}
}

func TestUnknownEngineError(t *testing.T) {
	viper.Reset()
	setDefaults()
	viper.Set("engine", "espeak")
	defer func() {
		viper.Reset()
		setDefaults()
	}()
	if err := validateOptions(); !errors.Is(err, synth.ErrUnknownEngine) {
		t.Errorf("validateOptions() error = %v, want ErrUnknownEngine", err)
	}
}

func TestSynthConfig(t *testing.T) {
	viper.Reset()
	setDefaults()

	st := &settings.Settings{AWS: settings.AWS{
		AccessKeyID:     "AKID",
		SecretAccessKey: "secret",
		Region:          "eu-central-1",
	}}
	cfg := synthConfig(st)
	if cfg.Polly.AccessKeyID != "AKID" || cfg.Polly.SecretAccessKey != "secret" {
		t.Errorf("credentials not taken from settings: %+v", cfg.Polly)
	}
	if cfg.Polly.Region != "eu-central-1" {
		t.Errorf("region = %s, want persisted eu-central-1", cfg.Polly.Region)
	}
	if cfg.Polly.Voice != "Zhiyu" || cfg.Polly.LanguageCode != "cmn-CN" {
		t.Errorf("polly defaults = %+v", cfg.Polly)
	}
	if cfg.GTTS.Language != "en" || cfg.GTTS.RequestsPerMinute != 50 {
		t.Errorf("gtts defaults = %+v", cfg.GTTS)
	}

	cfg = synthConfig(&settings.Settings{})
	if cfg.Polly.Region != "us-east-1" {
		t.Errorf("region = %s, want us-east-1", cfg.Polly.Region)
	}
}

func TestResolvePath(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "settings.yml")
	notesDir := filepath.Join(dir, "notes")
	if err := os.Mkdir(notesDir, 0o755); err != nil {
		t.Fatal(err)
	}

	st := &settings.Settings{}
	got, err := resolvePath([]string{notesDir}, st, file)
	if err != nil {
		t.Fatalf("resolvePath() error = %v", err)
	}
	if got != notesDir {
		t.Errorf("resolvePath() = %s, want %s", got, notesDir)
	}

	saved, err := settings.Load(file)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if saved.Path != notesDir {
		t.Errorf("persisted path = %q, want %q", saved.Path, notesDir)
	}

	got, err = resolvePath(nil, saved, file)
	if err != nil || got != notesDir {
		t.Errorf("resolvePath(nil) = %q, %v", got, err)
	}

	if _, err := resolvePath([]string{filepath.Join(dir, "missing")}, st, file); err == nil {
		t.Error("expected error for missing path")
	}
}

func TestSpeakableCount(t *testing.T) {
	ps := para.Split("![img](http://x/y.png)\n\nhello\n\n---\n\nworld\n", "note")
	if got := speakable(ps); got != 3 {
		t.Errorf("speakable() = %d, want 3 of %d", got, len(ps))
	}
}

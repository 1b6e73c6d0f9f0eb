package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type testConfig struct {
	Name  string `yaml:"name"`
	Port  int    `yaml:"port"`
	Token string `yaml:"token"`
}

func (c *testConfig) Validate() error {
	if c.Port <= 0 {
		return errors.New("port must be positive")
	}
	return nil
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_ExpandsEnv(t *testing.T) {
	t.Setenv("PERCH_TEST_TOKEN", "s3cret")
	path := writeFile(t, "name: perch\nport: 8080\ntoken: ${PERCH_TEST_TOKEN}\n")

	var cfg testConfig
	if err := Load(path, &cfg); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Name != "perch" || cfg.Port != 8080 || cfg.Token != "s3cret" {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoad_EnvDefault(t *testing.T) {
	tests := []struct {
		name string
		set  bool
		val  string
		want string
	}{
		{"unset uses default", false, "", "fallback"},
		{"empty uses default", true, "", "fallback"},
		{"set wins", true, "real", "real"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.set {
				t.Setenv("PERCH_TEST_DEFAULT", tt.val)
			} else {
				os.Unsetenv("PERCH_TEST_DEFAULT")
			}
			path := writeFile(t, "port: 1\ntoken: ${PERCH_TEST_DEFAULT:-fallback}\n")
			var cfg testConfig
			if err := Load(path, &cfg); err != nil {
				t.Fatal(err)
			}
			if cfg.Token != tt.want {
				t.Errorf("token = %q, want %q", cfg.Token, tt.want)
			}
		})
	}
}

func TestLoad_Validates(t *testing.T) {
	path := writeFile(t, "name: perch\nport: 0\n")
	var cfg testConfig
	err := Load(path, &cfg)
	if err == nil || !strings.Contains(err.Error(), "validation failed") {
		t.Errorf("err = %v", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	var cfg testConfig
	if err := Load(filepath.Join(t.TempDir(), "nope.yaml"), &cfg); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadOptional_KeepsDefaults(t *testing.T) {
	cfg := testConfig{Name: "default", Port: 9000}
	if err := LoadOptional(filepath.Join(t.TempDir(), "nope.yaml"), &cfg); err != nil {
		t.Fatalf("LoadOptional: %v", err)
	}
	if cfg.Name != "default" || cfg.Port != 9000 {
		t.Errorf("cfg = %+v", cfg)
	}

	bad := testConfig{}
	if err := LoadOptional(filepath.Join(t.TempDir(), "nope.yaml"), &bad); err == nil {
		t.Error("defaults should still be validated")
	}
}

func TestLoadOptional_OverlaysFile(t *testing.T) {
	cfg := testConfig{Name: "default", Port: 9000}
	path := writeFile(t, "port: 7000\n")
	if err := LoadOptional(path, &cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.Name != "default" || cfg.Port != 7000 {
		t.Errorf("cfg = %+v", cfg)
	}
}

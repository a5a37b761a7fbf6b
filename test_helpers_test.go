package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// configFixture points at a checked-in config under internal/config/testdata.
// Tests in package main run from the module root.
func configFixture(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join("internal", "config", "testdata", name)
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("找不到配置样例 %s: %v", name, err)
	}
	return path
}

// writeConfigFile writes content to config.toml in a fresh temp dir. Relative
// paths inside it resolve against that dir.
func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	file := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(file, []byte(strings.TrimSpace(content)), 0o600); err != nil {
		t.Fatalf("写入配置失败: %v", err)
	}
	return file
}

// writeStorageConfig writes a config whose storage root lives in a temp dir.
func writeStorageConfig(t *testing.T) string {
	t.Helper()
	return writeConfigFile(t, `
LogLevel = "error"
StorageDir = "./storage"

[[Bin]]
Name = "page"
Codec = "embedded"
DefaultTTL = "1h"

[[Bin]]
Name = "menu"
`)
}

// runCommand resets the stdout buffer and runs one CLI command.
func runCommand(cfgPath string, args ...string) int {
	stdOutBuffer().Reset()
	return run(cliOptions{configPath: cfgPath, command: args[0], args: args[1:]})
}

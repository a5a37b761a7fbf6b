package config

import (
	"os"
	"path/filepath"
	"testing"
)

func testConfigPath(name string) string {
	return filepath.Join("testdata", name)
}

// writeTempConfig stores content as config.toml in a temp dir and returns
// its path.
func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("写入临时配置失败: %v", err)
	}
	return path
}

package dbtool

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"storefront/internal/config"
)

// SwitchEnvFile points DB_PROVIDER and DB_DSN in the env file at path to
// provider. Other lines are preserved; missing keys are appended and a
// missing file is created.
func SwitchEnvFile(path, provider string) error {
	var dsnRef string
	switch provider {
	case config.ProviderPostgres:
		dsnRef = "${POSTGRES_DSN}"
	case config.ProviderSQLite:
		dsnRef = "${SQLITE_DSN}"
	default:
		return fmt.Errorf("unknown db provider %q", provider)
	}

	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("read %s: %w", path, err)
	}

	want := map[string]string{
		"DB_PROVIDER": fmt.Sprintf("%q", provider),
		"DB_DSN":      fmt.Sprintf("%q", dsnRef),
	}
	seen := map[string]bool{}

	var out []string
	sc := bufio.NewScanner(strings.NewReader(string(data)))
	for sc.Scan() {
		line := sc.Text()
		key := envKey(line)
		if v, ok := want[key]; ok {
			line = key + "=" + v
			seen[key] = true
		}
		out = append(out, line)
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("scan %s: %w", path, err)
	}
	for _, key := range []string{"DB_PROVIDER", "DB_DSN"} {
		if !seen[key] {
			out = append(out, key+"="+want[key])
		}
	}

	return os.WriteFile(path, []byte(strings.Join(out, "\n")+"\n"), 0o644)
}

func envKey(line string) string {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return ""
	}
	trimmed = strings.TrimPrefix(trimmed, "export ")
	key, _, ok := strings.Cut(trimmed, "=")
	if !ok {
		return ""
	}
	return strings.TrimSpace(key)
}

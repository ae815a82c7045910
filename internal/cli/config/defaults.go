package config

import "strings"

// ApplyTargetDefaults applies default values to a TargetConfig based on the target type.
// Network backends default to a local server with the stock administrative user.
func ApplyTargetDefaults(t *TargetConfig) {
	if t == nil {
		return
	}
	if t.Type == "" {
		t.Type = DefaultTargetType
	}
	t.Type = strings.ToLower(t.Type)

	switch t.Type {
	case "mysql":
		if t.Host == "" {
			t.Host = "localhost"
		}
		if t.Port == 0 {
			t.Port = 3306
		}
		if t.User == "" {
			t.User = "root"
		}
	case "postgres":
		if t.Host == "" {
			t.Host = "localhost"
		}
		if t.Port == 0 {
			t.Port = 5432
		}
		if t.User == "" {
			t.User = "postgres"
		}
	case "sqlite", "duckdb":
		if t.Path == "" {
			t.Path = DefaultStoreDir
		}
	}
}

// IsFileBacked reports whether stores of this backend type are local files.
func IsFileBacked(t *TargetConfig) bool {
	return t != nil && (t.Type == "sqlite" || t.Type == "duckdb")
}

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config holds the full TOML-driven translation configuration.
type Config struct {
	Schema                            string            `toml:"schema"`
	SnakeCaseIdentifiers              bool              `toml:"snake_case_identifiers"`
	ReplicateOnUpdateCurrentTimestamp bool              `toml:"replicate_on_update_current_timestamp"`
	EmitComments                      bool              `toml:"emit_comments"`
	Verify                            bool              `toml:"verify"`
	ReviewDB                          string            `toml:"review_db"` // SQLite file for findings, empty disables
	Source                            SourceConfig      `toml:"source"`
	Target                            TargetConfig      `toml:"target"`
	Hooks                             HooksConfig       `toml:"hooks"`
	TypeMapping                       TypeMappingConfig `toml:"type_mapping"`

	// configDir is the directory containing the TOML file, used to resolve relative paths.
	configDir string
}

// SourceConfig selects where MySQL DDL is read from.
type SourceConfig struct {
	Type    string `toml:"type"`    // "dir" or "mysql"
	Dir     string `toml:"dir"`     // dir: directory of dump files
	Pattern string `toml:"pattern"` // dir: glob, default "*.sql"
	DSN     string `toml:"dsn"`     // mysql: go-sql-driver DSN
}

// TargetConfig selects where the rendered document goes.
type TargetConfig struct {
	Type           string `toml:"type"` // "file", "stdout" or "postgres"
	Path           string `toml:"path"`
	DSN            string `toml:"dsn"`
	OnSchemaExists string `toml:"on_schema_exists"` // error|recreate|keep
}

type HooksConfig struct {
	BeforeTables []string `toml:"before_tables"`
	BeforeFk     []string `toml:"before_fk"`
	AfterAll     []string `toml:"after_all"`
}

// TypeMappingConfig controls non-lossless type coercions.
type TypeMappingConfig struct {
	TinyInt1AsSmallint    bool              `toml:"tinyint1_as_smallint"` // keep tinyint(1) and bool as SMALLINT
	WidenUnsignedIntegers bool              `toml:"widen_unsigned_integers"`
	DatetimeAsTimestamptz bool              `toml:"datetime_as_timestamptz"`
	JSONAsJSONB           bool              `toml:"json_as_jsonb"`
	EnumVarcharLength     int               `toml:"enum_varchar_length"`
	CollationMode         string            `toml:"collation_mode"` // none|auto
	CollationMap          map[string]string `toml:"collation_map"`  // MySQL collation → PG collation overrides
}

func defaultConfig() *Config {
	dir, err := os.Getwd()
	if err != nil {
		dir = "."
	}
	return &Config{
		Schema: "myapp",
		Source: SourceConfig{
			Type:    "dir",
			Dir:     ".",
			Pattern: "*.sql",
		},
		Target: TargetConfig{
			Type:           "stdout",
			OnSchemaExists: "error",
		},
		TypeMapping: defaultTypeMappingConfig(),
		configDir:   dir,
	}
}

func defaultTypeMappingConfig() TypeMappingConfig {
	return TypeMappingConfig{
		WidenUnsignedIntegers: false,
		DatetimeAsTimestamptz: false,
		JSONAsJSONB:           false,
		EnumVarcharLength:     191,
		CollationMode:         "none",
	}
}

// loadConfig reads a TOML config file over the defaults. The result still
// needs validate once command-line overrides are applied.
func loadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := defaultConfig()
	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if unknown := md.Undecoded(); len(unknown) > 0 {
		keys := make([]string, len(unknown))
		for i, k := range unknown {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("unknown config keys: %s", strings.Join(keys, ", "))
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}
	cfg.configDir = filepath.Dir(absPath)
	return cfg, nil
}

// validate normalizes the config and rejects inconsistent settings.
func (c *Config) validate() error {
	c.Schema = strings.TrimSpace(c.Schema)
	if c.Schema == "" {
		return fmt.Errorf("schema is required")
	}

	switch c.Source.Type {
	case "dir":
		if c.Source.Dir == "" {
			return fmt.Errorf("source.dir is required for dir sources")
		}
		if c.Source.Pattern == "" {
			c.Source.Pattern = "*.sql"
		}
		if _, err := filepath.Match(c.Source.Pattern, ""); err != nil {
			return fmt.Errorf("source.pattern: %w", err)
		}
	case "mysql":
		if c.Source.DSN == "" {
			return fmt.Errorf("source.dsn is required for mysql sources")
		}
	default:
		return fmt.Errorf("source.type must be one of: dir, mysql")
	}

	switch c.Target.Type {
	case "stdout":
	case "file":
		if c.Target.Path == "" {
			return fmt.Errorf("target.path is required for file targets")
		}
	case "postgres":
		if c.Target.DSN == "" {
			return fmt.Errorf("target.dsn is required for postgres targets")
		}
	default:
		return fmt.Errorf("target.type must be one of: file, stdout, postgres")
	}

	if c.Target.OnSchemaExists == "" {
		c.Target.OnSchemaExists = "error"
	}
	switch c.Target.OnSchemaExists {
	case "error", "recreate", "keep":
	default:
		return fmt.Errorf("target.on_schema_exists must be one of: error, recreate, keep")
	}

	switch c.TypeMapping.CollationMode {
	case "none", "auto":
	default:
		return fmt.Errorf("type_mapping.collation_mode must be one of: none, auto")
	}
	if c.TypeMapping.EnumVarcharLength <= 0 {
		return fmt.Errorf("type_mapping.enum_varchar_length must be positive")
	}
	return nil
}

// resolvePath resolves a path relative to the config file directory.
func (c *Config) resolvePath(p string) string {
	if filepath.IsAbs(p) || p == "" {
		return p
	}
	return filepath.Join(c.configDir, p)
}

func (c *Config) documentOptions(hooks renderHooks) DocumentOptions {
	return DocumentOptions{
		Schema:            c.Schema,
		SnakeCase:         c.SnakeCaseIdentifiers,
		TypeMap:           c.TypeMapping,
		ReplicateOnUpdate: c.ReplicateOnUpdateCurrentTimestamp,
		EmitComments:      c.EmitComments,
		Hooks:             hooks,
	}
}

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// LocalConfigFile is checked in the working directory before DefaultConfigPath.
const LocalConfigFile = ".instadash.yaml"

// Loaded is the effective configuration and where it came from.
type Loaded struct {
	Config Config
	// File is the config file read, or "" when only defaults and env applied.
	File string
}

// Load builds the effective configuration. Sources, lowest precedence first:
// Defaults, the config file, .env in envDir, then INSTADASH_* variables. An
// explicit path must exist; otherwise ./.instadash.yaml and DefaultConfigPath
// are tried in order.
func Load(path, envDir string) (Loaded, error) {
	if err := loadDotEnv(filepath.Join(envDir, ".env")); err != nil {
		return Loaded{}, err
	}

	v := viper.New()
	setDefaults(v, Defaults())
	v.SetEnvPrefix(strings.ToUpper(AppName))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	file, err := resolveConfigFile(path)
	if err != nil {
		return Loaded{}, err
	}
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Loaded{}, fmt.Errorf("reading config %s: %w", file, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Loaded{}, fmt.Errorf("decoding config: %w", err)
	}
	cfg.Theme.Colors = flattenColors(v.GetStringMap("theme.colors"))
	cfg.History.Path = expandHome(cfg.History.Path)
	cfg.Log.Path = expandHome(cfg.Log.Path)
	cfg.Ingest.SchemaPath = expandHome(cfg.Ingest.SchemaPath)
	cfg.Export.DownloadDir = expandHome(cfg.Export.DownloadDir)

	if err := cfg.Validate(); err != nil {
		return Loaded{}, fmt.Errorf("invalid config: %w", err)
	}
	return Loaded{Config: cfg, File: file}, nil
}

// YAML renders c the way a config file would hold it.
func (c Config) YAML() (string, error) {
	out, err := yaml.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("encoding config: %w", err)
	}
	return string(out), nil
}

func resolveConfigFile(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file: %w", err)
		}
		return explicit, nil
	}
	for _, candidate := range []string{LocalConfigFile, DefaultConfigPath()} {
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", nil
}

func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("loading %s: %w", path, err)
}

// setDefaults registers every key so AutomaticEnv can override keys that
// no config file mentions.
func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("service.endpoint", d.Service.Endpoint)
	v.SetDefault("service.timeout", d.Service.Timeout)
	v.SetDefault("service.health_path", d.Service.HealthPath)
	v.SetDefault("ingest.max_file_size", d.Ingest.MaxFileSize)
	v.SetDefault("ingest.watch", d.Ingest.Watch)
	v.SetDefault("ingest.schema_path", d.Ingest.SchemaPath)
	v.SetDefault("preview.addr", d.Preview.Addr)
	v.SetDefault("preview.open_browser", d.Preview.OpenBrowser)
	v.SetDefault("export.download_dir", d.Export.DownloadDir)
	v.SetDefault("history.enabled", d.History.Enabled)
	v.SetDefault("history.path", d.History.Path)
	v.SetDefault("tracing.enabled", d.Tracing.Enabled)
	v.SetDefault("tracing.exporter", d.Tracing.Exporter)
	v.SetDefault("tracing.endpoint", d.Tracing.Endpoint)
	v.SetDefault("log.path", d.Log.Path)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("defaults.temperature", d.Defaults.Temperature)
	v.SetDefault("defaults.prompt", d.Defaults.Prompt)
	v.SetDefault("theme.preset", d.Theme.Preset)
	v.SetDefault("theme.mode", d.Theme.Mode)
}

// flattenColors joins nested keys with dots. Viper splits "text.primary"
// into {text: {primary: ...}} on read.
func flattenColors(raw map[string]any) map[string]string {
	if len(raw) == 0 {
		return nil
	}
	out := make(map[string]string)
	var walk func(prefix string, m map[string]any)
	walk = func(prefix string, m map[string]any) {
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			name := k
			if prefix != "" {
				name = prefix + "." + k
			}
			switch val := m[k].(type) {
			case map[string]any:
				walk(name, val)
			case string:
				out[name] = val
			default:
				out[name] = fmt.Sprint(val)
			}
		}
	}
	walk("", raw)
	return out
}

func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}

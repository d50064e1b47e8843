package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config carries the runtime settings shared by the HTTP server and the
// CLI. Values come from, in increasing priority: built-in defaults, an
// optional registrar.yaml, and REGISTRAR_* environment variables.
type Config struct {
	// ListenAddr is the address the HTTP server binds to.
	ListenAddr string

	// TempDir receives uploaded files while they are being processed.
	TempDir string

	// OutputDir receives cleaned documents written by the server.
	OutputDir string

	// DataDir holds persistent state, including the history database
	// when DBPath is not set explicitly.
	DataDir string

	// DBPath is the SQLite file recording processing history.
	DBPath string

	// RulesFile optionally points to a YAML file of normalization
	// rules that replace the built-in set.
	RulesFile string

	// MaxUploadBytes caps the size of a single uploaded document.
	MaxUploadBytes int64
}

// Load reads configuration from the default search locations:
// ./registrar.yaml, then ~/.config/registrar/registrar.yaml. A .env
// file in the working directory is loaded first so local overrides
// reach the environment lookup.
func Load() (Config, error) {
	return LoadFile("")
}

// LoadFile is Load with an explicit config file path. An empty path
// falls back to the search locations; a non-empty path must exist.
func LoadFile(cfgFile string) (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("registrar")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "registrar"))
		}
	}

	v.SetEnvPrefix("REGISTRAR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("listen_addr", ":5001")
	v.SetDefault("temp_dir", filepath.Join(os.TempDir(), "registrar"))
	v.SetDefault("output_dir", "out")
	v.SetDefault("data_dir", "data")
	v.SetDefault("db_path", "")
	v.SetDefault("rules_file", "")
	v.SetDefault("max_upload_bytes", int64(16<<20))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("reading config: %w", err)
		}
	}

	cfg := Config{
		ListenAddr:     v.GetString("listen_addr"),
		TempDir:        v.GetString("temp_dir"),
		OutputDir:      v.GetString("output_dir"),
		DataDir:        v.GetString("data_dir"),
		DBPath:         v.GetString("db_path"),
		RulesFile:      v.GetString("rules_file"),
		MaxUploadBytes: v.GetInt64("max_upload_bytes"),
	}
	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join(cfg.DataDir, "registrar.db")
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 16 << 20
	}
	return cfg, nil
}

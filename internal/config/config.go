package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/quantmind-br/pydeb/internal/helpers"
)

// Config represents the application configuration
type Config struct {
	Paths   PathsConfig   `mapstructure:"paths"`
	Build   BuildConfig   `mapstructure:"build"`
	Tools   ToolsConfig   `mapstructure:"tools"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// PathsConfig contains path-related configuration
type PathsConfig struct {
	DistDir string `mapstructure:"dist_dir"`
	DBFile  string `mapstructure:"db_file"`
	LogFile string `mapstructure:"log_file"`
}

// BuildConfig holds the defaults applied to every source package build
type BuildConfig struct {
	DefaultDistribution             string `mapstructure:"default_distribution"`
	DefaultMaintainer               string `mapstructure:"default_maintainer"`
	DefaultPythonVersion            string `mapstructure:"default_python_version"`
	Workaround548392                bool   `mapstructure:"workaround_548392"`
	PycentralBackwardsCompatibility bool   `mapstructure:"pycentral_backwards_compatibility"`
	PatchPosix                      bool   `mapstructure:"patch_posix"`
	RemoveExpandedSourceDir         bool   `mapstructure:"remove_expanded_source_dir"`
	IgnoreInstallRequires           bool   `mapstructure:"ignore_install_requires"`
}

// ToolsConfig names the external executables
type ToolsConfig struct {
	AptFile    string `mapstructure:"apt_file"`
	DpkgSource string `mapstructure:"dpkg_source"`
	DpkgQuery  string `mapstructure:"dpkg_query"`
	Patch      string `mapstructure:"patch"`
	Pyversions string `mapstructure:"pyversions"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level string `mapstructure:"level"`
	Color string `mapstructure:"color"`
}

// Load loads configuration from file and environment. An explicit configFile
// must exist; otherwise config.toml is searched in ~/.config/pydeb and ".".
func Load(configFile string) (*Config, error) {
	v := viper.New()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("toml")

		homeDir, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(homeDir, ".config", "pydeb"))
		}
		v.AddConfigPath(".")
	}

	setDefaults(v)

	// Environment variable overrides
	v.SetEnvPrefix("PYDEB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		// Config file not found - use defaults
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.Paths.DistDir = expandPath(cfg.Paths.DistDir)
	cfg.Paths.DBFile = expandPath(cfg.Paths.DBFile)
	cfg.Paths.LogFile = expandPath(cfg.Paths.LogFile)

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	homeDir, err := os.UserHomeDir()
	if err != nil || homeDir == "" {
		homeDir = os.Getenv("HOME")
	}
	if homeDir == "" {
		homeDir = "."
	}
	dataDir := filepath.Join(homeDir, ".local", "share", "pydeb")

	v.SetDefault("paths.dist_dir", "deb_dist")
	v.SetDefault("paths.db_file", filepath.Join(dataDir, "builds.db"))
	v.SetDefault("paths.log_file", filepath.Join(dataDir, "pydeb.log"))

	v.SetDefault("build.default_distribution", "unstable")
	v.SetDefault("build.default_maintainer", "")
	v.SetDefault("build.default_python_version", "")
	v.SetDefault("build.workaround_548392", true)
	v.SetDefault("build.pycentral_backwards_compatibility", true)
	v.SetDefault("build.patch_posix", false)
	v.SetDefault("build.remove_expanded_source_dir", false)
	v.SetDefault("build.ignore_install_requires", false)

	v.SetDefault("tools.apt_file", "apt-file")
	v.SetDefault("tools.dpkg_source", "dpkg-source")
	v.SetDefault("tools.dpkg_query", "dpkg-query")
	v.SetDefault("tools.patch", "patch")
	v.SetDefault("tools.pyversions", "pyversions")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.color", "auto")
}

// expandPath expands ~ and environment variables in paths
func expandPath(path string) string {
	if path == "" {
		return path
	}

	return os.ExpandEnv(helpers.ExpandHome(path))
}

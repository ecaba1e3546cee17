package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/kbukum/flowc/errors"
)

// ServiceName names the config and env files searched for.
const ServiceName = "flowc"

// EnvPrefix prefixes every environment variable read into the configuration.
const EnvPrefix = "FLOWC_"

// FileSystem abstracts file lookups for the resolver.
type FileSystem interface {
	Exists(path string) bool
	LoadEnv(path string) error
	UserConfigDir() (string, error)
}

// RealFileSystem implements FileSystem using actual file operations.
type RealFileSystem struct{}

func (rfs *RealFileSystem) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (rfs *RealFileSystem) LoadEnv(path string) error {
	return godotenv.Load(path)
}

func (rfs *RealFileSystem) UserConfigDir() (string, error) {
	return os.UserConfigDir()
}

// Resolver finds config and env files.
type Resolver struct {
	FileSystem FileSystem
}

// ResolvedFiles contains the resolved config and env file paths.
type ResolvedFiles struct {
	ConfigFile string
	EnvFile    string
}

// ResolveFiles returns explicit paths when given and searches otherwise.
func (r *Resolver) ResolveFiles(name string, opts LoaderConfig) ResolvedFiles {
	resolved := ResolvedFiles{
		ConfigFile: opts.ConfigFile,
		EnvFile:    opts.EnvFile,
	}
	if resolved.ConfigFile == "" {
		resolved.ConfigFile = r.first(r.configPaths(name))
	}
	if resolved.EnvFile == "" {
		resolved.EnvFile = r.first([]string{
			"./.env." + name,
			"./.env",
			"./config/.env",
		})
	}
	return resolved
}

func (r *Resolver) configPaths(name string) []string {
	paths := []string{
		"./" + name + ".yml",
		"./" + name + ".yaml",
		"./config/" + name + ".yml",
		"./config.yml",
	}
	if dir, err := r.FileSystem.UserConfigDir(); err == nil && dir != "" {
		paths = append(paths, filepath.Join(dir, name, "config.yml"))
	}
	return paths
}

func (r *Resolver) first(paths []string) string {
	for _, p := range paths {
		if r.FileSystem.Exists(p) {
			return p
		}
	}
	return ""
}

// LoaderConfig holds dependencies and optional file overrides.
type LoaderConfig struct {
	FileSystem FileSystem
	ConfigFile string // Direct config file path (optional)
	EnvFile    string // Direct env file path (optional)
}

// LoaderOption is a functional option for LoadConfig.
type LoaderOption func(*LoaderConfig)

// WithFileSystem sets a custom filesystem for the loader.
func WithFileSystem(fs FileSystem) LoaderOption {
	return func(lc *LoaderConfig) { lc.FileSystem = fs }
}

// WithConfigFile sets an explicit config file path.
func WithConfigFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.ConfigFile = path }
}

// WithEnvFile sets an explicit .env file path.
func WithEnvFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.EnvFile = path }
}

// Load reads the flowc configuration, applies defaults and validates it.
func Load(opts ...LoaderOption) (*Config, error) {
	var cfg Config
	if err := LoadConfig(ServiceName, &cfg, opts...); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadConfig unmarshals the config file, the .env file and FLOWC_
// environment variables into cfg, later sources overriding earlier ones.
// A config file that does not exist is skipped; one that does not parse is
// an error.
func LoadConfig(name string, cfg any, opts ...LoaderOption) error {
	var lc LoaderConfig
	for _, opt := range opts {
		opt(&lc)
	}
	if lc.FileSystem == nil {
		lc.FileSystem = &RealFileSystem{}
	}

	resolver := &Resolver{FileSystem: lc.FileSystem}
	files := resolver.ResolveFiles(name, lc)
	return loadFromResolvedFiles(cfg, files, lc.FileSystem)
}

func loadFromResolvedFiles(cfg any, files ResolvedFiles, fs FileSystem) error {
	v := viper.New()

	if files.ConfigFile != "" && fs.Exists(files.ConfigFile) {
		v.SetConfigFile(files.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return errors.InvalidInput("config", "cannot read "+files.ConfigFile).WithCause(err)
		}
	}

	if files.EnvFile != "" && fs.Exists(files.EnvFile) {
		if err := fs.LoadEnv(files.EnvFile); err != nil {
			return errors.InvalidInput("config", "cannot load "+files.EnvFile).WithCause(err)
		}
	}
	bindEnv(v, os.Environ())

	if err := v.Unmarshal(cfg); err != nil {
		return errors.InvalidInput("config", "cannot decode configuration").WithCause(err)
	}
	return nil
}

// bindEnv sets every FLOWC_ variable under each nested key it may name.
func bindEnv(v *viper.Viper, environ []string) {
	for _, env := range environ {
		key, value, ok := strings.Cut(env, "=")
		if !ok {
			continue
		}
		rest, ok := strings.CutPrefix(key, EnvPrefix)
		if !ok || rest == "" {
			continue
		}
		for _, variant := range envKeyVariants(rest) {
			v.Set(variant, value)
		}
	}
}

// envKeyVariants lists the keys an env name may stand for, since "_" both
// separates sections and appears inside key names:
//
//	COMPILER_DEFAULT_TARGET -> [compiler_default_target, compiler.default.target,
//	                            compiler.default_target, compiler_default.target]
func envKeyVariants(envKey string) []string {
	lower := strings.ToLower(envKey)
	parts := strings.Split(lower, "_")
	if len(parts) <= 1 {
		return []string{lower}
	}

	variants := []string{lower, strings.Join(parts, ".")}
	for i := 1; i < len(parts); i++ {
		variants = append(variants,
			strings.Join(parts[:i], ".")+"."+strings.Join(parts[i:], "_"),
			strings.Join(parts[:i], "_")+"."+strings.Join(parts[i:], "."),
		)
	}
	return removeDuplicates(variants)
}

func removeDuplicates(items []string) []string {
	seen := make(map[string]bool, len(items))
	result := make([]string, 0, len(items))
	for _, item := range items {
		if !seen[item] {
			seen[item] = true
			result = append(result, item)
		}
	}
	return result
}

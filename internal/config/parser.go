package config

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// Load reads, parses, expands and validates the config file at path.
// Warnings are returned alongside a usable config; errors fail the load.
func Load(path string) (*Config, *ValidationResult, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	cfg, err := NewLuaConfigParser().Parse(path, content)
	if err != nil {
		return nil, nil, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, nil, err
	}
	cfg.Dir = filepath.Dir(abs)
	if cfg.Scene == "" {
		cfg.Scene = abs
	}
	return finish(cfg)
}

// LoadFromFS parses a config from an embedded filesystem. The scene key
// names a file in fsys; image and font paths resolve against the working
// directory.
func LoadFromFS(fsys fs.FS, path string) (*Config, *ValidationResult, error) {
	content, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read config from FS %s: %w", path, err)
	}
	cfg, err := NewLuaConfigParser().Parse(path, content)
	if err != nil {
		return nil, nil, err
	}
	// The scene lives in fsys, not on disk.
	scene := cfg.Scene
	cfg.Scene = ""
	cfg, result, err := finish(cfg)
	if scene != "" {
		if result == nil {
			result = &ValidationResult{}
		}
		if _, serr := fs.Stat(fsys, scene); serr != nil {
			result.AddError("scene", fmt.Sprintf("cannot read %s: %v", scene, serr))
			return nil, result, result.Error()
		}
	}
	if cfg != nil {
		cfg.Scene = scene
	}
	return cfg, result, err
}

// ParseReader parses a config from r without validating referenced files.
func ParseReader(name string, r io.Reader) (*Config, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	cfg, err := NewLuaConfigParser().Parse(name, content)
	if err != nil {
		return nil, err
	}
	ExpandEnvConfig(cfg)
	return cfg, nil
}

func finish(cfg *Config) (*Config, *ValidationResult, error) {
	ExpandEnvConfig(cfg)
	result := cfg.Validate()
	if err := result.Error(); err != nil {
		return nil, result, err
	}
	return cfg, result, nil
}

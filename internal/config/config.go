// Package config loads the optional .installiso.yaml defaults file. The
// file seeds the argument resolver's defaults; flags always win.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/varden/installiso/internal/cli"
)

// FileName is looked up in the current working directory.
const FileName = ".installiso.yaml"

// File carries site-wide defaults applied before flag parsing.
type File struct {
	Label    string `yaml:"label" default:"Android-x86" validate:"required,max=32"`
	Cmdline  string `yaml:"cmdline"`
	SystemFS string `yaml:"system_fs" default:"erofs" validate:"oneof=erofs squashfs"`
}

// Load reads the defaults file at path. A missing file is not an error and
// yields the built-in defaults; an unreadable, malformed, or invalid file is.
func Load(path string) (*File, error) {
	cfg := &File{}
	if err := defaults.Set(cfg); err != nil {
		return nil, fmt.Errorf("apply built-in defaults: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read defaults file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse defaults file %s: %w", path, err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid defaults file %s: %w", path, err)
	}
	return cfg, nil
}

// Options maps the file onto resolver defaults.
func (f *File) Options() cli.Options {
	opts := cli.Defaults()
	opts.Label = f.Label
	opts.Cmdline = f.Cmdline
	opts.SystemFS = cli.SystemFS(f.SystemFS)
	return opts
}

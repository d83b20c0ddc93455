// Package config loads plugin options from TOML, YAML or JSON files.
//
// Keys use the same camelCase names as the plugin options:
//
//	threshold = 150
//	maxPrefetch = 2
//	automaticPrefetch = true
//
// Unknown keys are rejected so a typo never silently falls back to a default.
package config

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/proxprefetch/pkg/errors"
	"github.com/matzehuels/proxprefetch/pkg/inject"
)

// BaseName is the file name, without extension, searched for by [Find].
const BaseName = "proxprefetch"

// Extensions lists the supported file extensions in [Find] order.
var Extensions = []string{".toml", ".yaml", ".yml", ".json"}

// Load reads and decodes the options file at path. The format is chosen by
// extension.
func Load(path string) (inject.Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return inject.Options{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "config file %s", path)
		}
		return inject.Options{}, errors.Wrap(errors.ErrCodeInvalidPath, err, "read config file %s", path)
	}
	return Decode(filepath.Ext(path), data)
}

// Decode decodes data in the format named by ext (".toml", ".yaml", ".yml"
// or ".json"). An empty document yields zero Options.
func Decode(ext string, data []byte) (inject.Options, error) {
	var opts inject.Options
	switch strings.ToLower(ext) {
	case ".toml":
		md, err := toml.Decode(string(data), &opts)
		if err != nil {
			return inject.Options{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode toml")
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return inject.Options{}, errors.New(errors.ErrCodeInvalidFormat, "unknown option %q", undecoded[0].String())
		}
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&opts); err != nil && err != io.EOF {
			return inject.Options{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode yaml")
		}
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&opts); err != nil && err != io.EOF {
			return inject.Options{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode json")
		}
	default:
		return inject.Options{}, errors.New(errors.ErrCodeInvalidFormat, "unsupported config format %q", ext)
	}
	return opts, nil
}

// Find returns the first proxprefetch.{toml,yaml,yml,json} in dir, or ""
// when there is none.
func Find(dir string) string {
	for _, ext := range Extensions {
		p := filepath.Join(dir, BaseName+ext)
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p
		}
	}
	return ""
}

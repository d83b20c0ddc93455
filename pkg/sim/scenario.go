package sim

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
	"github.com/matzehuels/proxprefetch/pkg/geom"
	"github.com/matzehuels/proxprefetch/pkg/prefetch"
)

// Scenario is a page layout plus a timed input trace.
//
//	name = "nav hover"
//
//	[options]
//	threshold = 200
//
//	[[links]]
//	href = "/about"
//	rect = { left = 400, top = 295, width = 40, height = 10 }
//
//	[[steps]]
//	at = 0
//	pointer = { x = 300, y = 300 }
type Scenario struct {
	Name    string           `json:"name,omitempty" toml:"name,omitempty" yaml:"name,omitempty"`
	Options prefetch.Options `json:"options" toml:"options" yaml:"options"`
	Links   []Link           `json:"links" toml:"links" yaml:"links"`
	Steps   []Step           `json:"steps" toml:"steps" yaml:"steps"`

	// Until is the simulated run length in milliseconds. Zero derives it
	// from the last scheduled input.
	Until int `json:"until,omitempty" toml:"until,omitempty" yaml:"until,omitempty"`
}

// Link is an anchor on the simulated page.
type Link struct {
	Href string    `json:"href" toml:"href" yaml:"href"`
	Rect geom.Rect `json:"rect" toml:"rect" yaml:"rect"`

	// Broken makes inserting a hint for this link fail.
	Broken bool `json:"broken,omitempty" toml:"broken,omitempty" yaml:"broken,omitempty"`
}

// Step is one input at a point in time. Exactly one of Pointer and Viewport
// is set.
type Step struct {
	At       int         `json:"at" toml:"at" yaml:"at"` // milliseconds after ready
	Pointer  *geom.Point `json:"pointer,omitempty" toml:"pointer,omitempty" yaml:"pointer,omitempty"`
	Viewport *geom.Rect  `json:"viewport,omitempty" toml:"viewport,omitempty" yaml:"viewport,omitempty"`
}

// Validate checks the trace. Options are validated when the run resolves
// them.
func (s *Scenario) Validate() error {
	for i, st := range s.Steps {
		if st.At < 0 {
			return errors.New(errors.ErrCodeInvalidInput, "step %d: at must be >= 0, got %d", i, st.At)
		}
		if (st.Pointer == nil) == (st.Viewport == nil) {
			return errors.New(errors.ErrCodeInvalidInput, "step %d: exactly one of pointer and viewport must be set", i)
		}
	}
	if s.Until < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "until must be >= 0, got %d", s.Until)
	}
	return nil
}

// LoadScenario reads a scenario file. The format follows the extension:
// .toml, .yaml, .yml or .json.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "scenario %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "read scenario %s", path)
	}
	s, err := DecodeScenario(filepath.Ext(path), data)
	if err != nil {
		return nil, err
	}
	if s.Name == "" {
		s.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return s, nil
}

// DecodeScenario decodes and validates a scenario in the format named by ext.
func DecodeScenario(ext string, data []byte) (*Scenario, error) {
	var s Scenario
	switch strings.ToLower(ext) {
	case ".toml":
		md, err := toml.Decode(string(data), &s)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode toml scenario")
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, errors.New(errors.ErrCodeInvalidFormat, "unknown scenario key %q", undecoded[0].String())
		}
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&s); err != nil && err != io.EOF {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode yaml scenario")
		}
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&s); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode json scenario")
		}
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unsupported scenario format %q", ext)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

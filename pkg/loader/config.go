package loader

import (
	"bytes"
	"io"
	"os"

	"github.com/go-kit/log"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Alignment selects how page alignment of Load segments is checked.
type Alignment string

const (
	// AlignStrict rejects a segment whose address or file offset is not a
	// multiple of the page size before any memory is reserved.
	AlignStrict Alignment = "strict"
	// AlignHost leaves the check to the mapping call.
	AlignHost Alignment = "host"
)

// Config controls a Loader.
type Config struct {
	Alignment Alignment `yaml:"alignment"`
	// PageSize overrides the host page size used by AlignStrict.
	PageSize uint64 `yaml:"page_size"`
	// Verify re-reads /proc/self/maps after each protection change.
	Verify bool `yaml:"verify"`

	Logger log.Logger `yaml:"-"`
}

// DefaultConfig returns strict alignment, the host page size and no
// verification.
func DefaultConfig() Config {
	return Config{
		Alignment: AlignStrict,
		PageSize:  uint64(os.Getpagesize()),
		Logger:    log.NewNopLogger(),
	}
}

// Validate checks the policy and page size.
func (c *Config) Validate() error {
	switch c.Alignment {
	case AlignStrict, AlignHost:
	default:
		return errors.Errorf("invalid alignment policy %q (expected %q or %q)", c.Alignment, AlignStrict, AlignHost)
	}
	if c.PageSize == 0 || c.PageSize&(c.PageSize-1) != 0 {
		return errors.Errorf("invalid page size %#x", c.PageSize)
	}
	return nil
}

// LoadConfig reads a YAML file on top of DefaultConfig. Unknown keys are
// rejected.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrap(err, "failed to read loader config")
	}
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, errors.Wrapf(err, "failed to parse %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, errors.Wrapf(err, "invalid config %s", path)
	}
	return cfg, nil
}

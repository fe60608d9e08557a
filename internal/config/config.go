package config

import (
	"os"
	"path/filepath"

	"github.com/inhies/go-bytesize"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"inkview/pkg/render"
)

// EmulateConfig selects the virtual screen instead of a framebuffer.
type EmulateConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
	// SnapshotDir receives a PNG per refresh. Empty disables snapshots.
	SnapshotDir string `yaml:"snapshot_dir"`
}

type Config struct {
	// Device is the framebuffer node.
	Device string `yaml:"device"`
	// Emulate, if set, replaces Device by a virtual screen.
	Emulate *EmulateConfig `yaml:"emulate,omitempty"`
	// Remote, if set, draws on a screen served by inkserve at this address.
	Remote string `yaml:"remote,omitempty"`
	// Listen is the remote screen server address.
	Listen string `yaml:"listen"`

	Zoom     float64 `yaml:"zoom"`
	Gamma    float64 `yaml:"gamma"`
	Rotation int     `yaml:"rotation"`

	// MemoryBudget caps scratch memory, e.g. "64MB". Empty means unlimited.
	MemoryBudget string `yaml:"memory_budget"`

	Font     string  `yaml:"font,omitempty"`
	FontSize float64 `yaml:"font_size"`

	Debug bool `yaml:"debug"`
}

func DefaultConfig() *Config {
	return &Config{
		Device:       "/dev/fb0",
		Listen:       ":9123",
		Zoom:         render.DefaultZoom,
		Gamma:        render.NoGamma,
		MemoryBudget: "64MB",
		FontSize:     16,
	}
}

// Normalize fills in zero values left by partial files.
func (c *Config) Normalize() {
	if c.Device == "" {
		c.Device = "/dev/fb0"
	}
	if c.Listen == "" {
		c.Listen = ":9123"
	}
	if c.Zoom <= 0 {
		c.Zoom = render.DefaultZoom
	}
	if c.FontSize <= 0 {
		c.FontSize = 16
	}
	if c.Emulate != nil {
		if c.Emulate.Width <= 0 {
			c.Emulate.Width = 600
		}
		if c.Emulate.Height <= 0 {
			c.Emulate.Height = 800
		}
	}
}

// Budget parses MemoryBudget; zero means unlimited.
func (c *Config) Budget() (bytesize.ByteSize, error) {
	if c.MemoryBudget == "" {
		return 0, nil
	}
	b, err := bytesize.Parse(c.MemoryBudget)
	return b, errors.Wrapf(err, "memory_budget %q", c.MemoryBudget)
}

// Params returns the initial render parameters.
func (c *Config) Params() (render.Params, error) {
	p := render.NewParams()
	rot, err := render.ParseRotation(c.Rotation)
	if err != nil {
		return p, err
	}
	if err := p.SetRotation(rot); err != nil {
		return p, err
	}
	if err := p.SetZoom(c.Zoom); err != nil {
		return p, err
	}
	p.SetGamma(c.Gamma)
	return p, nil
}

// Load reads path. A missing file is created with the defaults.
func Load(fs afero.Fs, path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := afero.ReadFile(fs, path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := DefaultConfig()
			return cfg, Save(fs, path, cfg)
		}
		return nil, err
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(err, path)
	}
	cfg.Normalize()
	return cfg, nil
}

// Save writes cfg atomically with 0600 permissions.
func Save(fs afero.Fs, path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}
	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := fs.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := afero.TempFile(fs, dir, ".inkview-config-*.tmp")
	if err != nil {
		return err
	}
	name := tmp.Name()
	defer fs.Remove(name)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := fs.Chmod(name, 0o600); err != nil {
		return err
	}
	return fs.Rename(name, path)
}

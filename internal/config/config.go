// Package config resolves plugin settings from an optional YAML file
// overridden by the munin plugin environment.
package config

import (
	"os"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// Config carries every tunable of the plugin collection. Tool names
// without a slash are resolved via PATH at probe time.
type Config struct {
	CcissGlob  string `yaml:"ccissGlob"`
	CcissTool  string `yaml:"ccissVolStatus"`
	MptTool    string `yaml:"mptStatus"`
	MdstatPath string `yaml:"mdstat"`
	MountsPath string `yaml:"mounts"`
	BtrfsTool  string `yaml:"btrfs"`
	Chronyc    string `yaml:"chronyc"`

	// DirtyConfig makes config mode also emit values, per munin's
	// dirtyconfig capability. Set from MUNIN_CAP_DIRTYCONFIG.
	DirtyConfig bool `yaml:"-"`

	LogLevel zerolog.Level `yaml:"-"`
}

func Defaults() Config {
	return Config{
		CcissGlob:  "/dev/cciss/c*d0",
		CcissTool:  "cciss_vol_status",
		MptTool:    "mpt-status",
		MdstatPath: "/proc/mdstat",
		MountsPath: "/proc/mounts",
		BtrfsTool:  "btrfs",
		Chronyc:    "chronyc",
		LogLevel:   zerolog.WarnLevel,
	}
}

// Load reads path (if present) over the defaults, then applies the
// environment on top. A missing or unreadable file is not an error;
// plugins must keep working on a bare node.
func Load(path string) Config {
	cfg := Defaults()

	if path != "" {
		if data, err := os.ReadFile(path); err == nil {
			var file struct {
				CcissGlob  string `yaml:"ccissGlob"`
				CcissTool  string `yaml:"ccissVolStatus"`
				MptTool    string `yaml:"mptStatus"`
				MdstatPath string `yaml:"mdstat"`
				MountsPath string `yaml:"mounts"`
				BtrfsTool  string `yaml:"btrfs"`
				Chronyc    string `yaml:"chronyc"`
				LogLevel   string `yaml:"logLevel"`
			}
			if yaml.Unmarshal(data, &file) == nil {
				setIf(&cfg.CcissGlob, file.CcissGlob)
				setIf(&cfg.CcissTool, file.CcissTool)
				setIf(&cfg.MptTool, file.MptTool)
				setIf(&cfg.MdstatPath, file.MdstatPath)
				setIf(&cfg.MountsPath, file.MountsPath)
				setIf(&cfg.BtrfsTool, file.BtrfsTool)
				setIf(&cfg.Chronyc, file.Chronyc)
				if l, err := zerolog.ParseLevel(file.LogLevel); err == nil && file.LogLevel != "" {
					cfg.LogLevel = l
				}
			}
		}
	}

	// Env wins over the file. Names follow munin's env.* convention
	// with a MUNIN_ prefix.
	setIf(&cfg.CcissGlob, os.Getenv("MUNIN_CCISS_GLOB"))
	setIf(&cfg.CcissTool, os.Getenv("MUNIN_CCISS_VOL_STATUS"))
	setIf(&cfg.MptTool, os.Getenv("MUNIN_MPT_STATUS"))
	setIf(&cfg.MdstatPath, os.Getenv("MUNIN_MDSTAT"))
	setIf(&cfg.MountsPath, os.Getenv("MUNIN_MOUNTS"))
	setIf(&cfg.BtrfsTool, os.Getenv("MUNIN_BTRFS"))
	setIf(&cfg.Chronyc, os.Getenv("MUNIN_CHRONYC"))

	if v := os.Getenv("MUNIN_CAP_DIRTYCONFIG"); v == "1" {
		cfg.DirtyConfig = true
	}
	if v := os.Getenv("MUNIN_DEBUG"); v != "" {
		if l, err := zerolog.ParseLevel(v); err == nil {
			cfg.LogLevel = l
		} else if v == "1" {
			cfg.LogLevel = zerolog.DebugLevel
		}
	}

	return cfg
}

func setIf(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

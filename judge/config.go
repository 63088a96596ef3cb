package judge

import (
	"fmt"

	"github.com/hashicorp/hcl"
	"github.com/hashicorp/nomad/plugins/shared/hclspec"

	"github.com/piston-judge/piston-core/judge/errkind"
)

// ConfigSpec is the declarative shape of Config, defined the same way the
// teacher driver declares its own configSpec/taskConfigSpec — as an
// hclspec.Spec — so the schema is introspectable and testable even though
// decoding itself goes through plain HCL (see config.go doc on LoadConfig).
var ConfigSpec = hclspec.NewObject(map[string]*hclspec.Spec{
	"data_directory": hclspec.NewAttr("data_directory", "string", true),
	"runner_uid_min": hclspec.NewAttr("runner_uid_min", "number", true),
	"runner_uid_max": hclspec.NewAttr("runner_uid_max", "number", true),
	"runner_gid_min": hclspec.NewAttr("runner_gid_min", "number", true),
	"runner_gid_max": hclspec.NewAttr("runner_gid_max", "number", true),
	"max_process_count": hclspec.NewDefault(
		hclspec.NewAttr("max_process_count", "number", false),
		hclspec.NewLiteral("64"),
	),
	"max_open_files": hclspec.NewDefault(
		hclspec.NewAttr("max_open_files", "number", false),
		hclspec.NewLiteral("2048"),
	),
	"output_max_size": hclspec.NewDefault(
		hclspec.NewAttr("output_max_size", "number", false),
		hclspec.NewLiteral("1024000"),
	),
	"disable_networking": hclspec.NewDefault(
		hclspec.NewAttr("disable_networking", "bool", false),
		hclspec.NewLiteral("false"),
	),
	"log_level": hclspec.NewDefault(
		hclspec.NewAttr("log_level", "string", false),
		hclspec.NewLiteral("\"info\""),
	),
	"bind_address": hclspec.NewDefault(
		hclspec.NewAttr("bind_address", "string", false),
		hclspec.NewLiteral("\"127.0.0.1:2000\""),
	),
})

// ConfigSchema returns the declarative schema of Config. This is the same
// accessor role the teacher's Driver.ConfigSchema() plays for its own
// configSpec over the plugin's ConfigSchema RPC — here there's no RPC
// boundary to serve it over, so pistond's "-config-schema" mode calls it
// directly to print the expected shape instead of reading a job off stdin.
func ConfigSchema() *hclspec.Spec {
	return ConfigSpec
}

// Config is the enumerated configuration surface of spec §6.
type Config struct {
	DataDirectory     string `hcl:"data_directory"`
	RunnerUIDMin      int    `hcl:"runner_uid_min"`
	RunnerUIDMax      int    `hcl:"runner_uid_max"`
	RunnerGIDMin      int    `hcl:"runner_gid_min"`
	RunnerGIDMax      int    `hcl:"runner_gid_max"`
	MaxProcessCount   int    `hcl:"max_process_count"`
	MaxOpenFiles      int    `hcl:"max_open_files"`
	OutputMaxSize     int64  `hcl:"output_max_size"`
	DisableNetworking bool   `hcl:"disable_networking"`
	LogLevel          string `hcl:"log_level"`
	BindAddress       string `hcl:"bind_address"`
}

// defaultConfig mirrors ConfigSpec's hclspec.NewDefault literals, applied
// before an HCL file is decoded on top.
func defaultConfig() Config {
	return Config{
		MaxProcessCount: 64,
		MaxOpenFiles:    2048,
		OutputMaxSize:   1024000,
		LogLevel:        "info",
		BindAddress:     "127.0.0.1:2000",
	}
}

// LoadConfig parses an HCL config file into a Config and validates it.
//
// The teacher's own SetConfig decodes via base.MsgPackDecode, which
// assumes a live Nomad agent already turned HCL into msgpack across an
// RPC boundary this standalone judge doesn't have. Parsing the HCL text
// directly with the same hashicorp/hcl library the agent itself uses
// underneath is the faithful adaptation to a boundary-less CLI.
func LoadConfig(raw []byte) (*Config, error) {
	cfg := defaultConfig()
	if err := hcl.Decode(&cfg, string(raw)); err != nil {
		return nil, errkind.New(errkind.InvalidSpec, "LoadConfig", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate enforces the range invariants spec §6 implies but doesn't spell
// out, grounded in how the teacher's own rlimit fields
// (LimitNPROC/LimitNOFILE) are always paired bounds.
func (c *Config) Validate() error {
	switch {
	case c.DataDirectory == "":
		return errkind.New(errkind.InvalidSpec, "Config.Validate", fmt.Errorf("data_directory is required"))
	case c.RunnerUIDMax < c.RunnerUIDMin:
		return errkind.New(errkind.InvalidSpec, "Config.Validate", fmt.Errorf("runner_uid_max must be >= runner_uid_min"))
	case c.RunnerGIDMax < c.RunnerGIDMin:
		return errkind.New(errkind.InvalidSpec, "Config.Validate", fmt.Errorf("runner_gid_max must be >= runner_gid_min"))
	case c.MaxProcessCount <= 0:
		return errkind.New(errkind.InvalidSpec, "Config.Validate", fmt.Errorf("max_process_count must be positive"))
	case c.MaxOpenFiles <= 0:
		return errkind.New(errkind.InvalidSpec, "Config.Validate", fmt.Errorf("max_open_files must be positive"))
	case c.OutputMaxSize <= 0:
		return errkind.New(errkind.InvalidSpec, "Config.Validate", fmt.Errorf("output_max_size must be positive"))
	}
	return nil
}

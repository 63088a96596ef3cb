package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	hclog "github.com/hashicorp/go-hclog"

	"github.com/piston-judge/piston-core/judge"
)

// pistond is the judge's thin outbound edge: it bootstraps Config,
// Registry, IdentityPool, Sandbox, and Facade, then runs exactly one
// submission read as a Request (JSON) on stdin, printing the adjudicated
// Result (JSON) to stdout. The HTTP/queue layer that would normally front
// this (spec §1) is out of scope; this plays the role the teacher's own
// main.go plays for the Nomad plugin harness, minus the plugin protocol.
func main() {
	if len(os.Args) > 1 && os.Args[1] == "-config-schema" {
		fmt.Printf("%+v\n", judge.ConfigSchema())
		return
	}

	logger := hclog.New(&hclog.LoggerOptions{
		Name:  "pistond",
		Level: hclog.LevelFromString(envOr("PISTON_LOG_LEVEL", "info")),
	})

	if err := run(logger); err != nil {
		logger.Error("run failed", "error", err)
		os.Exit(1)
	}
}

func run(logger hclog.Logger) error {
	cfgPath := envOr("PISTON_CONFIG", "")
	var cfg *judge.Config
	var err error
	if cfgPath != "" {
		raw, readErr := os.ReadFile(cfgPath)
		if readErr != nil {
			return fmt.Errorf("reading config: %w", readErr)
		}
		cfg, err = judge.LoadConfig(raw)
	} else {
		cfg, err = judge.LoadConfig([]byte(defaultHCL()))
	}
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	logger.SetLevel(hclog.LevelFromString(cfg.LogLevel))

	registry, err := judge.NewRegistry(cfg.DataDirectory, logger)
	if err != nil {
		return fmt.Errorf("building registry: %w", err)
	}

	pool := judge.NewIdentityPool(cfg.RunnerUIDMin, cfg.RunnerUIDMax, cfg.RunnerGIDMin, cfg.RunnerGIDMax)
	sandbox := judge.NewSandbox(judge.SandboxConfig{
		MaxProcessCount:   cfg.MaxProcessCount,
		MaxOpenFiles:      cfg.MaxOpenFiles,
		OutputMaxSize:     cfg.OutputMaxSize,
		DisableNetworking: cfg.DisableNetworking,
	}, logger)
	events := judge.NewBroadcaster(logger)
	facade := judge.NewFacade(cfg.DataDirectory, pool, sandbox, events, logger)

	body, err := io.ReadAll(os.Stdin)
	if err != nil {
		return fmt.Errorf("reading request: %w", err)
	}

	var req judge.Request
	if err := json.Unmarshal(body, &req); err != nil {
		return fmt.Errorf("decoding request: %w", err)
	}

	spec, err := req.Resolve(registry)
	if err != nil {
		return fmt.Errorf("resolving request: %w", err)
	}

	result, err := facade.Submit(spec)
	if err != nil {
		logger.Warn("job finished with an error verdict", "error", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// defaultHCL is the minimal config used when PISTON_CONFIG isn't set,
// data_directory defaulting to a conventional local install path.
func defaultHCL() string {
	return `
data_directory = "/var/lib/piston"
runner_uid_min = 10000
runner_uid_max = 10999
runner_gid_min = 10000
runner_gid_max = 10999
`
}

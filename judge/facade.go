package judge

import (
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-hclog"
	multierror "github.com/hashicorp/go-multierror"
	uuid "github.com/hashicorp/go-uuid"

	"github.com/piston-judge/piston-core/judge/errkind"
)

// Facade is the single inbound operation external callers use, spec
// §4.F: Submit(spec) -> verdict. It validates the spec, builds a Job,
// drives prime -> execute -> cleanup (cleanup always runs), and returns
// the adjudicated Result or an ERROR verdict wrapping the underlying
// failure kind.
type Facade struct {
	dataDir string
	pool    *IdentityPool
	sandbox *Sandbox
	events  *Broadcaster
	logger  hclog.Logger
}

// NewFacade wires together the components the Facade drives: the
// Identity Pool, Sandbox, and workspace root under dataDir/jobs. The
// Registry is consumed by the caller before Submit to resolve a JobSpec's
// Runtime; the Facade itself only needs an already-resolved Runtime.
func NewFacade(dataDir string, pool *IdentityPool, sandbox *Sandbox, events *Broadcaster, logger hclog.Logger) *Facade {
	return &Facade{
		dataDir: dataDir,
		pool:    pool,
		sandbox: sandbox,
		events:  events,
		logger:  logger.Named("facade"),
	}
}

// Submit runs one JobSpec to completion and returns its adjudicated
// Result. On a structural failure (invalid spec, spawn failure,
// filesystem failure) Submit returns a Result carrying an ERROR verdict
// alongside the error describing why, per spec §7's propagation policy:
// recoverable failures become verdicts, structural failures become ERROR.
func (f *Facade) Submit(spec *JobSpec) (*Result, error) {
	if err := validateSpec(spec); err != nil {
		return &Result{Verdict: Verdict{Status: StatusError, Stdout: strPtr(err.Error())}}, err
	}

	id, err := uuid.GenerateUUID()
	if err != nil {
		return &Result{Verdict: Verdict{Status: StatusError, Stdout: strPtr(err.Error())}}, errkind.New(errkind.Spawn, "Facade.Submit", err)
	}

	uid, gid := f.pool.Allocate()
	workspace := filepath.Join(f.dataDir, "jobs", id)
	job := newJob(id, uid, gid, workspace, spec, f.sandbox, f.events, f.logger)

	f.logger.Info("submitted job", "job_id", id, "language", spec.Runtime.Language, "version", spec.Runtime.Version)

	var primeErr, execErr error
	var result *Result

	primeErr = job.Prime()
	if primeErr == nil {
		result, execErr = job.Execute()
	}

	cleanupErr := job.Cleanup()

	switch {
	case primeErr != nil:
		return mergeCleanupErr(&Result{Verdict: Verdict{Status: StatusError, Stdout: strPtr(primeErr.Error())}}, primeErr, cleanupErr)
	case execErr != nil:
		return mergeCleanupErr(&Result{Verdict: Verdict{Status: StatusError, Stdout: strPtr(execErr.Error())}}, execErr, cleanupErr)
	case cleanupErr != nil:
		f.logger.Warn("job succeeded but cleanup failed", "job_id", id, "error", cleanupErr)
		return result, nil
	default:
		return result, nil
	}
}

func mergeCleanupErr(errResult *Result, primary, cleanup error) (*Result, error) {
	if cleanup == nil {
		return errResult, primary
	}
	merged := multierror.Append(multierror.Append(new(multierror.Error), primary), cleanup)
	return errResult, merged.ErrorOrNil()
}

// validateSpec enforces spec §3's JobSpec invariants plus the
// SPEC_FULL.md Java-suffix rule. The job is never created when this
// fails (spec §7: InvalidSpec is reported to the caller directly).
func validateSpec(spec *JobSpec) error {
	if spec.Runtime == nil {
		return errkind.New(errkind.InvalidSpec, "validateSpec", errString("runtime is required"))
	}
	if len(spec.Files) == 0 {
		return errkind.New(errkind.InvalidSpec, "validateSpec", errString("at least one file is required"))
	}
	if spec.Alias == "" {
		return errkind.New(errkind.InvalidSpec, "validateSpec", errString("alias is required"))
	}

	foundMain := false
	for _, fl := range spec.Files {
		if err := validateFileName(fl.Name); err != nil {
			return errkind.New(errkind.InvalidSpec, "validateSpec", err)
		}
		if fl.Name == spec.Main {
			foundMain = true
		}
	}
	if !foundMain {
		return errkind.New(errkind.InvalidSpec, "validateSpec", errString("main must name one of the submitted files"))
	}

	if spec.ExpectedOutput != nil && len(spec.ExpectedOutput) != len(spec.Stdin) {
		return errkind.New(errkind.InvalidSpec, "validateSpec", errString("expected_output length must match stdin length"))
	}

	if spec.Runtime.Language == "java" && spec.Runtime.Compiled && !strings.HasSuffix(spec.Main, ".java") {
		return errkind.New(errkind.InvalidSpec, "validateSpec", errString("java main must end in .java"))
	}

	return nil
}

// validateFileName enforces spec §3's workspace-escape invariant: no
// absolute paths, no ".." segments.
func validateFileName(name string) error {
	if name == "" {
		return errString("file name must not be empty")
	}
	if filepath.IsAbs(name) {
		return errString("file name must not be absolute: " + name)
	}
	cleaned := filepath.Clean(name)
	for _, part := range strings.Split(cleaned, string(filepath.Separator)) {
		if part == ".." {
			return errString("file name must not escape the workspace: " + name)
		}
	}
	return nil
}

type errString string

func (e errString) Error() string { return string(e) }

package judge

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
	multierror "github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"

	"github.com/piston-judge/piston-core/judge/errkind"
)

// State is the Job lifecycle state, spec §3/§4.D:
//
//	Ready --prime--> Primed --execute--> Executed
//	  \                                    /
//	   \-------------- cleanup -----------/   (any state)
type State int

const (
	StateReady State = iota
	StatePrimed
	StateExecuted
)

func (s State) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StatePrimed:
		return "primed"
	case StateExecuted:
		return "executed"
	default:
		return "unknown"
	}
}

const workspaceMode = 0o700

// Job owns the Ready → Primed → Executed lifecycle for one submission
// (spec §3, §4.D). A Job is single-owner: its transitions must not be
// driven from more than one goroutine at a time, though the Sandbox calls
// its execute phase makes may themselves run in parallel.
type Job struct {
	ID        string
	UID, GID  int
	Workspace string

	spec    *JobSpec
	sandbox *Sandbox
	events  *Broadcaster
	logger  hclog.Logger

	state State
}

// newJob constructs a Job in state Ready. Only the Facade builds Jobs.
func newJob(id string, uid, gid int, workspace string, spec *JobSpec, sandbox *Sandbox, events *Broadcaster, logger hclog.Logger) *Job {
	return &Job{
		ID:        id,
		UID:       uid,
		GID:       gid,
		Workspace: workspace,
		spec:      spec,
		sandbox:   sandbox,
		events:    events,
		logger:    logger.Named("job").With("job_id", id),
		state:     StateReady,
	}
}

// Prime materialises the workspace directory and every submitted file on
// disk, owned by (uid, gid) with mode 0700 on the directory (spec §4.D).
func (j *Job) Prime() error {
	if j.state != StateReady {
		return errkind.New(errkind.InvalidState, "Job.Prime", nil)
	}

	if err := os.MkdirAll(j.Workspace, workspaceMode); err != nil {
		return errkind.New(errkind.Filesystem, "Job.Prime", err)
	}
	if err := os.Chown(j.Workspace, j.UID, j.GID); err != nil {
		return errkind.New(errkind.Filesystem, "Job.Prime", err)
	}
	if err := os.Chmod(j.Workspace, workspaceMode); err != nil {
		return errkind.New(errkind.Filesystem, "Job.Prime", err)
	}

	for _, f := range j.spec.Files {
		path := filepath.Join(j.Workspace, f.Name)
		if err := os.WriteFile(path, f.Content, 0o600); err != nil {
			return errkind.New(errkind.Filesystem, "Job.Prime", err)
		}
		if err := os.Chown(path, j.UID, j.GID); err != nil {
			return errkind.New(errkind.Filesystem, "Job.Prime", err)
		}
	}

	j.state = StatePrimed
	j.logger.Debug("primed workspace", "path", j.Workspace, "uid", j.UID, "gid", j.GID)
	j.events.Emit(j.ID, "primed", j.Workspace)
	return nil
}

// Execute runs the compile phase (if any) followed by one Sandbox
// invocation per stdin payload, dispatched serially for Java and in
// parallel for everything else (spec §4.D).
func (j *Job) Execute() (*Result, error) {
	if j.state != StatePrimed {
		return nil, errkind.New(errkind.InvalidState, "Job.Execute", nil)
	}

	rt := j.spec.Runtime
	result := &Result{}

	if rt.Compiled {
		compileTimeout := time.Duration(j.spec.Timeouts.CompileMS) * time.Millisecond
		compileResult, err := j.sandbox.SafeCall(
			rt.CompilePath(),
			j.fileNames(),
			compileTimeout,
			nil,
			rt.EnvVars,
			j.Workspace,
			j.UID, j.GID,
			j.spec.Alias,
		)
		if err != nil {
			return nil, err
		}
		result.Compile = compileResult
		j.events.Emit(j.ID, "compiled", "")

		if len(compileResult.Stderr) > 0 || compileResult.Killed() {
			msg := string(compileResult.Stderr)
			if msg == "" {
				msg = "compilation failed"
			}
			result.Verdict = Verdict{Status: StatusCompilation, Stdout: strPtr(msg)}
			result.Run = []RunResult{}
			j.state = StateExecuted
			return result, nil
		}
	}

	mainName := j.entryFile()

	runTimeout := time.Duration(j.spec.Timeouts.RunMS) * time.Millisecond
	runs := make([]RunResult, len(j.spec.Stdin))

	if rt.Language == "java" {
		// Java compilation emits shared on-disk class files in the
		// workspace; concurrent invocations may race on the JVM's
		// working set, so dispatch is strictly serial (spec §4.D.3).
		for i, in := range j.spec.Stdin {
			rr, err := j.invokeRun(mainName, runTimeout, in)
			if err != nil {
				return nil, err
			}
			runs[i] = *rr
			j.events.Emit(j.ID, "run", strconv.Itoa(i))
		}
	} else {
		var g errgroup.Group
		for i, in := range j.spec.Stdin {
			i, in := i, in
			g.Go(func() error {
				rr, err := j.invokeRun(mainName, runTimeout, in)
				if err != nil {
					return err
				}
				runs[i] = *rr
				j.events.Emit(j.ID, "run", strconv.Itoa(i))
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	result.Run = runs
	result.Verdict = Adjudicate(runs, j.spec.ExpectedOutput, j.spec.Stdin)

	j.state = StateExecuted
	j.logger.Info("executed job", "verdict", result.Verdict.Status)
	j.events.Emit(j.ID, "executed", string(result.Verdict.Status))
	return result, nil
}

func (j *Job) invokeRun(mainName string, timeout time.Duration, stdin string) (*RunResult, error) {
	argv := append([]string{mainName}, j.spec.Args...)
	return j.sandbox.SafeCall(
		j.spec.Runtime.RunPath(),
		argv,
		timeout,
		[]byte(stdin),
		j.spec.Runtime.EnvVars,
		j.Workspace,
		j.UID, j.GID,
		j.spec.Alias,
	)
}

// entryFile applies the Java quirk documented in spec §4.D.2: compiled
// Java runtimes take the entry class name, not the source file name, so
// the final ".java" is stripped. Validation (validateSpec) already
// rejected a java+compiled JobSpec whose Main doesn't end in ".java", so
// the suffix is always present here.
func (j *Job) entryFile() string {
	main := j.spec.Main
	if j.spec.Runtime.Language == "java" && j.spec.Runtime.Compiled {
		return strings.TrimSuffix(main, ".java")
	}
	return main
}

func (j *Job) fileNames() []string {
	names := make([]string, len(j.spec.Files))
	for i, f := range j.spec.Files {
		names[i] = f.Name
	}
	return names
}

// Cleanup removes the workspace recursively; a missing path is not an
// error (spec §4.D). Idempotent and legal from any state; it never
// changes State.
func (j *Job) Cleanup() error {
	var result *multierror.Error
	if err := os.RemoveAll(j.Workspace); err != nil && !os.IsNotExist(err) {
		result = multierror.Append(result, err)
	}
	j.events.Emit(j.ID, "cleaned_up", j.Workspace)
	if result != nil {
		j.logger.Warn("cleanup failed", "error", result)
		return errkind.New(errkind.Filesystem, "Job.Cleanup", result.ErrorOrNil())
	}
	j.logger.Debug("cleaned up workspace", "path", j.Workspace)
	return nil
}


package judge

// Runtime describes an installed language package. It is produced by the
// Registry and is otherwise opaque to the Job/Sandbox/Verdict machinery
// (spec §3).
type Runtime struct {
	Language string
	Version  string
	Aliases  []string
	Compiled bool
	PkgDir   string
	EnvVars  map[string]string
}

// HasAlias reports whether name matches the runtime's language, version,
// or any configured alias.
func (r *Runtime) HasAlias(name string) bool {
	if name == r.Language || name == r.Version {
		return true
	}
	for _, a := range r.Aliases {
		if a == name {
			return true
		}
	}
	return false
}

// CompilePath returns the runtime's compile entry point.
func (r *Runtime) CompilePath() string { return r.PkgDir + "/compile" }

// RunPath returns the runtime's run entry point.
func (r *Runtime) RunPath() string { return r.PkgDir + "/run" }

// FileSpec is one source file supplied by the caller. Name must be a
// workspace-relative path with no ".." segments and must not be absolute.
type FileSpec struct {
	Name    string
	Content []byte
}

// Timeouts bounds compile and run wall-clock time in milliseconds.
// CompileMS is ignored when the runtime isn't compiled.
type Timeouts struct {
	CompileMS int
	RunMS     int
}

// JobSpec is the caller-supplied submission (spec §3, §6).
type JobSpec struct {
	Runtime        *Runtime
	Files          []FileSpec
	Main           string
	Alias          string
	Args           []string
	Stdin          []string
	ExpectedOutput []string // nil when the caller didn't supply one
	Timeouts       Timeouts
}

// RunResult is the outcome of a single Sandbox invocation (spec §3).
type RunResult struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode *int
	Signal   string
	Stdin    string
}

// Killed reports whether the child was terminated by the sandbox rather
// than exiting on its own.
func (r *RunResult) Killed() bool { return r.Signal == "SIGKILL" }

// Status is the sum type of verdicts spec §3 enumerates.
type Status string

const (
	StatusAC          Status = "AC"
	StatusWA          Status = "WA"
	StatusCompilation Status = "COMPILATION"
	StatusRuntime     Status = "RUNTIME"
	StatusTLE         Status = "TLE"
	StatusMLE         Status = "MLE"
	StatusPending     Status = "PENDING"
	StatusError       Status = "ERROR"
)

// Verdict is the judge's structured answer.
type Verdict struct {
	Status         Status  `json:"status"`
	Stdout         *string `json:"stdout,omitempty"`
	Stdin          *string `json:"stdin,omitempty"`
	ExpectedOutput *string `json:"expected_output,omitempty"`
}

// Result is the full response shape spec §6 documents: the optional
// compile RunResult, every run RunResult, and the adjudicated verdict.
type Result struct {
	Compile *RunResult  `json:"compile,omitempty"`
	Run     []RunResult `json:"run"`
	Verdict Verdict     `json:"verdict"`
}

func strPtr(s string) *string { return &s }

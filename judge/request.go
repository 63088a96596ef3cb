package judge

import "github.com/piston-judge/piston-core/judge/errkind"

// Request is the wire shape a caller submits (spec §6): runtime selection
// by language/version rather than an already-resolved *Runtime. Resolve
// turns it into the internal JobSpec the Facade/Job/Sandbox machinery
// operates on.
type Request struct {
	Language       string          `json:"language"`
	Version        string          `json:"version"`
	Files          []RequestFile   `json:"files"`
	Main           string          `json:"main"`
	Alias          string          `json:"alias"`
	Args           []string        `json:"args"`
	Stdin          []string        `json:"stdin"`
	ExpectedOutput []string        `json:"expected_output"`
	Timeouts       RequestTimeouts `json:"timeouts"`
}

// RequestFile mirrors FileSpec on the wire, content as text rather than
// raw bytes since judged source files are themselves text.
type RequestFile struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

// RequestTimeouts mirrors Timeouts on the wire using spec §6's bit-exact
// field names (compile/run, both milliseconds).
type RequestTimeouts struct {
	CompileMS int `json:"compile"`
	RunMS     int `json:"run"`
}

// Resolve looks up the requested language/version (or alias, when version
// is empty) in reg and builds the internal JobSpec the Facade consumes.
// An unresolvable runtime is an InvalidSpec, not a structural registry
// failure: the caller asked for something that doesn't exist.
func (req *Request) Resolve(reg *Registry) (*JobSpec, error) {
	rt, ok := reg.Lookup(req.Language, req.Version)
	if !ok {
		return nil, errkind.New(errkind.InvalidSpec, "Request.Resolve", unknownRuntimeError{language: req.Language, version: req.Version})
	}

	files := make([]FileSpec, len(req.Files))
	for i, f := range req.Files {
		files[i] = FileSpec{Name: f.Name, Content: []byte(f.Content)}
	}

	return &JobSpec{
		Runtime:        rt,
		Files:          files,
		Main:           req.Main,
		Alias:          req.Alias,
		Args:           req.Args,
		Stdin:          req.Stdin,
		ExpectedOutput: req.ExpectedOutput,
		Timeouts:       Timeouts{CompileMS: req.Timeouts.CompileMS, RunMS: req.Timeouts.RunMS},
	}, nil
}

type unknownRuntimeError struct {
	language, version string
}

func (e unknownRuntimeError) Error() string {
	if e.version == "" {
		return "no installed runtime matches alias/language " + e.language
	}
	return "no installed runtime for " + e.language + "@" + e.version
}

package judge

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/require"

	"github.com/piston-judge/piston-core/judge/errkind"
)

func testFacade(t *testing.T) *Facade {
	t.Helper()
	pool := NewIdentityPool(os.Getuid(), os.Getuid(), os.Getgid(), os.Getgid())
	sandbox := testSandbox(t)
	events := NewBroadcaster(hclog.NewNullLogger())
	return NewFacade(t.TempDir(), pool, sandbox, events, hclog.NewNullLogger())
}

func TestFacadeSubmitAC(t *testing.T) {
	rt := fakeRuntime(t, false, "", "#!/bin/bash\ncat\n")
	spec := &JobSpec{
		Runtime:        rt,
		Files:          []FileSpec{{Name: "main.sh", Content: []byte("echo hi")}},
		Main:           "main.sh",
		Alias:          "bash",
		Stdin:          []string{"hello"},
		ExpectedOutput: []string{"hello"},
		Timeouts:       Timeouts{RunMS: 2000},
	}

	f := testFacade(t)
	result, err := f.Submit(spec)
	require.NoError(t, err)
	require.Equal(t, StatusAC, result.Verdict.Status)
}

func TestFacadeSubmitRejectsMissingMain(t *testing.T) {
	rt := fakeRuntime(t, false, "", "#!/bin/bash\ncat\n")
	spec := &JobSpec{
		Runtime: rt,
		Files:   []FileSpec{{Name: "main.sh", Content: []byte("x")}},
		Main:    "other.sh",
		Alias:   "bash",
		Stdin:   []string{""},
	}

	f := testFacade(t)
	result, err := f.Submit(spec)
	require.Error(t, err)
	require.True(t, errkind.Is(err, errkind.InvalidSpec))
	require.Equal(t, StatusError, result.Verdict.Status)
}

func TestFacadeSubmitRejectsPathEscape(t *testing.T) {
	rt := fakeRuntime(t, false, "", "#!/bin/bash\ncat\n")
	spec := &JobSpec{
		Runtime: rt,
		Files:   []FileSpec{{Name: "../escape.sh", Content: []byte("x")}},
		Main:    "../escape.sh",
		Alias:   "bash",
		Stdin:   []string{""},
	}

	f := testFacade(t)
	_, err := f.Submit(spec)
	require.Error(t, err)
	require.True(t, errkind.Is(err, errkind.InvalidSpec))
}

func TestFacadeSubmitRejectsMismatchedExpectedOutputLength(t *testing.T) {
	rt := fakeRuntime(t, false, "", "#!/bin/bash\ncat\n")
	spec := &JobSpec{
		Runtime:        rt,
		Files:          []FileSpec{{Name: "main.sh", Content: []byte("x")}},
		Main:           "main.sh",
		Alias:          "bash",
		Stdin:          []string{"a", "b"},
		ExpectedOutput: []string{"a"},
	}

	f := testFacade(t)
	_, err := f.Submit(spec)
	require.Error(t, err)
	require.True(t, errkind.Is(err, errkind.InvalidSpec))
}

func TestFacadeSubmitCleansUpWorkspaceAfterSuccess(t *testing.T) {
	rt := fakeRuntime(t, false, "", "#!/bin/bash\ncat\n")
	spec := &JobSpec{
		Runtime: rt,
		Files:   []FileSpec{{Name: "main.sh", Content: []byte("x")}},
		Main:    "main.sh",
		Alias:   "bash",
		Stdin:   []string{""},
		Timeouts: Timeouts{RunMS: 2000},
	}

	f := testFacade(t)
	_, err := f.Submit(spec)
	require.NoError(t, err)

	entries, err := os.ReadDir(filepath.Join(f.dataDir, "jobs"))
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestFacadeSubmitRejectsJavaMainWithoutSuffix(t *testing.T) {
	rt := &Runtime{Language: "java", Compiled: true, PkgDir: t.TempDir()}
	spec := &JobSpec{
		Runtime: rt,
		Files:   []FileSpec{{Name: "Main", Content: []byte("x")}},
		Main:    "Main",
		Alias:   "java",
		Stdin:   []string{""},
	}

	f := testFacade(t)
	_, err := f.Submit(spec)
	require.Error(t, err)
	require.True(t, errkind.Is(err, errkind.InvalidSpec))
}

package judge

import (
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/require"

	"github.com/piston-judge/piston-core/judge/errkind"
)

func TestRequestResolveByLanguageVersion(t *testing.T) {
	dataDir := t.TempDir()
	writeInstalledPackage(t, dataDir, "python", "3.10.0", false, "")
	reg, err := NewRegistry(dataDir, hclog.NewNullLogger())
	require.NoError(t, err)

	req := &Request{
		Language: "python",
		Version:  "3.10.0",
		Files:    []RequestFile{{Name: "main.py", Content: "print(1)"}},
		Main:     "main.py",
		Alias:    "python",
		Stdin:    []string{""},
	}

	spec, err := req.Resolve(reg)
	require.NoError(t, err)
	require.Equal(t, "python", spec.Runtime.Language)
	require.Equal(t, "python", spec.Alias)
	require.Equal(t, []byte("print(1)"), spec.Files[0].Content)
}

func TestRequestResolveLeavesEmptyAliasForValidateSpecToReject(t *testing.T) {
	dataDir := t.TempDir()
	writeInstalledPackage(t, dataDir, "python", "3.10.0", false, "")
	reg, err := NewRegistry(dataDir, hclog.NewNullLogger())
	require.NoError(t, err)

	req := &Request{
		Language: "python",
		Version:  "3.10.0",
		Files:    []RequestFile{{Name: "main.py", Content: "print(1)"}},
		Main:     "main.py",
		Stdin:    []string{""},
	}

	spec, err := req.Resolve(reg)
	require.NoError(t, err)
	require.Empty(t, spec.Alias)

	err = validateSpec(spec)
	require.Error(t, err)
	require.True(t, errkind.Is(err, errkind.InvalidSpec))
}

func TestRequestResolveByAlias(t *testing.T) {
	dataDir := t.TempDir()
	writeInstalledPackage(t, dataDir, "python", "3.10.0", false, `{"aliases":["py"]}`)
	reg, err := NewRegistry(dataDir, hclog.NewNullLogger())
	require.NoError(t, err)

	req := &Request{Language: "py", Files: []RequestFile{{Name: "a.py"}}, Main: "a.py"}
	spec, err := req.Resolve(reg)
	require.NoError(t, err)
	require.Equal(t, "python", spec.Runtime.Language)
}

func TestRequestResolveUnknownRuntime(t *testing.T) {
	dataDir := t.TempDir()
	reg, err := NewRegistry(dataDir, hclog.NewNullLogger())
	require.NoError(t, err)

	req := &Request{Language: "cobol", Version: "85"}
	_, err = req.Resolve(reg)
	require.Error(t, err)
	require.True(t, errkind.Is(err, errkind.InvalidSpec))
}

func TestRequestResolvePreservesExplicitAlias(t *testing.T) {
	dataDir := t.TempDir()
	writeInstalledPackage(t, dataDir, "python", "3.10.0", false, "")
	reg, err := NewRegistry(dataDir, hclog.NewNullLogger())
	require.NoError(t, err)

	req := &Request{Language: "python", Version: "3.10.0", Alias: "py3", Main: "a.py", Files: []RequestFile{{Name: "a.py"}}}
	spec, err := req.Resolve(reg)
	require.NoError(t, err)
	require.Equal(t, "py3", spec.Alias)
}

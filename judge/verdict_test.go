package judge

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAdjudicateAC(t *testing.T) {
	runs := []RunResult{
		{Stdout: []byte("4\n"), Stdin: "2 2"},
		{Stdout: []byte("6\n"), Stdin: "3 3"},
	}
	v := Adjudicate(runs, []string{"4", "6"}, []string{"2 2", "3 3"})

	require.Equal(t, StatusAC, v.Status)
	require.Equal(t, "4\n", *v.Stdout)
	require.Equal(t, "2 2", *v.Stdin)
}

func TestAdjudicateACWithoutExpectedOutput(t *testing.T) {
	runs := []RunResult{{Stdout: []byte("anything\n"), Stdin: "x"}}
	v := Adjudicate(runs, nil, []string{"x"})
	require.Equal(t, StatusAC, v.Status)
}

func TestAdjudicateNoRuns(t *testing.T) {
	v := Adjudicate(nil, nil, nil)
	require.Equal(t, StatusAC, v.Status)
	require.Nil(t, v.Stdout)
}

func TestAdjudicateWA(t *testing.T) {
	runs := []RunResult{
		{Stdout: []byte("4\n"), Stdin: "2 2"},
		{Stdout: []byte("5\n"), Stdin: "3 3"},
	}
	v := Adjudicate(runs, []string{"4", "6"}, []string{"2 2", "3 3"})

	require.Equal(t, StatusWA, v.Status)
	require.Equal(t, "5", *v.Stdout)
	require.Equal(t, "6", *v.ExpectedOutput)
	require.Equal(t, "3 3", *v.Stdin)
}

func TestAdjudicateRuntimeBeatsWA(t *testing.T) {
	runs := []RunResult{
		{Stdout: []byte(""), Stderr: []byte("panic: nil pointer"), Stdin: "x"},
	}
	v := Adjudicate(runs, []string{"4"}, []string{"x"})

	require.Equal(t, StatusRuntime, v.Status)
	require.Equal(t, "panic: nil pointer", *v.Stdout)
}

func TestAdjudicateTLEBeatsWA(t *testing.T) {
	runs := []RunResult{
		{Stdout: []byte("wrong\n"), Signal: "SIGKILL", Stdin: "x"},
	}
	v := Adjudicate(runs, []string{"right"}, []string{"x"})

	require.Equal(t, StatusTLE, v.Status)
}

func TestAdjudicateFirstFailingCaseWins(t *testing.T) {
	runs := []RunResult{
		{Stdout: []byte("ok\n"), Stdin: "a"},
		{Stdout: []byte("bad\n"), Stdin: "b"},
		{Stderr: []byte("crash"), Stdin: "c"},
	}
	v := Adjudicate(runs, []string{"ok", "good", "fine"}, []string{"a", "b", "c"})

	require.Equal(t, StatusWA, v.Status)
	require.Equal(t, "b", *v.Stdin)
}

package judge

import "strings"

// Adjudicate folds run results into a single Verdict per spec §4.E. It is
// a pure function of its inputs: no I/O, no clock, no randomness.
//
// Priority per test case, evaluated in ascending index order:
//  1. RUNTIME  — run[i].Stderr is non-empty
//  2. TLE      — run[i].Signal == "SIGKILL"
//  3. WA       — expected output was supplied and, after trimming both
//     sides, run[i].Stdout != expectedOutput[i]
//
// The first non-accepting case wins; if every case is accepting, the
// verdict is AC carrying the first case's stdout/stdin (or nulls when
// there were no test cases at all).
func Adjudicate(run []RunResult, expectedOutput, stdin []string) Verdict {
	hasExpected := expectedOutput != nil

	for i := range run {
		r := &run[i]

		if len(r.Stderr) > 0 {
			v := Verdict{Status: StatusRuntime, Stdout: strPtr(string(r.Stderr))}
			if i < len(stdin) {
				v.Stdin = strPtr(stdin[i])
			}
			if hasExpected && i < len(expectedOutput) {
				v.ExpectedOutput = strPtr(expectedOutput[i])
			}
			return v
		}

		if r.Signal == "SIGKILL" {
			v := Verdict{Status: StatusTLE}
			if i < len(stdin) {
				v.Stdin = strPtr(stdin[i])
			}
			if hasExpected && i < len(expectedOutput) {
				v.ExpectedOutput = strPtr(expectedOutput[i])
			}
			return v
		}

		if hasExpected && i < len(expectedOutput) {
			gotTrimmed := strings.TrimSpace(string(r.Stdout))
			wantTrimmed := strings.TrimSpace(expectedOutput[i])
			if gotTrimmed != wantTrimmed {
				return Verdict{
					Status:         StatusWA,
					Stdout:         strPtr(gotTrimmed),
					Stdin:          strPtr(stdin[i]),
					ExpectedOutput: strPtr(wantTrimmed),
				}
			}
		}
	}

	if len(run) == 0 {
		return Verdict{Status: StatusAC}
	}
	return Verdict{
		Status: StatusAC,
		Stdout: strPtr(string(run[0].Stdout)),
		Stdin:  strPtr(run[0].Stdin),
	}
}

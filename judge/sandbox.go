package judge

import (
	"bytes"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/hashicorp/consul-template/signals"
	"github.com/hashicorp/go-hclog"

	"github.com/piston-judge/piston-core/judge/errkind"
)

// SandboxConfig bounds every invocation the Sandbox makes (spec §6).
type SandboxConfig struct {
	MaxProcessCount   int
	MaxOpenFiles      int
	OutputMaxSize     int64
	DisableNetworking bool
}

// Sandbox spawns a single constrained subprocess per call, spec §4.C.
// Grounded on FouGuai-FUZOJ's engine_linux.go (Setpgid + wall-clock race
// against cmd.Wait + syscall.Kill(-pid, SIGKILL) teardown) and
// hellobyte-dev-coderunr's safeCall naming and per-stream output budget.
type Sandbox struct {
	cfg    SandboxConfig
	logger hclog.Logger
}

// NewSandbox builds a Sandbox bound to cfg.
func NewSandbox(cfg SandboxConfig, logger hclog.Logger) *Sandbox {
	return &Sandbox{cfg: cfg, logger: logger.Named("sandbox")}
}

// SafeCall spawns exePath via `prlimit --nproc=<P> --nofile=<F> [nosocket]
// bash <exePath> <argv...>`, under the given uid/gid and cwd, writes
// stdin, waits up to timeout, and returns the captured RunResult.
// Teardown of the process group is guaranteed on every exit path.
func (s *Sandbox) SafeCall(
	exePath string,
	argv []string,
	timeout time.Duration,
	stdin []byte,
	env map[string]string,
	cwd string,
	uid, gid int,
	alias string,
) (*RunResult, error) {
	name, args := s.buildCommand(exePath, argv)

	cmd := exec.Command(name, args...)
	cmd.Dir = cwd
	cmd.Env = buildEnv(env, alias)
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid: true,
		Credential: &syscall.Credential{
			Uid: uint32(uid),
			Gid: uint32(gid),
		},
	}

	stdinPipe, err := cmd.StdinPipe()
	if err != nil {
		return nil, errkind.New(errkind.Spawn, "SafeCall", err)
	}
	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return nil, errkind.New(errkind.Spawn, "SafeCall", err)
	}
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return nil, errkind.New(errkind.Spawn, "SafeCall", err)
	}

	stdoutBuf := newCappedBuffer(s.cfg.OutputMaxSize)
	stderrBuf := newCappedBuffer(s.cfg.OutputMaxSize)

	if err := cmd.Start(); err != nil {
		return &RunResult{Stdin: string(stdin)}, errkind.New(errkind.Spawn, "SafeCall", err)
	}
	pid := cmd.Process.Pid

	// Teardown is guaranteed on every exit path below: normal exit,
	// output-cap kill, or wall-clock timeout all converge on killGroup,
	// exactly once. A separate atomic records *why*, for signal reporting.
	var timedOut, capExceeded atomic.Bool
	killOnce := sync.Once{}
	killFor := func(reason *atomic.Bool) {
		reason.Store(true)
		killOnce.Do(func() { killGroup(pid) })
	}
	defer killOnce.Do(func() { killGroup(pid) })

	go func() {
		defer stdinPipe.Close()
		_, _ = stdinPipe.Write(stdin)
	}()

	var wg sync.WaitGroup
	wg.Add(2)
	go drainCapped(&wg, stdoutPipe, stdoutBuf, func() { killFor(&capExceeded) })
	go drainCapped(&wg, stderrPipe, stderrBuf, func() { killFor(&capExceeded) })

	timer := time.AfterFunc(timeout, func() { killFor(&timedOut) })

	// Drain to EOF before Wait: os/exec requires every StdoutPipe/
	// StderrPipe reader to finish before Wait is called, since Wait
	// closes the pipes once the child exits.
	wg.Wait()
	waitErr := cmd.Wait()
	timer.Stop()

	result := &RunResult{
		Stdout: stdoutBuf.Bytes(),
		Stderr: stderrBuf.Bytes(),
		Stdin:  string(stdin),
	}

	if timedOut.Load() || capExceeded.Load() {
		result.Signal = signalName(syscall.SIGKILL)
	}

	if result.Signal == "" {
		if ws, ok := cmd.ProcessState.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
			result.Signal = signalName(ws.Signal())
		}
	}
	if result.Signal == "" && waitErr == nil {
		code := cmd.ProcessState.ExitCode()
		result.ExitCode = &code
	} else if result.Signal == "" {
		if exitErr, ok := waitErr.(*exec.ExitError); ok {
			code := exitErr.ExitCode()
			result.ExitCode = &code
		}
	}

	return result, nil
}

// buildCommand assembles the prlimit/bash invocation spec §4.C specifies
// byte-for-byte: prlimit --nproc=<P> --nofile=<F> [nosocket] bash <exe>
// <argv...>.
func (s *Sandbox) buildCommand(exePath string, argv []string) (string, []string) {
	args := []string{
		fmt.Sprintf("--nproc=%d", s.cfg.MaxProcessCount),
		fmt.Sprintf("--nofile=%d", s.cfg.MaxOpenFiles),
	}
	if s.cfg.DisableNetworking {
		args = append(args, "nosocket")
	}
	args = append(args, "bash", exePath)
	args = append(args, argv...)
	return "prlimit", args
}

func buildEnv(env map[string]string, alias string) []string {
	out := make([]string, 0, len(env)+1)
	for k, v := range env {
		out = append(out, k+"="+v)
	}
	out = append(out, "PISTON_ALIAS="+alias)
	return out
}

// killGroup sends SIGKILL to the entire process group; errors from
// killing an already-dead group are swallowed, per spec §4.C.
func killGroup(pid int) {
	if pid <= 0 {
		return
	}
	_ = syscall.Kill(-pid, syscall.SIGKILL)
}

// signalName resolves a signal to its canonical string using the same
// lookup table hashicorp/nomad's own executor uses to resolve kill
// signals by name.
func signalName(sig syscall.Signal) string {
	for name, s := range signals.SignalLookup {
		if sysSig, ok := s.(syscall.Signal); ok && sysSig == sig {
			return name
		}
	}
	return sig.String()
}

// cappedBuffer accumulates writes up to a byte budget, then stops
// accepting new bytes while still reporting success to the writer (so a
// concurrent io.Copy doesn't error out, it just stops growing the
// buffer). This is the opposite truncation policy from armon/circbuf
// (which nomad's own executor uses): circbuf keeps the newest bytes by
// overwriting the oldest, where spec §4.C requires keeping whatever was
// buffered *before* the cap was crossed and discarding everything after.
type cappedBuffer struct {
	mu       sync.Mutex
	buf      bytes.Buffer
	max      int64
	exceeded bool
}

func newCappedBuffer(max int64) *cappedBuffer {
	return &cappedBuffer{max: max}
}

func (b *cappedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.exceeded {
		return len(p), nil
	}
	remaining := b.max - int64(b.buf.Len())
	if int64(len(p)) > remaining {
		b.buf.Write(p[:remaining])
		b.exceeded = true
		return len(p), nil
	}
	b.buf.Write(p)
	return len(p), nil
}

func (b *cappedBuffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]byte, b.buf.Len())
	copy(out, b.buf.Bytes())
	return out
}

// drainCapped copies from r into buf. If the cap is crossed it calls
// onExceed exactly once (via the caller-provided sync.Once-wrapped kill)
// to terminate the child, per spec §4.C's "cap-then-kill" policy.
func drainCapped(wg *sync.WaitGroup, r io.ReadCloser, buf *cappedBuffer, onExceed func()) {
	defer wg.Done()
	tmp := make([]byte, 32*1024)
	for {
		n, err := r.Read(tmp)
		if n > 0 {
			wasExceeded := buf.exceededSnapshot()
			_, _ = buf.Write(tmp[:n])
			if !wasExceeded && buf.exceededSnapshot() {
				onExceed()
			}
		}
		if err != nil {
			if err != io.EOF {
				_ = err
			}
			return
		}
	}
}

func (b *cappedBuffer) exceededSnapshot() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.exceeded
}

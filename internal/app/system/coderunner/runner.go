// Package coderunner compiles and runs short programs for the practice
// problems. Each run gets its own work directory, a wall-clock timeout, an
// output cap and a slot in a fixed-size concurrency gate. It is not a sandbox.
package coderunner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrUnsupportedLanguage is returned for a language not in the catalog.
	ErrUnsupportedLanguage = errors.New("unsupported language")
	// ErrBusy is returned when no run slot frees up within the acquire timeout.
	ErrBusy = errors.New("code runner busy")
	// ErrEmptyCode is returned when the request carries no source.
	ErrEmptyCode = errors.New("code is empty")
	// ErrToolchain is returned when a compiler or interpreter cannot be started.
	ErrToolchain = errors.New("toolchain unavailable")
)

// MaxCodeBytes bounds accepted source size.
const MaxCodeBytes = 64 << 10

// Config tunes a Runner. Zero values take the defaults noted per field.
type Config struct {
	Languages      map[string]Language
	Timeout        time.Duration // run step, 5s
	CompileTimeout time.Duration // compile step, 20s
	MaxOutput      int64         // per stream, 64 KiB
	MaxConcurrent  int           // 4
	AcquireTimeout time.Duration // 10s
	BaseDir        string        // os.TempDir()
}

// RunRequest is one program execution.
type RunRequest struct {
	Language string `json:"language"`
	Code     string `json:"code"`
	Stdin    string `json:"stdin"`
}

// Result is what the program produced.
type Result struct {
	Stdout       string `json:"stdout"`
	Stderr       string `json:"stderr"`
	ExitCode     int    `json:"exit_code"`
	TimedOut     bool   `json:"timed_out"`
	DurationMS   int64  `json:"duration_ms"`
	Truncated    bool   `json:"truncated"`
	CompileError bool   `json:"compile_error,omitempty"`
}

// Runner executes programs. It is safe for concurrent use.
type Runner struct {
	cfg  Config
	gate chan struct{}
	log  *zap.Logger
}

// New builds a Runner. A nil Languages map loads the embedded catalog.
func New(cfg Config, logger *zap.Logger) (*Runner, error) {
	if cfg.Languages == nil {
		langs, err := DefaultLanguages()
		if err != nil {
			return nil, err
		}
		cfg.Languages = langs
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.CompileTimeout <= 0 {
		cfg.CompileTimeout = 20 * time.Second
	}
	if cfg.MaxOutput <= 0 {
		cfg.MaxOutput = 64 << 10
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 4
	}
	if cfg.AcquireTimeout <= 0 {
		cfg.AcquireTimeout = 10 * time.Second
	}
	if cfg.BaseDir == "" {
		cfg.BaseDir = os.TempDir()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{cfg: cfg, gate: make(chan struct{}, cfg.MaxConcurrent), log: logger}, nil
}

// Languages returns the catalog in use.
func (r *Runner) Languages() map[string]Language { return r.cfg.Languages }

// Run compiles (when needed) and runs req.Code once with req.Stdin.
// A failed compile is reported in the Result, not as an error.
func (r *Runner) Run(ctx context.Context, req RunRequest) (Result, error) {
	lang, err := r.language(req.Language, req.Code)
	if err != nil {
		return Result{}, err
	}
	release, err := r.acquire(ctx)
	if err != nil {
		return Result{}, err
	}
	defer release()

	ws, err := r.newWorkspace(lang, req.Code)
	if err != nil {
		return Result{}, err
	}
	defer ws.remove()

	if res, ok, err := ws.compile(ctx); err != nil || !ok {
		return res, err
	}
	return ws.run(ctx, req.Stdin)
}

func (r *Runner) language(id, code string) (Language, error) {
	lang, ok := r.cfg.Languages[strings.ToLower(strings.TrimSpace(id))]
	if !ok {
		return Language{}, fmt.Errorf("%w: %q", ErrUnsupportedLanguage, id)
	}
	if strings.TrimSpace(code) == "" {
		return Language{}, ErrEmptyCode
	}
	if len(code) > MaxCodeBytes {
		return Language{}, fmt.Errorf("code exceeds %d bytes", MaxCodeBytes)
	}
	return lang, nil
}

func (r *Runner) acquire(ctx context.Context) (func(), error) {
	wait, cancel := context.WithTimeout(ctx, r.cfg.AcquireTimeout)
	defer cancel()
	select {
	case r.gate <- struct{}{}:
		return func() { <-r.gate }, nil
	case <-wait.Done():
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, ErrBusy
	}
}

type workspace struct {
	r    *Runner
	lang Language
	dir  string
	file string
}

func (r *Runner) newWorkspace(lang Language, code string) (*workspace, error) {
	dir := filepath.Join(r.cfg.BaseDir, "placement-run-"+uuid.NewString())
	if err := os.Mkdir(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create work dir: %w", err)
	}
	file := filepath.Join(dir, lang.Source)
	if err := os.WriteFile(file, []byte(code), 0o600); err != nil {
		_ = os.RemoveAll(dir)
		return nil, fmt.Errorf("write source: %w", err)
	}
	return &workspace{r: r, lang: lang, dir: dir, file: file}, nil
}

func (ws *workspace) remove() {
	if err := os.RemoveAll(ws.dir); err != nil {
		ws.r.log.Warn("runner work dir not removed", zap.String("dir", ws.dir), zap.Error(err))
	}
}

// compile reports ok=false with the compiler output when the build fails.
func (ws *workspace) compile(ctx context.Context) (Result, bool, error) {
	if len(ws.lang.Compile) == 0 {
		return Result{}, true, nil
	}
	res, err := ws.r.exec(ctx, ws.dir, expand(ws.lang.Compile, ws.dir, ws.file), "", ws.r.cfg.CompileTimeout)
	if err != nil {
		return res, false, err
	}
	if res.TimedOut || res.ExitCode != 0 {
		res.CompileError = true
		return res, false, nil
	}
	return Result{}, true, nil
}

func (ws *workspace) run(ctx context.Context, stdin string) (Result, error) {
	return ws.r.exec(ctx, ws.dir, expand(ws.lang.Run, ws.dir, ws.file), stdin, ws.r.cfg.Timeout)
}

func (r *Runner) exec(ctx context.Context, dir string, argv []string, stdin string, timeout time.Duration) (Result, error) {
	execCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(execCtx, argv[0], argv[1:]...)
	cmd.Dir = dir
	cmd.Env = []string{"PATH=" + os.Getenv("PATH"), "HOME=" + dir, "LANG=C.UTF-8"}
	cmd.Stdin = strings.NewReader(stdin)
	cmd.WaitDelay = time.Second
	setProcessGroup(cmd)

	var stdoutBuf, stderrBuf bytes.Buffer
	stdout := &limitedWriter{w: &stdoutBuf, max: r.cfg.MaxOutput}
	stderr := &limitedWriter{w: &stderrBuf, max: r.cfg.MaxOutput}
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	start := time.Now()
	err := cmd.Run()
	res := Result{
		Stdout:     stdoutBuf.String(),
		Stderr:     stderrBuf.String(),
		DurationMS: time.Since(start).Milliseconds(),
		Truncated:  stdout.truncated || stderr.truncated,
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
	case errors.Is(execCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil:
		res.TimedOut = true
		res.ExitCode = -1
		r.log.Debug("run killed", zap.String("cmd", argv[0]), zap.String("reason", fmt.Sprintf("timeout after %s", timeout)))
	case ctx.Err() != nil:
		return res, ctx.Err()
	case errors.As(err, &exitErr):
		res.ExitCode = exitErr.ExitCode()
	default:
		r.log.Error("runner start failed", zap.String("cmd", argv[0]), zap.Error(err))
		return res, fmt.Errorf("%w: %s: %v", ErrToolchain, argv[0], err)
	}
	return res, nil
}

// limitedWriter keeps the first max bytes and silently drops the rest.
type limitedWriter struct {
	w         io.Writer
	max       int64
	written   int64
	truncated bool
}

func (lw *limitedWriter) Write(p []byte) (int, error) {
	n := len(p)
	if lw.written >= lw.max {
		lw.truncated = true
		return n, nil
	}
	if remaining := lw.max - lw.written; int64(n) > remaining {
		lw.truncated = true
		written, err := lw.w.Write(p[:remaining])
		lw.written += int64(written)
		return n, err
	}
	written, err := lw.w.Write(p)
	lw.written += int64(written)
	return written, err
}

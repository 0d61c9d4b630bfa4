// Package supervisor runs one image-tool invocation at a time off the caller's
// goroutine, drives a progress indicator while it is outstanding and publishes
// exactly one Outcome when it ends.
//
// There is no cancellation and no timeout: a hung tool keeps the supervisor
// busy until it exits.
package supervisor

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"lfstool/internal/invocation"
)

// DefaultInterval is the progress cadence.
const DefaultInterval = 200 * time.Millisecond

// Outcome is the terminal state of a run.
type Outcome struct {
	Succeeded bool
	Message   string
	// Detail holds the captured error stream, if any.
	Detail string
	// Err is the underlying *SpawnError, *ToolFailure or *StageError.
	Err error
}

type (
	ProgressFunc func(Phase)
	CompleteFunc func(Outcome)
)

// Stage wraps extra work around the tool run. All methods run on the worker.
type Stage interface {
	Prepare(inv invocation.Invocation) (invocation.Invocation, error)
	Finish(inv invocation.Invocation) error
	Cleanup()
}

// Request is one run: the invocation plus the texts used for the outcome.
type Request struct {
	Invocation  invocation.Invocation
	Success     string
	ErrorPrefix string
	Stage       Stage
}

type Supervisor struct {
	state    *State
	spawner  Spawner
	interval time.Duration
	log      zerolog.Logger
}

type Option func(*Supervisor)

func WithSpawner(sp Spawner) Option {
	return func(s *Supervisor) { s.spawner = sp }
}

func WithInterval(d time.Duration) Option {
	return func(s *Supervisor) {
		if d > 0 {
			s.interval = d
		}
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(s *Supervisor) { s.log = l }
}

func New(opts ...Option) *Supervisor {
	s := &Supervisor{
		state:    newState(),
		spawner:  ProcessSpawner{SuppressConsoleWindow: true},
		interval: DefaultInterval,
		log:      zerolog.Nop(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// State exposes the shared state for pull-style consumers.
func (s *Supervisor) State() *State { return s.state }

// Busy reports whether an outcome is still pending.
func (s *Supervisor) Busy() bool { return s.state.Running() }

// Wait blocks until no run is outstanding.
func (s *Supervisor) Wait() { s.state.waitIdle() }

// Run starts req in the background and returns immediately. It fails with
// ErrConcurrentInvocation while a previous run has not published its outcome.
// onProgress is never called after onComplete.
func (s *Supervisor) Run(req Request, onProgress ProgressFunc, onComplete CompleteFunc) error {
	if !s.state.acquire() {
		return ErrConcurrentInvocation
	}
	if onProgress == nil {
		onProgress = func(Phase) {}
	}
	if onComplete == nil {
		onComplete = func(Outcome) {}
	}
	go s.work(req, onProgress, onComplete)
	return nil
}

func (s *Supervisor) work(req Request, onProgress ProgressFunc, onComplete CompleteFunc) {
	inv := req.Invocation
	log := s.log.With().Str("run_id", inv.ID).Str("mode", inv.Mode.String()).Logger()
	started := time.Now()
	log.Info().Str("tool", inv.Executable).Strs("args", inv.Args()).Msg("run started")

	done := make(chan Outcome, 1)
	go func() { done <- s.execute(req) }()

	ticker := time.NewTicker(s.interval)
	var out Outcome
loop:
	for {
		select {
		case <-ticker.C:
			onProgress(s.state.advance())
		case out = <-done:
			break loop
		}
	}
	ticker.Stop()

	if out.Succeeded {
		log.Info().Dur("took", time.Since(started)).Msg("run finished")
	} else {
		log.Warn().Err(out.Err).Dur("took", time.Since(started)).Msg("run failed")
	}

	s.state.publish(out)
	onComplete(out)
}

// execute never panics across the worker boundary; every path yields an Outcome.
func (s *Supervisor) execute(req Request) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("internal error: %v", r)
			out = failure(req.ErrorPrefix, err.Error(), "", err)
		}
	}()

	inv := req.Invocation
	if req.Stage != nil {
		defer req.Stage.Cleanup()
		staged, err := req.Stage.Prepare(inv)
		if err != nil {
			serr := &StageError{Step: "prepare", Err: err}
			return failure(req.ErrorPrefix, serr.Error(), "", serr)
		}
		inv = staged
	}

	res, err := s.spawner.Spawn(inv)
	if err != nil {
		return failure(req.ErrorPrefix, err.Error(), "", err)
	}
	if res.ExitCode != 0 {
		stderr := strings.TrimSpace(string(res.Stderr))
		tf := &ToolFailure{ExitCode: res.ExitCode, Stderr: stderr}
		msg := stderr
		if msg == "" {
			msg = strings.TrimSpace(string(res.Stdout))
		}
		if msg == "" {
			msg = tf.Error()
		}
		return failure(req.ErrorPrefix, msg, string(res.Stderr), tf)
	}

	if req.Stage != nil {
		if err := req.Stage.Finish(inv); err != nil {
			serr := &StageError{Step: "finish", Err: err}
			return failure(req.ErrorPrefix, serr.Error(), "", serr)
		}
	}
	return Outcome{Succeeded: true, Message: req.Success}
}

func failure(prefix, text, detail string, err error) Outcome {
	return Outcome{Succeeded: false, Message: prefix + text, Detail: detail, Err: err}
}

package entrypoint

import (
	"context"

	"go.uber.org/zap"
)

// State is the position of an Entrypoint in its single run.
type State int

const (
	StateIdle State = iota
	StateLoadingInput
	StateManagingPermissions
	StateResolvingArguments
	StateLaunching
	StateRunning
	StateFailedFatally
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoadingInput:
		return "loading-input"
	case StateManagingPermissions:
		return "managing-permissions"
	case StateResolvingArguments:
		return "resolving-arguments"
	case StateLaunching:
		return "launching"
	case StateRunning:
		return "running"
	case StateFailedFatally:
		return "failed-fatally"
	default:
		return "unknown"
	}
}

// Entrypoint runs the load, permissions, arguments, launch pipeline once.
type Entrypoint struct {
	Env      Environment
	Fetcher  Fetcher
	System   System
	Resolver InterfaceResolver
	Layout   Layout

	// EnvFilePath, when set, replaces the object storage env file with a
	// local one.
	EnvFilePath string

	state State
}

// New returns an Entrypoint wired to the real process environment, S3,
// network interfaces and OS.
func New() *Entrypoint {
	env := OSEnvironment{}
	return &Entrypoint{
		Env:      env,
		Fetcher:  NewS3Fetcher(env),
		System:   OSSystem{},
		Resolver: NetInterfaceResolver{},
		Layout:   DefaultLayout,
	}
}

// State returns the current pipeline state.
func (e *Entrypoint) State() State {
	return e.state
}

func (e *Entrypoint) transition(to State) {
	zlog.Debug("entrypoint state transition", zap.Stringer("from", e.state), zap.Stringer("to", to))
	e.state = to
}

func (e *Entrypoint) fail(stage Stage, err error) error {
	e.transition(StateFailedFatally)
	zlog.Error("entrypoint stage failed", zap.String("stage", string(stage)), zap.Error(err))
	return &StageError{Stage: stage, Err: err}
}

// Run executes the whole pipeline and execs Consul with args. On success the
// process is replaced and Run does not return.
func (e *Entrypoint) Run(ctx context.Context, args []string) error {
	inv, err := e.Prepare(ctx, args)
	if err != nil {
		return err
	}

	e.transition(StateLaunching)
	if err := Launch(e.System, inv); err != nil {
		return e.fail(StageLaunch, err)
	}

	e.transition(StateRunning)
	return nil
}

// Prepare runs every stage before launch, applying ownership, capabilities
// and configuration files, and returns the invocation to exec.
func (e *Entrypoint) Prepare(ctx context.Context, args []string) (*Invocation, error) {
	zlog.Info("running consul entrypoint", zap.Strings("args", args))

	e.transition(StateLoadingInput)
	env, err := e.loadInput(ctx)
	if err != nil {
		return nil, e.fail(StageLoadInput, err)
	}
	logEnvironment(env)

	config := LoadConfig(env)
	perms := ResolvePermissions(config)

	e.transition(StateManagingPermissions)
	if err := ManagePermissions(e.System, e.Layout, perms); err != nil {
		return nil, e.fail(StageManagePermissions, err)
	}

	e.transition(StateResolvingArguments)
	inv, err := BuildInvocation(config, perms, args, e.Layout, e.Resolver, env)
	if err != nil {
		return nil, e.fail(StageResolveArguments, err)
	}

	if err := WriteFiles(e.System, inv); err != nil {
		return nil, e.fail(StageResolveArguments, err)
	}

	return inv, nil
}

// Plan resolves the invocation without touching the filesystem or the
// binary. It does not move the state machine.
func (e *Entrypoint) Plan(ctx context.Context, args []string) (*Invocation, error) {
	env, err := e.loadInput(ctx)
	if err != nil {
		return nil, &StageError{Stage: StageLoadInput, Err: err}
	}

	config := LoadConfig(env)
	inv, err := BuildInvocation(config, ResolvePermissions(config), args, e.Layout, e.Resolver, env)
	if err != nil {
		return nil, &StageError{Stage: StageResolveArguments, Err: err}
	}

	return inv, nil
}

func (e *Entrypoint) loadInput(ctx context.Context) (*EffectiveEnvironment, error) {
	if e.EnvFilePath != "" {
		return LoadInputFromFile(e.EnvFilePath, e.Env)
	}
	return LoadInput(ctx, e.Env, e.Fetcher)
}

package entrypoint

import (
	"errors"
	"fmt"
)

// Stage names a step of the entrypoint pipeline.
type Stage string

const (
	StageLoadInput         Stage = "load-input"
	StageManagePermissions Stage = "manage-permissions"
	StageResolveArguments  Stage = "resolve-arguments"
	StageLaunch            Stage = "launch"
)

// Error kinds, one per stage. Match them with errors.Is.
var (
	ErrConfigFetch        = errors.New("config fetch error")
	ErrPermissionApply    = errors.New("permission apply error")
	ErrArgumentResolution = errors.New("argument resolution error")
	ErrLaunch             = errors.New("launch error")
)

// StageError is the fatal error produced when a pipeline stage fails.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s failed: %s", e.Stage, e.Err)
}

func (e *StageError) Unwrap() []error {
	return []error{e.Stage.kind(), e.Err}
}

// ExitCode is the process exit status used for this failure. Codes are kept
// away from the low values Consul itself exits with.
func (e *StageError) ExitCode() int {
	switch e.Stage {
	case StageLoadInput:
		return 10
	case StageManagePermissions:
		return 11
	case StageResolveArguments:
		return 12
	case StageLaunch:
		return 13
	default:
		return 1
	}
}

func (s Stage) kind() error {
	switch s {
	case StageLoadInput:
		return ErrConfigFetch
	case StageManagePermissions:
		return ErrPermissionApply
	case StageResolveArguments:
		return ErrArgumentResolution
	default:
		return ErrLaunch
	}
}

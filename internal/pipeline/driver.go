// Package pipeline executes the resolved stage sequence of a build request.
// Stages run strictly in the fixed global order config, build, mkimg, flash;
// any failure aborts the remainder immediately.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"

	"github.com/titankernel/titan-build/internal/request"
)

// StageRunner executes one pipeline stage for a request.
type StageRunner interface {
	Run(ctx context.Context, req *request.Request) error
}

// StageError reports a failed stage together with the external tool's exit
// status when one is available.
type StageError struct {
	Stage  request.Stage
	Status int
	Err    error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// ExitStatus extracts the exit code the process should terminate with for
// err: the failing tool's status for stage failures, 1 otherwise.
func ExitStatus(err error) int {
	var stageErr *StageError
	if errors.As(err, &stageErr) && stageErr.Status > 0 {
		return stageErr.Status
	}
	return 1
}

// Driver runs the stages of a request in pipeline order.
type Driver struct {
	runners map[request.Stage]StageRunner
	logger  *slog.Logger
}

// NewDriver wires the four stage implementations.
func NewDriver(logger *slog.Logger, config, build, mkimg, flash StageRunner) *Driver {
	return &Driver{
		runners: map[request.Stage]StageRunner{
			request.StageConfig: config,
			request.StageBuild:  build,
			request.StageMkimg:  mkimg,
			request.StageFlash:  flash,
		},
		logger: logger,
	}
}

// Run executes req's stages. The request's stage list is already ordered by
// the parser; the driver additionally filters against the fixed global order
// so a stage can never run ahead of an earlier one.
func (d *Driver) Run(ctx context.Context, req *request.Request) error {
	selected := make(map[request.Stage]bool, len(req.Stages))
	for _, stage := range req.Stages {
		selected[stage] = true
	}

	for _, stage := range request.AllStages {
		if !selected[stage] {
			continue
		}
		d.logger.Info("running stage", "stage", stage.String())
		if err := d.runners[stage].Run(ctx, req); err != nil {
			return &StageError{Stage: stage, Status: exitStatus(err), Err: err}
		}
		d.logger.Info("stage complete", "stage", stage.String())
	}
	return nil
}

// exitStatus digs the external tool's exit code out of the error chain.
func exitStatus(err error) int {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return 0
}

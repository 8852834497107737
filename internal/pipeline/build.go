package pipeline

import (
	"context"
	"runtime"

	"github.com/titankernel/titan-build/internal/request"
	"github.com/titankernel/titan-build/internal/tools"
)

// BuildStage compiles the kernel with one job per host processing unit.
type BuildStage struct {
	Kernel tools.Kernel

	// Jobs overrides the parallelism when positive; used by tests.
	Jobs int
}

func (b *BuildStage) Run(ctx context.Context, _ *request.Request) error {
	jobs := b.Jobs
	if jobs <= 0 {
		jobs = runtime.NumCPU()
	}
	return b.Kernel.Build(ctx, jobs)
}

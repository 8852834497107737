package request

import "fmt"

// Stage is one phase of the build pipeline. The zero value is StageConfig.
type Stage int

// Pipeline stages in their fixed global execution order.
const (
	StageConfig Stage = iota
	StageBuild
	StageMkimg
	StageFlash
)

// AllStages is the fixed pipeline order.
var AllStages = []Stage{StageConfig, StageBuild, StageMkimg, StageFlash}

var stageNames = map[string]Stage{
	"config": StageConfig,
	"build":  StageBuild,
	"mkimg":  StageMkimg,
	"flash":  StageFlash,
}

func (s Stage) String() string {
	switch s {
	case StageConfig:
		return "config"
	case StageBuild:
		return "build"
	case StageMkimg:
		return "mkimg"
	case StageFlash:
		return "flash"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// parseStage resolves a stage keyword. A ':' prefix selects only that stage
// instead of the whole pipeline prefix ending at it; ":config" is not a
// recognized keyword since plain "config" already runs configuration alone.
func parseStage(keyword string) (stage Stage, only bool, err error) {
	name := keyword
	if len(name) > 0 && name[0] == ':' {
		only = true
		name = name[1:]
	}
	stage, ok := stageNames[name]
	if !ok || (only && stage == StageConfig) {
		return 0, false, fmt.Errorf("%w: %q", ErrUnknownStage, keyword)
	}
	return stage, only, nil
}

// stagesFor expands a parsed keyword into the ordered stage list: the full
// pipeline prefix ending at the stage, or just the stage for ':' keywords.
func stagesFor(stage Stage, only bool) []Stage {
	if only {
		return []Stage{stage}
	}
	return append([]Stage(nil), AllStages[:int(stage)+1]...)
}

// Package request parses a titan-build invocation into a validated
// BuildRequest: the stage sequence to run plus the configuration overrides
// and fragment toggles that apply to it.
package request

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/titankernel/titan-build/internal/device"
	"github.com/titankernel/titan-build/internal/fragment"
)

// ModelStore is the persistent model pointer the parser reads to recover the
// last-used model and writes when a new one is chosen.
type ModelStore interface {
	ModelPointer() (device.Model, bool, error)
	SetModelPointer(device.Model) error
}

// Request is the resolved intent of one invocation. It is immutable once
// Parse returns.
type Request struct {
	Stages []Stage

	// Model is the target handset. HasModel is false for single-stage
	// invocations that run without model resolution (:build, :flash, and
	// :mkimg without an explicit model= token).
	Model    device.Model
	HasModel bool

	// Name overrides the kernel's local version string when non-empty.
	Name string

	// PatchLevel is the explicit YYYY-MM OS patch level, empty when the
	// metadata file's value should pass through.
	PatchLevel string

	Fragments *fragment.Set
}

// Usage returns the one-line invocation grammar for error output.
func Usage() string {
	return strings.Join([]string{
		"usage: titan-build <stage> [model=<model>] [name=<name>] [os_patch_level=<YYYY-MM>] [[+-]<switch>]...",
		"       titan-build :<stage>",
		"stages: config, build, mkimg, flash (each runs every earlier stage first)",
		"        :build, :mkimg, :flash (run only the named stage)",
		"models: " + joinModels(),
	}, "\n")
}

func joinModels() string {
	models := device.Models()
	names := make([]string, len(models))
	for i, m := range models {
		names[i] = string(m)
	}
	return strings.Join(names, ", ")
}

// Parse validates the raw argument list against the discovered fragment set
// and the model registry. Fragment toggles mutate frags in place; the last
// toggle for a name wins. Choosing a model persists it through store.
func Parse(logger *slog.Logger, args []string, frags *fragment.Set, store ModelStore) (*Request, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("%w: no stage given", ErrUnknownStage)
	}

	stage, only, err := parseStage(args[0])
	if err != nil {
		return nil, err
	}

	req := &Request{
		Stages:    stagesFor(stage, only),
		Fragments: frags,
	}

	tokens := args[1:]
	// Single-stage build and flash runs consume whatever configuration
	// state is already on disk; their tokens would silently change nothing.
	if only && stage != StageMkimg {
		if len(tokens) > 0 {
			logger.Warn("ignoring configuration tokens for single-stage invocation",
				"stage", stage.String(), "tokens", strings.Join(tokens, " "))
		}
		return req, nil
	}

	for _, token := range tokens {
		if strings.Contains(token, "=") {
			if err := req.applyOption(token, store); err != nil {
				return nil, err
			}
			continue
		}
		if err := req.applySwitch(token); err != nil {
			return nil, err
		}
	}

	// The config stage cannot run without a model: explicit value wins,
	// otherwise the pointer left by a previous invocation.
	if !req.HasModel && req.needsModel() {
		model, ok, err := store.ModelPointer()
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrMissingModel
		}
		req.Model = model
		req.HasModel = true
		logger.Info("recovered model from previous invocation", "model", string(model))
	}

	return req, nil
}

func (r *Request) needsModel() bool {
	for _, s := range r.Stages {
		if s == StageConfig {
			return true
		}
	}
	return false
}

func isSwitch(token string) bool {
	return len(token) > 0 && (token[0] == '+' || token[0] == '-')
}

func (r *Request) applyOption(token string, store ModelStore) error {
	key, value, _ := strings.Cut(token, "=")
	if value == "" {
		return fmt.Errorf("%w: %s", ErrEmptyConfigValue, key)
	}

	switch key {
	case "name":
		r.Name = value
	case "model":
		model, ok := device.Lookup(value)
		if !ok {
			return fmt.Errorf("%w: %q", ErrUnknownModel, value)
		}
		if err := store.SetModelPointer(model); err != nil {
			return err
		}
		r.Model = model
		r.HasModel = true
	case "os_patch_level":
		if _, err := time.Parse("2006-01", value); err != nil {
			return fmt.Errorf("%w: %q", ErrInvalidDateFormat, value)
		}
		r.PatchLevel = value
	default:
		return fmt.Errorf("%w: %q", ErrUnknownConfigKey, key)
	}
	return nil
}

func (r *Request) applySwitch(token string) error {
	if !isSwitch(token) {
		return fmt.Errorf("%w: %q", ErrInvalidSwitch, token)
	}
	enable := token[0] == '+'
	name := token[1:]

	// The magisk switch has channel-selecting variants. Enabling the bare
	// switch selects the stable channel; disabling leaves the channel as
	// previously chosen.
	setCanary, canary := false, false
	switch name {
	case fragment.MagiskName + "+canary":
		name, setCanary, canary = fragment.MagiskName, true, true
	case fragment.MagiskName + "-canary":
		name, setCanary, canary = fragment.MagiskName, true, false
	case fragment.MagiskName:
		if enable {
			setCanary = true
		}
	}

	frag, ok := r.Fragments.Get(name)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownConfig, name)
	}
	frag.Enabled = enable
	if setCanary {
		frag.Canary = canary
	}
	return nil
}

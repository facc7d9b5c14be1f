package merger

import (
	"strconv"
	"strings"

	"github.com/goplus/cmakecfg/pkgs/environment"
	"github.com/goplus/cmakecfg/pkgs/kit"
	"github.com/goplus/cmakecfg/pkgs/presets"
)

// BuildStep describes one "cmake --build" invocation derived from a
// build preset.
type BuildStep struct {
	Preset         string
	Targets        []string
	CMakeArguments []string
	ToolArguments  []string
	Configuration  string
	Enabled        bool
	Environment    []environment.Item
}

// Arguments returns the arguments following "cmake --build <dir>".
func (s BuildStep) Arguments() []string {
	var args []string
	if len(s.Targets) > 0 {
		args = append(args, "--target")
		args = append(args, s.Targets...)
	}
	if s.Configuration != "" {
		args = append(args, "--config", s.Configuration)
	}
	for _, a := range s.CMakeArguments {
		args = append(args, strings.Fields(a)...)
	}
	if len(s.ToolArguments) > 0 {
		args = append(args, "--")
		args = append(args, s.ToolArguments...)
	}
	return args
}

// BuildSteps returns one step per visible, enabled build preset that
// references the configure preset of k. Without a configuration only the
// first step is enabled; otherwise a step is enabled when its
// configuration matches buildType.
func BuildSteps(data *presets.Data, k *kit.Kit, env *environment.Environment, sourceDir, buildType string) []BuildStep {
	name, ok := PresetName(k)
	if !ok || data == nil {
		return nil
	}
	configure, _ := data.FindConfigurePreset(name)

	var steps []BuildStep
	for i := range data.BuildPresets {
		bp := &data.BuildPresets[i]
		if bp.ConfigurePreset != name || bp.Hidden {
			continue
		}
		if bp.Condition != nil && !presets.EvaluateCondition(bp, sourceDir) {
			continue
		}
		step := BuildStep{Preset: bp.Name}
		if configure != nil && (bp.InheritConfigureEnvironment == nil || *bp.InheritConfigureEnvironment) {
			step.Environment = presets.ExpandEnvItems(configure, sourceDir)
		}
		step.Environment = append(step.Environment, presets.ExpandEnvItems(bp, sourceDir)...)

		stepEnv := env.Clone()
		stepEnv.Modify(step.Environment)

		if len(bp.Targets) > 0 {
			targets := presets.ExpandString(bp, stepEnv, sourceDir, strings.Join(bp.Targets, " "))
			step.Targets = strings.Fields(targets)
		}
		if bp.Jobs != nil {
			step.CMakeArguments = append(step.CMakeArguments, "-j "+strconv.Itoa(*bp.Jobs))
		}
		if bp.Verbose != nil && *bp.Verbose {
			step.CMakeArguments = append(step.CMakeArguments, "--verbose")
		}
		if bp.CleanFirst != nil && *bp.CleanFirst {
			step.CMakeArguments = append(step.CMakeArguments, "--clean-first")
		}
		if len(bp.NativeToolOptions) > 0 {
			opts := presets.ExpandString(bp, stepEnv, sourceDir, strings.Join(bp.NativeToolOptions, " "))
			step.ToolArguments = strings.Fields(opts)
		}
		if bp.Configuration != "" {
			step.Configuration = bp.Configuration
			step.Enabled = buildType == bp.Configuration
		} else {
			step.Enabled = len(steps) == 0
		}
		steps = append(steps, step)
	}
	return steps
}

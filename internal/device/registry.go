// Package device holds the static registry of supported handset models.
package device

import (
	"fmt"
	"sort"
)

// Model identifies a supported Exynos 9820 handset by its short Samsung code.
type Model string

// Supported models and their board names. The board name selects the base
// defconfig fragment inside the kernel tree.
var boards = map[Model]string{
	"G970F": "beyond0lte",
	"G973F": "beyond1lte",
	"G975F": "beyond2lte",
	"G977B": "beyondx",
	"N970F": "d1",
	"N971N": "d1x",
	"N975F": "d2s",
	"N976B": "d2x",
}

// Lookup resolves a user-supplied model string. The second return value is
// false when the model is not in the registry.
func Lookup(name string) (Model, bool) {
	model := Model(name)
	_, ok := boards[model]
	return model, ok
}

// Models returns all supported models in sorted order.
func Models() []Model {
	all := make([]Model, 0, len(boards))
	for model := range boards {
		all = append(all, model)
	}
	sort.Slice(all, func(i, j int) bool { return all[i] < all[j] })
	return all
}

// Board returns the board name the model builds for.
func (m Model) Board() string {
	return boards[m]
}

// Defconfig returns the base defconfig fragment name for the model, relative
// to the kernel tree root.
func (m Model) Defconfig() string {
	return fmt.Sprintf("arch/arm64/configs/exynos9820-%s_defconfig", boards[m])
}

// ArgsFile returns the name of the model's mkbootimg metadata file.
func (m Model) ArgsFile() string {
	return fmt.Sprintf("mkbootimg.%s.args", m)
}

// ConfigFlag returns the kernel config symbol enabled for the model after the
// fragment merge.
func (m Model) ConfigFlag() string {
	return "CONFIG_MODEL_" + string(m)
}

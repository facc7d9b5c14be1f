package merger

import (
	"github.com/goplus/cmakecfg/pkgs/cmakeconfig"
	"github.com/goplus/cmakecfg/pkgs/environment"
	"github.com/goplus/cmakecfg/pkgs/kit"
	"github.com/goplus/cmakecfg/pkgs/presets"
)

// Layer selects the initial or the current configuration.
type Layer int

const (
	Current Layer = iota
	Initial
)

func (l Layer) String() string {
	if l == Initial {
		return "initial"
	}
	return "current"
}

// DiffChanges returns the items of edited that are new to baseline or
// differ from it in value, type or unset state, marked for layer.
func DiffChanges(baseline, edited *cmakeconfig.Store, layer Layer) *cmakeconfig.Store {
	out := &cmakeconfig.Store{}
	for _, it := range edited.Items() {
		if base, ok := baseline.Find(it.Key); ok && sameSetting(base, it) {
			continue
		}
		out.Put(cmakeconfig.Item{
			Key:       it.Key,
			Type:      it.Type,
			Value:     it.Value,
			IsUnset:   it.IsUnset,
			IsInitial: layer == Initial,
		})
	}
	return out
}

func sameSetting(a, b cmakeconfig.Item) bool {
	if a.IsUnset || b.IsUnset {
		return a.IsUnset == b.IsUnset
	}
	return a.Value == b.Value && a.Type == b.Type
}

// PresetEnvironment returns the environment changes of the configure
// preset k was created from.
func PresetEnvironment(data *presets.Data, k *kit.Kit, sourceDir string) []environment.Item {
	p, ok := findConfigurePreset(data, k)
	if !ok {
		return nil
	}
	return presets.ExpandEnvItems(p, sourceDir)
}

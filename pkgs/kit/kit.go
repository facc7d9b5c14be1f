// Package kit describes the toolchain bundle a build configuration is
// created for and the CMake arguments it contributes.
package kit

import (
	"strings"

	"github.com/qiniu/x/log"
	"golang.org/x/mod/semver"

	"github.com/goplus/cmakecfg/pkgs/cmakeconfig"
	"github.com/goplus/cmakecfg/pkgs/macro"
)

// Device types a kit can target.
const (
	DesktopDevice      = "Desktop"
	AndroidDevice      = "Android.Device.Type"
	IosDevice          = "Ios.Device.Type"
	IosSimulatorDevice = "Ios.Simulator.Type"
	WebAssemblyDevice  = "WebAssemblyDeviceType"
	QnxDevice          = "QnxOsType"
	VxWorksDevice      = "VxWorks.Device.Type"
)

// PresetMarkerKey marks kits that were created from a configure preset; its
// value is the preset name.
const PresetMarkerKey = "QTC_CMAKE_PRESET"

// Kit is the host-provided toolchain bundle.
type Kit struct {
	Name       string `hcl:"name,label"`
	DeviceType string `hcl:"device_type,optional"`
	CMake      string `hcl:"cmake,optional"`

	Generator      string `hcl:"generator,optional"`
	ExtraGenerator string `hcl:"extra_generator,optional"`
	Platform       string `hcl:"platform,optional"`
	Toolset        string `hcl:"toolset,optional"`
	MakeProgram    string `hcl:"make_program,optional"`

	// Config holds cache variables in KEY[:TYPE]=VALUE form.
	Config                  []string `hcl:"config,optional"`
	AdditionalConfiguration string   `hcl:"additional_configuration,optional"`

	Sysroot      string `hcl:"sysroot,optional"`
	TargetTriple string `hcl:"target_triple,optional"`

	TargetABI *ABI     `hcl:"target_abi,block"`
	Qt        *Qt      `hcl:"qt,block"`
	Android   *Android `hcl:"android,block"`
}

// ABI is the target ABI of the kit's C++ toolchain.
type ABI struct {
	OS        string `hcl:"os,optional"`
	Arch      string `hcl:"arch,optional"`
	WordWidth int    `hcl:"word_width,optional"`
}

// Qt is the Qt version of a kit.
type Qt struct {
	Version       string `hcl:"version"`
	InstallPrefix string `hcl:"install_prefix,optional"`
	HostPrefix    string `hcl:"host_prefix,optional"`
	QmlDebugging  bool   `hcl:"qml_debugging,optional"`
}

// Android carries the NDK/SDK data Android builds need.
type Android struct {
	NdkPlatform string   `hcl:"ndk_platform,optional"`
	Ndk         string   `hcl:"ndk,optional"`
	Sdk         string   `hcl:"sdk,optional"`
	ABIs        []string `hcl:"abis,optional"`
}

// Configuration returns the kit's declared cache variables. Malformed
// entries are skipped.
func Configuration(k *Kit) *cmakeconfig.Store {
	store := &cmakeconfig.Store{}
	if k == nil {
		return store
	}
	for _, entry := range k.Config {
		it, err := cmakeconfig.ParseItem(entry)
		if err != nil {
			log.Warnf("kit %s: ignoring config %q: %v", k.Name, entry, err)
			continue
		}
		store.Put(it)
	}
	return store
}

// GeneratorArgs returns the generator selection flags of k.
func GeneratorArgs(k *Kit) []string {
	if k == nil || k.Generator == "" {
		return nil
	}
	gen := k.Generator
	if k.ExtraGenerator != "" {
		gen = k.ExtraGenerator + " - " + k.Generator
	}
	args := []string{"-G" + gen}
	if k.Platform != "" {
		args = append(args, "-A"+k.Platform)
	}
	if k.Toolset != "" {
		args = append(args, "-T"+k.Toolset)
	}
	if k.MakeProgram != "" {
		args = append(args, "-DCMAKE_MAKE_PROGRAM:FILEPATH="+k.MakeProgram)
	}
	return args
}

// GeneratorConfig returns the generator selection as cache variables.
func GeneratorConfig(k *Kit) *cmakeconfig.Store {
	store := &cmakeconfig.Store{}
	if k == nil || k.Generator == "" {
		return store
	}
	store.Put(cmakeconfig.NewItem(cmakeconfig.GeneratorKey, cmakeconfig.Internal, k.Generator))
	if k.ExtraGenerator != "" {
		store.Put(cmakeconfig.NewItem("CMAKE_EXTRA_GENERATOR", cmakeconfig.Internal, k.ExtraGenerator))
	}
	if k.Platform != "" {
		store.Put(cmakeconfig.NewItem(cmakeconfig.GeneratorPlatformKey, cmakeconfig.Internal, k.Platform))
	}
	if k.Toolset != "" {
		store.Put(cmakeconfig.NewItem(cmakeconfig.GeneratorToolsetKey, cmakeconfig.Internal, k.Toolset))
	}
	return store
}

// IsMultiConfig reports whether the kit's generator builds several
// configurations from one build tree.
func IsMultiConfig(k *Kit) bool {
	if k == nil {
		return false
	}
	return strings.HasPrefix(k.Generator, "Visual Studio") ||
		k.Generator == "Xcode" ||
		k.Generator == "Ninja Multi-Config"
}

// PresetConfigItem returns the preset marker item of k.
func PresetConfigItem(k *Kit) (cmakeconfig.Item, bool) {
	return Configuration(k).Find(PresetMarkerKey)
}

// AdditionalArgs splits the free-form additional configuration.
func AdditionalArgs(k *Kit) []string {
	if k == nil {
		return nil
	}
	return cmakeconfig.SplitArgs(k.AdditionalConfiguration)
}

// ToArguments renders the kit configuration without expanding macros.
func ToArguments(k *Kit) []string {
	return cmakeconfig.ToArguments(Configuration(k), nil)
}

// IsIos reports whether k targets an iOS device or simulator.
func IsIos(k *Kit) bool {
	return k != nil && (k.DeviceType == IosDevice || k.DeviceType == IosSimulatorDevice)
}

// IsWindowsARM64 reports whether the kit's C++ toolchain targets 64-bit
// ARM Windows.
func IsWindowsARM64(k *Kit) bool {
	if k == nil || k.TargetABI == nil {
		return false
	}
	abi := k.TargetABI
	return strings.EqualFold(abi.OS, "windows") && strings.HasPrefix(strings.ToLower(abi.Arch), "arm") && abi.WordWidth == 64
}

// QtAtLeast reports whether the kit has a Qt of at least version v
// ("6.1.0").
func QtAtLeast(k *Kit, v string) bool {
	if k == nil || k.Qt == nil {
		return false
	}
	have := canonicalVersion(k.Qt.Version)
	if have == "" {
		return false
	}
	return semver.Compare(have, canonicalVersion(v)) >= 0
}

// QmlDebuggingSupported reports whether the kit's Qt supports QML debugging.
func QmlDebuggingSupported(k *Kit) bool {
	return k != nil && k.Qt != nil && k.Qt.QmlDebugging
}

func canonicalVersion(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return ""
	}
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	if !semver.IsValid(v) {
		return ""
	}
	return semver.Canonical(v)
}

// Macros registers the kit's %{...} variables on m.
func Macros(k *Kit, m *macro.Map) {
	m.Register("Kit:Name", "The name of the kit", func() string { return k.Name })
	m.Register("Kit:Sysroot", "The sysroot of the kit", func() string { return k.Sysroot })
	m.Register("Qt:QT_INSTALL_PREFIX", "The installation prefix of the kit's Qt", func() string {
		if k.Qt == nil {
			return ""
		}
		return k.Qt.InstallPrefix
	})
	m.Register("Qt:QT_HOST_PREFIX", "The host prefix of the kit's Qt", func() string {
		if k.Qt == nil {
			return ""
		}
		if k.Qt.HostPrefix == "" {
			return k.Qt.InstallPrefix
		}
		return k.Qt.HostPrefix
	})
}

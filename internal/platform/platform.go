// Package platform holds the per-target rules that extend the initial
// CMake command of a kit.
package platform

import (
	"path"
	"slices"
	"strings"

	"github.com/qiniu/x/log"

	"github.com/goplus/cmakecfg/pkgs/kit"
)

// Project describes the project a build configuration belongs to.
type Project struct {
	SourceDir string
	BuildDir  string
}

// Strategy appends the arguments one platform needs.
type Strategy struct {
	Tag     string
	Applies func(k *kit.Kit) bool
	Augment func(cmd []string, k *kit.Kit, p Project) []string
}

// Table is an ordered list of strategies.
type Table []Strategy

// Apply runs every strategy whose Applies matches k, in table order.
func (t Table) Apply(cmd []string, k *kit.Kit, p Project) []string {
	for _, s := range t {
		if s.Applies != nil && !s.Applies(k) {
			continue
		}
		log.Debugf("platform: applying %s rules for kit %q", s.Tag, k.Name)
		cmd = s.Augment(cmd, k, p)
	}
	return cmd
}

// Tags returns the tags of the strategies that apply to k.
func (t Table) Tags(k *kit.Kit) []string {
	var tags []string
	for _, s := range t {
		if s.Applies == nil || s.Applies(k) {
			tags = append(tags, s.Tag)
		}
	}
	return tags
}

// Qt6ToolchainArg points CMake at the toolchain file of a Qt 6 install.
const Qt6ToolchainArg = "-DCMAKE_TOOLCHAIN_FILE:FILEPATH=%{Qt:QT_INSTALL_PREFIX}/lib/cmake/Qt6/qt.toolchain.cmake"

// Placeholders for the iOS signing flags, resolved by the build configuration.
const (
	DevelopmentTeamFlag     = "Ios:DevelopmentTeam:Flag"
	ProvisioningProfileFlag = "Ios:ProvisioningProfile:Flag"
)

// Android ABI names.
const (
	AbiArmeabiV7a = "armeabi-v7a"
	AbiArm64V8a   = "arm64-v8a"
)

func deviceIs(types ...string) func(*kit.Kit) bool {
	return func(k *kit.Kit) bool {
		return k != nil && slices.Contains(types, k.DeviceType)
	}
}

// Default returns the built-in strategy table.
func Default() Table {
	return Table{
		{Tag: "android", Applies: deviceIs(kit.AndroidDevice), Augment: augmentAndroid},
		{Tag: "ios", Applies: kit.IsIos, Augment: augmentIos},
		{
			Tag: "qt6-toolchain",
			Applies: func(k *kit.Kit) bool {
				return deviceIs(kit.WebAssemblyDevice, kit.QnxDevice, kit.VxWorksDevice)(k) || kit.IsWindowsARM64(k)
			},
			Augment: func(cmd []string, k *kit.Kit, _ Project) []string {
				if kit.QtAtLeast(k, "6.0.0") {
					cmd = append(cmd, Qt6ToolchainArg)
				}
				return cmd
			},
		},
	}
}

// appendUnique appends prefix+value unless an argument with prefix exists.
func appendUnique(cmd []string, prefix, value string) []string {
	for _, arg := range cmd {
		if strings.HasPrefix(arg, prefix) {
			return cmd
		}
	}
	return append(cmd, prefix+value)
}

// PreferredAndroidABI picks the ABI to configure for.
func PreferredAndroidABI(abis []string) string {
	switch {
	case slices.Contains(abis, AbiArmeabiV7a):
		return AbiArmeabiV7a
	case len(abis) == 0 || slices.Contains(abis, AbiArm64V8a):
		return AbiArm64V8a
	}
	return abis[0]
}

func augmentAndroid(cmd []string, k *kit.Kit, _ Project) []string {
	a := k.Android
	if a == nil {
		a = &kit.Android{}
	}
	cmd = appendUnique(cmd, "-DANDROID_PLATFORM:STRING=", a.NdkPlatform)
	cmd = append(cmd,
		"-DANDROID_NDK:PATH="+a.Ndk,
		"-DCMAKE_TOOLCHAIN_FILE:FILEPATH="+path.Join(a.Ndk, "build/cmake/android.toolchain.cmake"),
		"-DANDROID_USE_LEGACY_TOOLCHAIN_FILE:BOOL=OFF",
		"-DANDROID_ABI:STRING="+PreferredAndroidABI(a.ABIs),
		"-DANDROID_STL:STRING=c++_shared",
		"-DCMAKE_FIND_ROOT_PATH:PATH=%{Qt:QT_INSTALL_PREFIX}",
	)
	if !kit.QtAtLeast(k, "6.0.0") {
		return append(cmd, "-DANDROID_SDK:PATH="+a.Sdk)
	}
	if kit.QtAtLeast(k, "6.1.0") {
		// the IDE packages the apk itself
		cmd = append(cmd, "-DQT_NO_GLOBAL_APK_TARGET_PART_OF_ALL:BOOL=ON")
		if kit.QtAtLeast(k, "6.8.0") {
			cmd = append(cmd, "-DQT_USE_TARGET_ANDROID_BUILD_DIR:BOOL=ON")
		}
	}
	return append(cmd,
		"-DQT_HOST_PATH:PATH=%{Qt:QT_HOST_PREFIX}",
		"-DANDROID_SDK_ROOT:PATH="+a.Sdk,
	)
}

func augmentIos(cmd []string, k *kit.Kit, _ Project) []string {
	if !kit.QtAtLeast(k, "6.0.0") {
		return cmd
	}
	sysroot := "iphonesimulator"
	if k.DeviceType == kit.IosDevice {
		sysroot = "iphoneos"
	}
	return append(cmd,
		Qt6ToolchainArg,
		"-DCMAKE_OSX_SYSROOT:STRING="+sysroot,
		"%{"+DevelopmentTeamFlag+"}",
		"%{"+ProvisioningProfileFlag+"}",
	)
}

package buildconfig

import (
	"github.com/goplus/cmakecfg/pkgs/cmakeconfig"
	"github.com/goplus/cmakecfg/pkgs/kit"
)

// Xcode attributes carrying the iOS code signing setup.
const (
	DevelopmentTeamKey     = "CMAKE_XCODE_ATTRIBUTE_DEVELOPMENT_TEAM"
	ProvisioningProfileKey = "CMAKE_XCODE_ATTRIBUTE_PROVISIONING_PROFILE_SPECIFIER"
)

// Signing is the code signing setup of an iOS device build.
type Signing struct {
	// AutoManaged lets Xcode pick the provisioning profile for
	// DevelopmentTeam.
	AutoManaged         bool   `yaml:"auto_managed,omitempty"`
	DevelopmentTeam     string `yaml:"development_team,omitempty"`
	ProvisioningProfile string `yaml:"provisioning_profile,omitempty"`
}

// SigningFlags returns the development team item followed by the
// provisioning profile item for iOS device kits. An automatically managed
// setup unsets the profile.
func SigningFlags(k *kit.Kit, s Signing) []cmakeconfig.Item {
	if k == nil || k.DeviceType != kit.IosDevice {
		return nil
	}
	team := cmakeconfig.NewItem(DevelopmentTeamKey, cmakeconfig.String, s.DevelopmentTeam)
	if s.AutoManaged {
		profile := cmakeconfig.Item{Key: ProvisioningProfileKey, Type: cmakeconfig.String, IsUnset: true}
		return []cmakeconfig.Item{team, profile}
	}
	if s.ProvisioningProfile == "" {
		return nil
	}
	profile := cmakeconfig.NewItem(ProvisioningProfileKey, cmakeconfig.String, s.ProvisioningProfile)
	return []cmakeconfig.Item{team, profile}
}

// SigningFlagsChanges returns the signing flags that differ from the
// configured cache. A tree that was never configured gets them from its
// initial arguments instead.
func SigningFlagsChanges(flags []cmakeconfig.Item, current *cmakeconfig.Store) *cmakeconfig.Store {
	changes := &cmakeconfig.Store{}
	if len(flags) == 0 || current.Len() == 0 {
		return changes
	}
	for _, flag := range flags {
		existing, found := current.Find(flag.Key)
		if found == flag.IsUnset || existing.Value != flag.Value {
			changes.Put(flag)
		}
	}
	return changes
}

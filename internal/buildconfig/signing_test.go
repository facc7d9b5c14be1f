package buildconfig

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/goplus/cmakecfg/pkgs/cmakeconfig"
	"github.com/goplus/cmakecfg/pkgs/kit"
)

func TestSigningFlags(t *testing.T) {
	device := &kit.Kit{DeviceType: kit.IosDevice}
	require.Nil(t, SigningFlags(&kit.Kit{DeviceType: kit.IosSimulatorDevice}, Signing{AutoManaged: true}))
	require.Nil(t, SigningFlags(device, Signing{DevelopmentTeam: "TEAM"}))

	auto := SigningFlags(device, Signing{AutoManaged: true, DevelopmentTeam: "TEAM"})
	require.Len(t, auto, 2)
	require.Equal(t, "TEAM", auto[0].Value)
	require.True(t, auto[1].IsUnset)

	manual := SigningFlags(device, Signing{DevelopmentTeam: "TEAM", ProvisioningProfile: "P"})
	require.Equal(t, []string{
		"-D" + DevelopmentTeamKey + ":STRING=TEAM",
		"-D" + ProvisioningProfileKey + ":STRING=P",
	}, cmakeconfig.ToArguments(cmakeconfig.NewStore(manual...), nil))
}

func TestSigningFlagsChanges(t *testing.T) {
	device := &kit.Kit{DeviceType: kit.IosDevice}
	auto := SigningFlags(device, Signing{AutoManaged: true, DevelopmentTeam: "TEAM"})

	require.Zero(t, SigningFlagsChanges(auto, &cmakeconfig.Store{}).Len(), "unconfigured tree")

	current := cmakeconfig.NewStore(cmakeconfig.NewItem(DevelopmentTeamKey, cmakeconfig.String, "TEAM"))
	require.Zero(t, SigningFlagsChanges(auto, current).Len())

	current.Put(cmakeconfig.NewItem(ProvisioningProfileKey, cmakeconfig.String, "OLD"))
	require.Equal(t, []string{"-U" + ProvisioningProfileKey}, cmakeconfig.ToArguments(SigningFlagsChanges(auto, current), nil))

	current = cmakeconfig.NewStore(cmakeconfig.NewItem(DevelopmentTeamKey, cmakeconfig.String, "OTHER"))
	require.Equal(t, []string{DevelopmentTeamKey}, SigningFlagsChanges(auto, current).Keys())
}

// Package buildconfig manages the configuration of one CMake build
// directory: its initial arguments, the additional options of later runs,
// the editable configuration model and the runs of the configure step.
//
// A BuildConfig is not safe for concurrent use, except for
// StopReconfigure. Events published by its controller are expected on the
// goroutine that started the run.
package buildconfig

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/qiniu/x/log"

	"github.com/goplus/cmakecfg/internal/configmodel"
	"github.com/goplus/cmakecfg/internal/events"
	"github.com/goplus/cmakecfg/internal/merger"
	"github.com/goplus/cmakecfg/internal/platform"
	"github.com/goplus/cmakecfg/internal/settings"
	"github.com/goplus/cmakecfg/pkgs/buildsys"
	"github.com/goplus/cmakecfg/pkgs/cmakeconfig"
	"github.com/goplus/cmakecfg/pkgs/environment"
	"github.com/goplus/cmakecfg/pkgs/kit"
	"github.com/goplus/cmakecfg/pkgs/macro"
	"github.com/goplus/cmakecfg/pkgs/outputparser"
	"github.com/goplus/cmakecfg/pkgs/presets"
)

// Variables registered on the macro expander of a build configuration.
const (
	QmlDebugFlagMacro   = "Qt:QML_DEBUG_FLAG"
	BuildDirectoryMacro = "BuildConfig:BuildDirectory:NativeFilePath"
)

// ErrNoController is returned when a run is requested without a
// controller.
var ErrNoController = errors.New("no cmake controller")

// Keys maintained by UpdateInitialCMakeArguments.
const (
	qmllsIniKey        = "QT_QML_GENERATE_QMLLS_INI"
	maintenanceToolKey = "QT_MAINTENANCE_TOOL"
)

var unknownMacro = regexp.MustCompile(`%\{([^}]*)\}`)

// BuildConfig is one build configuration of a project.
type BuildConfig struct {
	Kit        *kit.Kit
	Project    platform.Project
	Settings   settings.Settings
	Strategies platform.Table
	Presets    *presets.Data

	Bus        *events.Bus
	Controller buildsys.Controller
	Tasks      outputparser.TaskSink
	Model      *configmodel.Model

	initial      *cmakeconfig.Store
	initialExtra []string
	additional   string
	buildType    string
	qmlDebugging TriState
	signing      Signing
	envChanges   []environment.Item

	current *cmakeconfig.Store
	pending *cmakeconfig.Store
	parsing bool
	errMsg  string
	warning string

	macros *macro.Map
}

// New creates a build configuration for the project p built with k.
// Events of bus drive the parsing lifecycle; bus is created when nil.
func New(k *kit.Kit, p platform.Project, s settings.Settings, bus *events.Bus) *BuildConfig {
	if bus == nil {
		bus = events.NewBus()
	}
	b := &BuildConfig{
		Kit:        k,
		Project:    p,
		Settings:   s,
		Strategies: platform.Default(),
		Bus:        bus,
		Model:      configmodel.New(),
		initial:    &cmakeconfig.Store{},
		buildType:  string(BuildTypeUnknown),
		current:    &cmakeconfig.Store{},
	}
	b.registerMacros()
	b.Model.SetMacroExpander(b.macros)

	bus.ParsingStarted.Subscribe(func(struct{}) { b.parsingStarted() })
	bus.ParsingFinished.Subscribe(b.parsingFinished)
	bus.ConfigurationChanged.Subscribe(b.configurationChanged)
	bus.KitUpdated.Subscribe(func(struct{}) { b.UpdateFromKit() })
	b.UpdateFromKit()
	return b
}

func (b *BuildConfig) registerMacros() {
	b.macros = macro.New()
	b.macros.SetParent(merger.KitExpander(b.Kit))
	b.macros.Register(QmlDebugFlagMacro, "The CMake flag for QML debugging, if enabled", func() string {
		if b.qmlDebugging == Enabled {
			return QmlDebugParam
		}
		return ""
	})
	b.macros.Register(platform.DevelopmentTeamFlag, "The CMake flag for the development team", func() string {
		if flags := b.SigningFlags(); len(flags) > 0 {
			return cmakeconfig.ToArgument(flags[0], nil)
		}
		return ""
	})
	b.macros.Register(platform.ProvisioningProfileFlag, "The CMake flag for the provisioning profile", func() string {
		if flags := b.SigningFlags(); len(flags) > 1 && !flags[1].IsUnset {
			return cmakeconfig.ToArgument(flags[1], nil)
		}
		return ""
	})
	b.macros.Register(BuildDirectoryMacro, "The build directory in native form", func() string {
		return filepath.Clean(b.Project.BuildDir)
	})
	b.macros.RegisterPrefix("Env", func(name string) (string, bool) {
		return b.ConfigureEnvironment().Value(name)
	})
}

// MacroExpander returns the expander of the build configuration.
func (b *BuildConfig) MacroExpander() *macro.Map {
	return b.macros
}

// Expand resolves the %{...} variables of s. Unknown variables expand to
// nothing and are reported as warning tasks.
func (b *BuildConfig) Expand(s string) string {
	out := b.macros.Expand(s)
	return unknownMacro.ReplaceAllStringFunc(out, func(m string) string {
		name := unknownMacro.FindStringSubmatch(m)[1]
		log.Warnf("buildconfig: unknown variable %%{%s}", name)
		b.addTask(outputparser.Warning, fmt.Sprintf("Unknown variable %%{%s} expands to an empty string.", name))
		return ""
	})
}

func (b *BuildConfig) expandAll(args []string) []string {
	out := make([]string, 0, len(args))
	for _, arg := range args {
		if arg = b.Expand(arg); arg != "" {
			out = append(out, arg)
		}
	}
	return out
}

func (b *BuildConfig) addTask(severity outputparser.Severity, summary string) {
	if b.Tasks == nil {
		return
	}
	b.Tasks.Schedule(outputparser.NewTask(outputparser.BuildSystem, severity, summary), 1, 0)
}

// InitialCommand assembles the arguments of the first configure run from
// the kit, the settings, the platform strategies and the kit's configure
// preset. Preset expansion problems are reported as warning tasks.
func (b *BuildConfig) InitialCommand() []string {
	cmd := merger.BuildInitialCommand(b.Kit, b.Project, BuildTypeFromString(b.buildType).CMakeName(), b.Settings, b.Strategies)
	if b.Presets == nil {
		return cmd
	}
	cmd, warnings := merger.MergePreset(cmd, b.Presets, b.Kit, b.ConfigureEnvironment(), b.Project.SourceDir, b.Project.BuildDir)
	for _, w := range warnings {
		b.addTask(outputparser.Warning, w)
	}
	return cmd
}

// SetInitialCMakeArguments stores args as the initial configuration.
// Cache definitions become the initial items; everything else is kept
// verbatim and also becomes the additional options of later runs.
func (b *BuildConfig) SetInitialCMakeArguments(args []string) {
	b.setAllValues(args)
	b.SetAdditionalCMakeArguments(b.initialExtra)
}

func (b *BuildConfig) setAllValues(args []string) {
	store, extra, err := cmakeconfig.FromArguments(args)
	if err != nil {
		log.Warnf("buildconfig: initial arguments: %v", err)
	}
	b.initial = store
	b.initialExtra = extra
	log.Debugf("buildconfig: initial arguments %v, additional %v", cmakeconfig.ToArguments(store, nil), extra)
}

// InitialCMakeArguments returns the initial configuration items.
func (b *BuildConfig) InitialCMakeArguments() *cmakeconfig.Store {
	return b.initial.Clone()
}

// InitialCMakeOptions returns the complete initial argument list.
func (b *BuildConfig) InitialCMakeOptions() []string {
	return append(cmakeconfig.ToArguments(b.initial, nil), b.initialExtra...)
}

// SetAdditionalCMakeArguments expands args, drops those that expand to
// nothing and stores the rest.
func (b *BuildConfig) SetAdditionalCMakeArguments(args []string) {
	b.additional = cmakeconfig.JoinArgs(b.expandAll(args))
}

// AdditionalCMakeArguments returns the arguments appended to every
// reconfigure of an existing tree.
func (b *BuildConfig) AdditionalCMakeArguments() []string {
	return cmakeconfig.SplitArgs(b.additional)
}

// AdditionalCMakeOptions returns the additional arguments in joined form.
func (b *BuildConfig) AdditionalCMakeOptions() string {
	return b.additional
}

// FilterConfigArgumentsFromAdditionalCMakeArguments removes cache
// definitions from the additional options. Definitions not yet part of
// the initial configuration are added to it.
func (b *BuildConfig) FilterConfigArgumentsFromAdditionalCMakeArguments() {
	store, unknown, err := cmakeconfig.FromArguments(b.AdditionalCMakeArguments())
	if err != nil {
		log.Warnf("buildconfig: additional arguments: %v", err)
	}
	if store.Len() > 0 {
		log.Debugf("buildconfig: moving %v out of the additional arguments", store.Keys())
		b.initial.Merge(store, cmakeconfig.KeepExisting)
	}
	b.additional = cmakeconfig.JoinArgs(unknown)
}

// SetCMakeBuildType selects the build type. For single-config generators
// the change is also queued as a CMAKE_BUILD_TYPE edit.
func (b *BuildConfig) SetCMakeBuildType(bt string) {
	if bt == b.buildType {
		return
	}
	b.buildType = bt
	if !kit.IsMultiConfig(b.Kit) {
		b.EditConfiguration(cmakeconfig.NewStore(cmakeconfig.NewItem(cmakeconfig.BuildTypeKey, cmakeconfig.String, bt)))
	}
}

// CMakeBuildType returns the selected build type, picking it up from the
// pending edits, the cache or the initial configuration when it is
// Unknown.
func (b *BuildConfig) CMakeBuildType() string {
	fromConfig := func(s *cmakeconfig.Store) bool {
		if it, ok := s.Find(cmakeconfig.BuildTypeKey); ok && !it.IsUnset && it.Value != "" {
			b.buildType = it.Value
			return true
		}
		return false
	}
	if kit.IsMultiConfig(b.Kit) {
		return b.buildType
	}
	if fromConfig(b.ConfigurationChanges().Filter(func(it cmakeconfig.Item) bool { return !it.IsInitial })) {
		return b.buildType
	}
	cacheExists := b.cacheExists()
	switch {
	case b.buildType == string(BuildTypeUnknown) && cacheExists:
		config, err := cmakeconfig.FromFile(b.cachePath())
		if err != nil {
			log.Warnf("buildconfig: %v", err)
			break
		}
		fromConfig(config)
	case !cacheExists:
		fromConfig(b.initial)
	}
	return b.buildType
}

// BuildType classifies the build type of the configured tree.
func (b *BuildConfig) BuildType() BuildType {
	return BuildTypeFromCache(b.current, b.CMakeBuildType())
}

// QmlDebugging returns the QML debugging setting.
func (b *BuildConfig) QmlDebugging() TriState {
	return b.qmlDebugging
}

// SetQmlDebugging changes the QML debugging setting.
func (b *BuildConfig) SetQmlDebugging(t TriState) {
	b.qmlDebugging = t
}

// QmlDebugFlagsDelta returns the flag changes that apply the QML
// debugging setting to the configured tree.
func (b *BuildConfig) QmlDebugFlagsDelta() *cmakeconfig.Store {
	return QmlDebugFlagsDelta(b.qmlDebugging, b.current, b.cacheExists())
}

// Signing returns the code signing setup.
func (b *BuildConfig) Signing() Signing {
	return b.signing
}

// SetSigning changes the code signing setup.
func (b *BuildConfig) SetSigning(s Signing) {
	b.signing = s
}

// SigningFlags returns the code signing cache items of the kit.
func (b *BuildConfig) SigningFlags() []cmakeconfig.Item {
	return SigningFlags(b.Kit, b.signing)
}

// SigningFlagsChanges returns the signing flags the configured tree lacks.
func (b *BuildConfig) SigningFlagsChanges() *cmakeconfig.Store {
	return SigningFlagsChanges(b.SigningFlags(), b.current)
}

// SetConfigureEnvironmentChanges sets the user changes to the configure
// environment.
func (b *BuildConfig) SetConfigureEnvironmentChanges(items []environment.Item) {
	b.envChanges = append([]environment.Item(nil), items...)
	b.Bus.EnvironmentChanged.Publish(struct{}{})
}

// ConfigureEnvironmentChanges returns the user changes to the configure
// environment.
func (b *BuildConfig) ConfigureEnvironmentChanges() []environment.Item {
	return append([]environment.Item(nil), b.envChanges...)
}

// ConfigureEnvironment returns the environment cmake runs in: the system
// environment, the configure preset's environment, then the user changes.
func (b *BuildConfig) ConfigureEnvironment() *environment.Environment {
	e := environment.System()
	if b.Presets != nil {
		e.Modify(merger.PresetEnvironment(b.Presets, b.Kit, b.Project.SourceDir))
	}
	e.Modify(b.envChanges)
	return e
}

// BuildSteps returns the build steps of the kit's build presets.
func (b *BuildConfig) BuildSteps() []merger.BuildStep {
	return merger.BuildSteps(b.Presets, b.Kit, b.ConfigureEnvironment(), b.Project.SourceDir, b.CMakeBuildType())
}

// UpdateFromKit hands the kit's cache variables to the model.
func (b *BuildConfig) UpdateFromKit() {
	config := kit.Configuration(b.Kit)
	config.Merge(kit.GeneratorConfig(b.Kit), cmakeconfig.Overwrite)
	exp := merger.KitExpander(b.Kit)
	values := make(map[string]cmakeconfig.Item, config.Len())
	for _, it := range config.Items() {
		it.Value = it.ExpandedValue(exp)
		values[it.Key] = it
	}
	b.Model.SetConfigurationFromKit(values)
}

// ConfigurationChanges returns the changes the next run hands to CMake:
// QML debugging flags, signing flags and the model edits, later ones
// overriding earlier ones.
func (b *BuildConfig) ConfigurationChanges() *cmakeconfig.Store {
	changes := b.QmlDebugFlagsDelta()
	changes.Merge(b.SigningFlagsChanges(), cmakeconfig.Overwrite)
	for _, r := range b.Model.ConfigurationForCMake() {
		changes.Put(r.ToItem())
	}
	return changes
}

// ConfigurationChangesArguments renders the changes of one layer.
func (b *BuildConfig) ConfigurationChangesArguments(initial bool) []string {
	layer := b.ConfigurationChanges().Filter(func(it cmakeconfig.Item) bool { return it.IsInitial == initial })
	return cmakeconfig.ToArguments(layer, nil)
}

// EditConfiguration applies edits to the model. Edits arriving while CMake
// runs are kept and applied once it finished, the last edit of a key
// winning.
func (b *BuildConfig) EditConfiguration(edits *cmakeconfig.Store) {
	if b.parsing {
		if b.pending == nil {
			b.pending = &cmakeconfig.Store{}
		}
		b.pending.Merge(edits, cmakeconfig.Overwrite)
		return
	}
	b.Model.SetBatchEditConfiguration(edits)
}

func (b *BuildConfig) configurationChanged(args []string) {
	edits, _, err := cmakeconfig.ParseArguments(args)
	if err != nil {
		log.Warnf("buildconfig: configuration changes: %v", err)
	}
	b.EditConfiguration(b.inEditLayer(edits))
}

// inEditLayer returns edits marked for the layer the next run reads: the
// initial layer until the tree has a cache, the current layer afterwards.
func (b *BuildConfig) inEditLayer(edits *cmakeconfig.Store) *cmakeconfig.Store {
	initial := b.IsInitialConfiguration()
	out := &cmakeconfig.Store{}
	for _, it := range edits.Items() {
		it.IsInitial = initial
		out.Put(it)
	}
	return out
}

// UpdateInitialCMakeArguments folds the pending initial-layer edits and
// the settings into the initial configuration. fromReconfigure also
// resets the additional options to the unclassified initial arguments.
func (b *BuildConfig) UpdateInitialCMakeArguments(fromReconfigure bool) {
	list := b.initial.Clone()

	if b.Settings.GenerateQmllsIniFiles && !list.Has(qmllsIniKey) {
		list.Put(cmakeconfig.NewItem(qmllsIniKey, cmakeconfig.Bool, "ON"))
	}
	if b.Settings.MaintenanceToolPath != "" && !list.Has(maintenanceToolKey) {
		list.Put(cmakeconfig.NewItem(maintenanceToolKey, cmakeconfig.Filepath, b.Settings.MaintenanceToolPath))
	}

	for _, ci := range b.ConfigurationChanges().Items() {
		if !ci.IsInitial || ci.Key == "" {
			continue
		}
		if ci.IsUnset {
			list.Erase(ci.Key)
			continue
		}
		list.Put(ci)
	}

	b.updatePackageManagerAutoSetup(list)

	initial := &cmakeconfig.Store{}
	for _, it := range list.Items() {
		it.IsInitial = true
		initial.Put(it)
	}
	b.initial = initial
	log.Debugf("buildconfig: initial configuration %v", cmakeconfig.ToArguments(initial, nil))

	if fromReconfigure {
		b.SetAdditionalCMakeArguments(b.initialExtra)
	}
}

func (b *BuildConfig) updatePackageManagerAutoSetup(list *cmakeconfig.Store) {
	param, err := cmakeconfig.ParseItem(strings.TrimPrefix(merger.PackageManagerAutoSetupArg, "-D"))
	if err != nil {
		return
	}
	if it, ok := list.Find(param.Key); ok {
		if !b.Settings.PackageManagerAutoSetup && it.Value == param.Value {
			list.Erase(param.Key)
		}
		return
	}
	if b.Settings.PackageManagerAutoSetup {
		list.Put(param)
	}
}

// Error returns the configuration error, if any.
func (b *BuildConfig) Error() string {
	return b.errMsg
}

// Warning returns the last configuration warning.
func (b *BuildConfig) Warning() string {
	return b.warning
}

// Enabled reports whether the build configuration is usable, that is it
// carries no error.
func (b *BuildConfig) Enabled() bool {
	return b.errMsg == ""
}

// SetError records a configuration error and disables the build
// configuration. Setting the current error again has no effect.
func (b *BuildConfig) SetError(message string) {
	if message == "" || message == b.errMsg {
		return
	}
	log.Debugf("buildconfig: setting error to %q", message)
	wasEnabled := b.errMsg == ""
	b.errMsg = message
	if wasEnabled {
		b.Bus.EnabledChanged.Publish(false)
	}
	b.addTask(outputparser.Error, message)
	b.Bus.ErrorOccurred.Publish(message)
}

// ClearError drops the configuration error. force announces the enabled
// state even if there was no error.
func (b *BuildConfig) ClearError(force bool) {
	if b.errMsg != "" {
		b.errMsg = ""
		force = true
	}
	if force {
		b.Bus.EnabledChanged.Publish(true)
	}
}

// SetWarning records a configuration warning.
func (b *BuildConfig) SetWarning(message string) {
	if message == b.warning {
		return
	}
	b.warning = message
	if message != "" {
		b.addTask(outputparser.Warning, message)
	}
	b.Bus.WarningOccurred.Publish(message)
}

// IsParsing reports whether a configure run is in progress.
func (b *BuildConfig) IsParsing() bool {
	return b.parsing
}

// CurrentConfiguration returns the cache reported by the last successful
// run.
func (b *BuildConfig) CurrentConfiguration() *cmakeconfig.Store {
	return b.current.Clone()
}

func (b *BuildConfig) parsingStarted() {
	log.Debug("buildconfig: parsing started")
	b.parsing = true
}

func (b *BuildConfig) parsingFinished(res events.ParseResult) {
	b.parsing = false
	if !res.OK() {
		log.Debugf("buildconfig: parsing failed: %v", res.Err)
		b.SetError(res.Err.Error())
		return
	}
	b.ClearError(false)
	if res.Configuration != nil {
		b.current = res.Configuration
	}

	hasQmlDebug := HasQmlDebugging(b.current)
	if (b.qmlDebugging == Enabled && !hasQmlDebug) || (b.qmlDebugging == Disabled && hasQmlDebug) {
		b.qmlDebugging = Default
	}
	b.Model.SetConfiguration(b.current)
	b.Model.SetInitialParametersConfiguration(b.initial)
	b.FilterConfigArgumentsFromAdditionalCMakeArguments()
	b.UpdateFromKit()

	if b.pending != nil {
		log.Debugf("buildconfig: replaying %v", b.pending.Keys())
		b.Model.SetBatchEditConfiguration(b.inEditLayer(b.pending))
		b.pending = nil
	}
}

func (b *BuildConfig) cachePath() string {
	return filepath.Join(b.Project.BuildDir, cmakeconfig.CMakeCacheFile)
}

func (b *BuildConfig) cacheExists() bool {
	_, err := os.Stat(b.cachePath())
	return err == nil
}

// IsInitialConfiguration reports whether the build directory has not been
// configured yet.
func (b *BuildConfig) IsInitialConfiguration() bool {
	return !b.cacheExists()
}

// RunArguments returns the arguments of the next configure run. A fresh
// tree gets the initial arguments plus the initial-layer changes; a
// configured tree gets the current-layer changes plus the additional
// options.
func (b *BuildConfig) RunArguments() []string {
	if b.IsInitialConfiguration() {
		args := append(b.InitialCMakeOptions(), b.ConfigurationChangesArguments(true)...)
		return b.expandAll(args)
	}
	args := append(b.ConfigurationChangesArguments(false), b.AdditionalCMakeArguments()...)
	return b.expandAll(args)
}

// RunCMakeWithExtraArguments runs the configure step with the pending
// changes.
func (b *BuildConfig) RunCMakeWithExtraArguments(ctx context.Context) error {
	if b.Controller == nil {
		return ErrNoController
	}
	args := b.RunArguments()
	log.Debugf("buildconfig: configuration changes %v", args)
	if err := b.Controller.RunCMake(ctx, args, b.ConfigureEnvironment()); err != nil {
		return fmt.Errorf("failed to configure %s: %w", b.Project.BuildDir, err)
	}
	return nil
}

// ClearCMakeCache removes the cache of the build directory so that the
// next run starts from the initial arguments.
func (b *BuildConfig) ClearCMakeCache() error {
	for _, name := range []string{cmakeconfig.CMakeCacheFile, "CMakeFiles"} {
		if err := os.RemoveAll(filepath.Join(b.Project.BuildDir, name)); err != nil {
			return fmt.Errorf("failed to clear cmake cache: %w", err)
		}
	}
	b.current = &cmakeconfig.Store{}
	b.Model.SetConfiguration(b.current)
	return nil
}

// Reconfigure clears the cache, folds the pending initial changes into the
// initial arguments and configures from scratch.
func (b *BuildConfig) Reconfigure(ctx context.Context) error {
	if err := b.ClearCMakeCache(); err != nil {
		return err
	}
	b.UpdateInitialCMakeArguments(true)
	b.Model.SetInitialParametersConfiguration(b.initial)
	return b.RunCMakeWithExtraArguments(ctx)
}

// StopReconfigure stops a running configure step.
func (b *BuildConfig) StopReconfigure() {
	if b.Controller != nil {
		b.Controller.Stop()
	}
}

// State returns the persisted part of the build configuration.
func (b *BuildConfig) State() State {
	return State{
		InitialArguments:     strings.Join(b.InitialCMakeOptions(), "\n"),
		AdditionalOptions:    b.additional,
		BuildType:            b.buildType,
		QmlDebugging:         b.qmlDebugging,
		Signing:              b.signing,
		ConfigureEnvironment: b.ConfigureEnvironmentChanges(),
	}
}

// Restore replaces the persisted part of the build configuration.
func (b *BuildConfig) Restore(s State) {
	var args []string
	for _, line := range strings.Split(s.InitialArguments, "\n") {
		if line != "" {
			args = append(args, line)
		}
	}
	b.setAllValues(args)
	b.additional = s.AdditionalOptions
	b.buildType = s.BuildType
	b.qmlDebugging = s.QmlDebugging
	b.signing = s.Signing
	b.envChanges = append([]environment.Item(nil), s.ConfigureEnvironment...)
	b.Model.SetInitialParametersConfiguration(b.initial)
}

// Save writes the state file of the build directory.
func (b *BuildConfig) Save() error {
	return SaveState(StatePath(b.Project.BuildDir), b.State())
}

// Load restores the state file of the build directory. A missing file is
// reported with an error matching fs.ErrNotExist.
func (b *BuildConfig) Load() error {
	s, err := LoadState(StatePath(b.Project.BuildDir))
	if err != nil {
		return err
	}
	b.Restore(s)
	if b.cacheExists() {
		config, err := cmakeconfig.FromFile(b.cachePath())
		if err != nil {
			log.Warnf("buildconfig: %v", err)
			return nil
		}
		b.current = config
		b.Model.SetConfiguration(config)
	}
	return nil
}

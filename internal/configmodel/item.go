package configmodel

import (
	"github.com/goplus/cmakecfg/pkgs/cmakeconfig"
	"github.com/goplus/cmakecfg/pkgs/macro"
)

// Type is the editor type of a row.
type Type int

const (
	Boolean Type = iota
	File
	Directory
	String
	Unknown
)

var typeNames = [...]string{"BOOLEAN", "FILE", "DIRECTORY", "STRING", "UNKNOWN"}

func (t Type) String() string {
	if t < 0 || int(t) >= len(typeNames) {
		return "UNKNOWN"
	}
	return typeNames[t]
}

// TypeOf maps a cache type to a row type.
func TypeOf(t cmakeconfig.Type) Type {
	switch t {
	case cmakeconfig.Bool:
		return Boolean
	case cmakeconfig.Filepath:
		return File
	case cmakeconfig.Path:
		return Directory
	case cmakeconfig.String:
		return String
	}
	return Unknown
}

// CacheType maps a row type back to a cache type.
func (t Type) CacheType() cmakeconfig.Type {
	switch t {
	case Boolean:
		return cmakeconfig.Bool
	case File:
		return cmakeconfig.Filepath
	case Directory:
		return cmakeconfig.Path
	case String:
		return cmakeconfig.String
	}
	return cmakeconfig.Uninitialized
}

// DataItem is one row of the model.
type DataItem struct {
	Key         string
	Type        Type
	Value       string
	Description string
	Values      []string

	IsAdvanced   bool
	IsInitial    bool
	IsUnset      bool
	InCMakeCache bool
	IsHidden     bool

	// Edit state.
	IsUserChanged bool
	IsUserNew     bool
	NewValue      string
	KitValue      string
	InitialValue  string
}

// FromItem builds a row from a cache item.
func FromItem(it cmakeconfig.Item) DataItem {
	return DataItem{
		Key:          it.Key,
		Type:         TypeOf(it.Type),
		Value:        it.Value,
		Description:  it.Documentation,
		Values:       append([]string(nil), it.Values...),
		IsAdvanced:   it.IsAdvanced,
		IsInitial:    it.IsInitial,
		IsUnset:      it.IsUnset,
		InCMakeCache: it.InCMakeCache,
		IsHidden:     it.Type == cmakeconfig.Internal || it.Type == cmakeconfig.Static,
	}
}

// EffectiveValue is the value the row would hand to CMake.
func (d DataItem) EffectiveValue() string {
	if d.IsUserChanged {
		return d.NewValue
	}
	return d.Value
}

// ToItem converts the row back to a cache item carrying its effective
// value.
func (d DataItem) ToItem() cmakeconfig.Item {
	it := cmakeconfig.NewItem(d.Key, d.Type.CacheType(), d.EffectiveValue())
	it.Documentation = d.Description
	it.Values = append([]string(nil), d.Values...)
	it.IsAdvanced = d.IsAdvanced
	it.IsInitial = d.IsInitial
	it.IsUnset = d.IsUnset
	it.InCMakeCache = d.InCMakeCache
	return it
}

func canonical(t Type, v string) string {
	if t == Boolean && !macro.IsPlaceholder(v) {
		return cmakeconfig.NormalizeBool(v)
	}
	return v
}

// Package configmodel is the editable view over the initial and current
// CMake configuration of a build configuration. User edits are kept as a
// shadow on the rows until they are handed to CMake.
package configmodel

import (
	"regexp"
	"slices"
	"strings"

	"github.com/goplus/cmakecfg/pkgs/cmakeconfig"
	"github.com/goplus/cmakecfg/pkgs/macro"
)

// Model holds the rows of both layers. Row indexes stay valid until the
// next SetConfiguration, SetInitialParametersConfiguration,
// ResetAllChanges or Flush call.
type Model struct {
	rows []DataItem
	kit  map[string]cmakeconfig.Item
	exp  macro.Expander
}

// New returns an empty model.
func New() *Model {
	return &Model{}
}

// SetMacroExpander sets the expander used by ExpandedValue.
func (m *Model) SetMacroExpander(exp macro.Expander) {
	m.exp = exp
}

// Len returns the number of rows.
func (m *Model) Len() int {
	return len(m.rows)
}

// Row returns row i.
func (m *Model) Row(i int) DataItem {
	return m.rows[i]
}

// ExpandedValue returns the effective value of row i with %{...}
// placeholders resolved.
func (m *Model) ExpandedValue(i int) string {
	v := m.rows[i].EffectiveValue()
	if m.exp == nil {
		return v
	}
	return m.exp.Expand(v)
}

// Flush drops every row.
func (m *Model) Flush() {
	m.rows = nil
}

// SetConfiguration replaces the current layer with the cache reported by
// CMake, keeping pending user edits.
func (m *Model) SetConfiguration(current *cmakeconfig.Store) {
	items := current.Items()
	rows := make([]DataItem, 0, len(items))
	for _, it := range items {
		d := FromItem(it)
		d.IsInitial = false
		rows = append(rows, d)
	}
	m.setLayer(false, rows)
}

// SetInitialParametersConfiguration replaces the initial layer.
func (m *Model) SetInitialParametersConfiguration(initial *cmakeconfig.Store) {
	items := initial.Items()
	rows := make([]DataItem, 0, len(items))
	for _, it := range items {
		d := FromItem(it)
		d.IsInitial = true
		d.IsAdvanced = false
		rows = append(rows, d)
	}
	m.setLayer(true, rows)
}

func (m *Model) setLayer(initial bool, fresh []DataItem) {
	var old, other []DataItem
	for _, r := range m.rows {
		if r.IsInitial == initial {
			old = append(old, r)
		} else {
			other = append(other, r)
		}
	}
	merged := mergeRows(old, fresh)
	if initial {
		m.rows = append(merged, other...)
	} else {
		m.rows = append(other, merged...)
	}
	m.refresh()
}

func byKey(a, b DataItem) int {
	return strings.Compare(a.Key, b.Key)
}

// mergeRows merges freshly reported rows into the previous rows of the
// same layer. Matching keys carry the pending new value over; rows only
// present in old survive when the user changed or created them.
func mergeRows(old, fresh []DataItem) []DataItem {
	old = slices.Clone(old)
	fresh = slices.Clone(fresh)
	slices.SortStableFunc(old, byKey)
	slices.SortStableFunc(fresh, byKey)

	var out []DataItem
	i, j := 0, 0
	for i < len(old) && j < len(fresh) {
		o, n := old[i], fresh[j]
		switch {
		case o.IsUnset:
			i++
		case n.IsHidden || n.IsUnset && !n.IsInitial:
			j++
		case n.Key < o.Key:
			out = append(out, n)
			j++
		case n.Key > o.Key:
			if o.IsUserChanged || o.IsUserNew {
				out = append(out, o)
			}
			i++
		default:
			if n.Value != o.NewValue {
				n.NewValue = o.NewValue
			}
			n.IsUserChanged = n.NewValue != "" && n.NewValue != n.Value
			if !n.IsUserChanged {
				n.NewValue = ""
			}
			out = append(out, n)
			i++
			j++
		}
	}
	for ; i < len(old); i++ {
		if o := old[i]; !o.IsUnset && (o.IsUserChanged || o.IsUserNew) {
			out = append(out, o)
		}
	}
	for ; j < len(fresh); j++ {
		if n := fresh[j]; !n.IsHidden && (!n.IsUnset || n.IsInitial) {
			out = append(out, n)
		}
	}
	return out
}

// refresh recomputes the kit and initial values of every row.
func (m *Model) refresh() {
	initial := make(map[string]string)
	for _, r := range m.rows {
		if r.IsInitial && !r.IsUnset {
			initial[r.Key] = r.Value
		}
	}
	for i := range m.rows {
		r := &m.rows[i]
		r.KitValue = ""
		if it, ok := m.kit[r.Key]; ok {
			r.KitValue = canonical(r.Type, it.Value)
		}
		r.InitialValue = canonical(r.Type, initial[r.Key])
	}
}

// SetConfigurationFromKit records the cache variables the kit provides.
func (m *Model) SetConfigurationFromKit(kit map[string]cmakeconfig.Item) {
	m.kit = kit
	m.refresh()
}

// AppendConfiguration adds a user-created row.
func (m *Model) AppendConfiguration(key, value string, t Type, isInitial bool) int {
	m.rows = append(m.rows, DataItem{
		Key:       key,
		Type:      t,
		Value:     canonical(t, value),
		IsInitial: isInitial,
		IsUserNew: true,
	})
	m.refresh()
	return len(m.rows) - 1
}

// ToggleUnsetFlag flips the unset state of row i; the value is kept.
func (m *Model) ToggleUnsetFlag(i int) {
	m.rows[i].IsUnset = !m.rows[i].IsUnset
}

// SetValue edits the value of row i.
func (m *Model) SetValue(i int, value string) {
	r := &m.rows[i]
	value = canonical(r.Type, value)
	if r.IsUserNew {
		r.Value = value
		return
	}
	r.IsUserChanged = value != r.Value
	r.NewValue = ""
	if r.IsUserChanged {
		r.NewValue = value
	}
}

// SetKey renames a user-created row. Other rows cannot be renamed.
func (m *Model) SetKey(i int, key string) bool {
	r := &m.rows[i]
	if !r.IsUserNew || key == "" {
		return false
	}
	r.Key = key
	m.refresh()
	return true
}

// CanForceTo reports whether row i may be retyped to t.
func (m *Model) CanForceTo(i int, t Type) bool {
	r := m.rows[i]
	return r.Type != Unknown && r.Type != t
}

// ForceTo retypes row i and canonicalizes its values for the new type.
func (m *Model) ForceTo(i int, t Type) {
	r := &m.rows[i]
	r.Type = t
	r.Value = canonical(t, r.Value)
	if r.IsUserChanged {
		r.NewValue = canonical(t, r.NewValue)
		r.IsUserChanged = r.NewValue != r.Value
		if !r.IsUserChanged {
			r.NewValue = ""
		}
	}
	r.KitValue = canonical(t, r.KitValue)
	r.InitialValue = canonical(t, r.InitialValue)
}

// ApplyKitValue sets row i to the value provided by the kit.
func (m *Model) ApplyKitValue(i int) {
	m.applyValue(i, m.rows[i].KitValue)
}

// ApplyInitialValue sets row i to the value of the initial configuration.
func (m *Model) ApplyInitialValue(i int) {
	m.applyValue(i, m.rows[i].InitialValue)
}

func (m *Model) applyValue(i int, v string) {
	r := m.rows[i]
	// Going back to the original value is only an edit when there is a
	// pending change to undo.
	if v == "" || (v == r.Value && !r.IsUserChanged) {
		return
	}
	m.SetValue(i, v)
}

// ResetAllChanges discards the pending edits of one layer. For the
// initial layer user-created rows are dropped as well.
func (m *Model) ResetAllChanges(initial bool) {
	rows := m.rows[:0]
	for _, r := range m.rows {
		if r.IsUserNew && r.IsInitial == initial {
			continue
		}
		if r.IsInitial == initial {
			r.NewValue = ""
			r.IsUserChanged = false
			r.IsUnset = false
		}
		rows = append(rows, r)
	}
	m.rows = rows
}

// HasChanges reports whether a layer has pending edits.
func (m *Model) HasChanges(initial bool) bool {
	for _, r := range m.rows {
		if r.IsInitial == initial && (r.IsUserChanged || r.IsUserNew || r.IsUnset) {
			return true
		}
	}
	return false
}

func (m *Model) find(key string, initial bool) int {
	return slices.IndexFunc(m.rows, func(r DataItem) bool {
		return r.Key == key && r.IsInitial == initial
	})
}

// SetBatchEditConfiguration applies a set of edits in one step. Each item
// goes to the layer named by its IsInitial flag.
func (m *Model) SetBatchEditConfiguration(edits *cmakeconfig.Store) {
	for _, it := range edits.Items() {
		i := m.find(it.Key, it.IsInitial)
		if i >= 0 {
			r := &m.rows[i]
			r.IsUnset = it.IsUnset
			if !r.IsUnset {
				value := canonical(r.Type, it.Value)
				if r.IsUserNew {
					r.Value = value
					continue
				}
				r.IsUserChanged = r.Value != value
				r.NewValue = ""
				if r.IsUserChanged {
					r.NewValue = value
				}
			}
			continue
		}
		if it.IsUnset {
			continue
		}
		d := FromItem(it)
		d.IsHidden = false
		d.Value = canonical(d.Type, d.Value)
		d.IsUserNew = true
		m.rows = append(m.rows, d)
	}
	m.refresh()
}

// ConfigurationForCMake returns the rows that carry a change for CMake,
// with their effective values.
func (m *Model) ConfigurationForCMake() []DataItem {
	var out []DataItem
	for _, r := range m.rows {
		if !(r.IsUserChanged || r.IsUserNew || r.IsUnset) {
			continue
		}
		if r.IsUserChanged {
			r.Value = r.NewValue
		}
		out = append(out, r)
	}
	return out
}

// Changes returns the pending changes of one layer as cache items.
func (m *Model) Changes(initial bool) *cmakeconfig.Store {
	out := &cmakeconfig.Store{}
	for _, r := range m.ConfigurationForCMake() {
		if r.IsInitial == initial {
			out.Put(r.ToItem())
		}
	}
	return out
}

// Filter selects rows.
type Filter func(DataItem) bool

// Advanced hides advanced rows unless show is set.
func Advanced(show bool) Filter {
	return func(r DataItem) bool { return show || !r.IsAdvanced }
}

// Initial selects the rows of the initial (true) or current layer.
func Initial(initial bool) Filter {
	return func(r DataItem) bool { return r.IsInitial == initial }
}

// Text selects rows whose key or value matches re. User-created rows
// always match.
func Text(re *regexp.Regexp) Filter {
	return func(r DataItem) bool {
		return re == nil || r.IsUserNew || re.MatchString(r.Key) || re.MatchString(r.EffectiveValue())
	}
}

// Rows returns the indexes of the rows passing every filter, sorted by key.
func (m *Model) Rows(filters ...Filter) []int {
	var idx []int
next:
	for i, r := range m.rows {
		for _, f := range filters {
			if !f(r) {
				continue next
			}
		}
		idx = append(idx, i)
	}
	slices.SortStableFunc(idx, func(a, b int) int {
		return byKey(m.rows[a], m.rows[b])
	})
	return idx
}

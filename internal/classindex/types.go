// Package classindex implements the small interned lookup tables the
// flattener and SPICE emitter share across every Def in a session:
// device-type names (with their per-type SPICE parameter templates)
// and tile-layer names. Spec.md §9 calls these out by name
// (EFDevTypes[], EFLayerNames[]) as process-wide state to move into
// an explicit, session-owned value rather than a package global.
//
// Grounded on the teacher's hive/index package: a name interned to a
// stable small integer, with auxiliary per-entry data addressed by
// that integer instead of re-hashing the name on every lookup.
package classindex

// ParamTemplate is one entry from a `parameters TYPE key=template`
// record (§4.3, §4.6): the SPICE parameter name and the template
// string the emitter evaluates against a Dev's fields.
type ParamTemplate struct {
	Key      string
	Template string
}

// DeviceTypes interns device-type names to small integers and holds
// each type's parameter-template list.
type DeviceTypes struct {
	names     []string
	byName    map[string]int32
	templates [][]ParamTemplate
}

// NewDeviceTypes creates an empty table.
func NewDeviceTypes() *DeviceTypes {
	return &DeviceTypes{byName: make(map[string]int32)}
}

// Intern returns the index for name, creating an entry if needed.
func (d *DeviceTypes) Intern(name string) int32 {
	if idx, ok := d.byName[name]; ok {
		return idx
	}
	idx := int32(len(d.names))
	d.names = append(d.names, name)
	d.templates = append(d.templates, nil)
	d.byName[name] = idx
	return idx
}

// Name returns the device-type name for idx.
func (d *DeviceTypes) Name(idx int32) string { return d.names[idx] }

// SetTemplates installs (or replaces) the parameter templates for the
// device type named name, interning it if necessary (§4.3
// `parameters` record).
func (d *DeviceTypes) SetTemplates(name string, templates []ParamTemplate) {
	idx := d.Intern(name)
	d.templates[idx] = templates
}

// Templates returns the parameter templates for idx, or nil if none
// were installed.
func (d *DeviceTypes) Templates(idx int32) []ParamTemplate {
	return d.templates[idx]
}

// LayerNames interns tile-layer names to small integers, used by
// EFNode.LayerType and Attribute.LayerType.
type LayerNames struct {
	names  []string
	byName map[string]int32
}

// NewLayerNames creates an empty table.
func NewLayerNames() *LayerNames {
	return &LayerNames{byName: make(map[string]int32)}
}

// Intern returns the index for name, creating an entry if needed.
func (l *LayerNames) Intern(name string) int32 {
	if idx, ok := l.byName[name]; ok {
		return idx
	}
	idx := int32(len(l.names))
	l.names = append(l.names, name)
	l.byName[name] = idx
	return idx
}

// Name returns the layer name for idx.
func (l *LayerNames) Name(idx int32) string { return l.names[idx] }

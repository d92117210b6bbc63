package spice

import (
	"fmt"
	"strings"

	"github.com/rtimothyedwards/extflat/internal/classindex"
	"github.com/rtimothyedwards/extflat/internal/devmodel"
	"github.com/rtimothyedwards/extflat/internal/nodetable"
	"github.com/rtimothyedwards/extflat/pkg/efmodel"
)

// InstanceCounters hands out the per-class fallback instance numbers
// used when a device's identifying terminal carries no usable
// attribute string (§4.7: "generated from a per-class counter"). One
// set of counters is scoped to a single emitted file.
type InstanceCounters struct {
	next map[efmodel.DevClass]int
}

// NewInstanceCounters creates an empty set of per-class counters.
func NewInstanceCounters() *InstanceCounters {
	return &InstanceCounters{next: make(map[efmodel.DevClass]int)}
}

func (c *InstanceCounters) alloc(class efmodel.DevClass) int {
	n := c.next[class]
	c.next[class] = n + 1
	return n
}

// classPrefix is the line-leading letter §4.7 assigns each device
// class.
func classPrefix(class efmodel.DevClass) byte {
	switch class {
	case efmodel.DevFET, efmodel.DevMOSFET, efmodel.DevAsymFET:
		return 'M'
	case efmodel.DevBJT:
		return 'Q'
	case efmodel.DevDiodeN, efmodel.DevDiodeP:
		return 'D'
	case efmodel.DevRes:
		return 'R'
	case efmodel.DevCap, efmodel.DevCapReverse:
		return 'C'
	case efmodel.DevVSource:
		return 'V'
	case efmodel.DevSubckt, efmodel.DevMSubckt, efmodel.DevRSubckt, efmodel.DevCSubckt:
		return 'X'
	default:
		return '?'
	}
}

// instanceID picks the device's instance identifier: the gate
// terminal's attribute string, when FET-like and non-role-marker, for
// stability across re-extraction, otherwise a fresh per-class counter
// value (§4.7).
func instanceID(dev efmodel.Dev, counters *InstanceCounters) string {
	if dev.Class.IsFETLike() && len(dev.Terms) > termGateIdx {
		attr := dev.Terms[termGateIdx].Attr
		if attr != "" && attr != "S" && attr != "D" && !strings.HasPrefix(attr, "ext:") {
			return sanitizeID(attr)
		}
	}
	return fmt.Sprintf("%d", counters.alloc(dev.Class))
}

func sanitizeID(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', ',', '=':
			return '_'
		default:
			return r
		}
	}, s)
}

const (
	termDrainIdx = 0
	termGateIdx  = 1
	termSourceIdx = 2
)

// RenderOptions configures device and header emission.
type RenderOptions struct {
	Flavor Flavor
	// TeeNetwork records the resistor-tee option. DeviceLine does not
	// read it: a resistor is always rendered as a single R line, with
	// no R<n>A/R<n>B split around a center node.
	TeeNetwork bool
}

// DeviceLine renders one device instance as a single SPICE line
// (without a trailing newline), using namer for node names and types
// for the device's model name and parameter templates.
func DeviceLine(opts RenderOptions, table *nodetable.Table, namer *Namer, types *classindex.DeviceTypes, dev efmodel.Dev, counters *InstanceCounters, apt *AreaPerimTracker) (string, error) {
	prefix := classPrefix(dev.Class)
	id := instanceID(dev, counters)

	nodeNames, err := deviceNodes(dev, table, namer)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%c%s", prefix, id)
	for _, nn := range nodeNames {
		b.WriteByte(' ')
		b.WriteString(nn)
	}

	model := ""
	if dev.Type >= 0 {
		model = types.Name(dev.Type)
	}
	switch dev.Class {
	case efmodel.DevRes:
		if model != "" {
			b.WriteByte(' ')
			b.WriteString(model)
		} else {
			b.WriteByte(' ')
			b.WriteString(SIValue(dev.Resistance))
		}
	case efmodel.DevCap, efmodel.DevCapReverse:
		if model != "" {
			b.WriteByte(' ')
			b.WriteString(model)
		} else {
			b.WriteByte(' ')
			b.WriteString(SIValue(dev.Capacitance))
		}
	case efmodel.DevVSource:
		b.WriteString(" 0.0")
	default:
		if model != "" {
			b.WriteByte(' ')
			b.WriteString(model)
		}
	}

	for _, p := range renderParams(dev, types) {
		b.WriteByte(' ')
		b.WriteString(p)
	}

	for i, t := range dev.Terms {
		if !t.HasAreaPerim && !hasNodeAreaPerim(table, t.Node) {
			continue
		}
		ap := terminalAreaPerim(table, apt, t, i)
		if ap.Area == 0 && ap.Perim == 0 {
			continue
		}
		fmt.Fprintf(&b, " a%d=%s p%d=%s", i, SIValue(ap.Area), i, SIValue(ap.Perim))
	}

	return b.String(), nil
}

func hasNodeAreaPerim(table *nodetable.Table, id efmodel.NodeID) bool {
	if id == efmodel.NilNodeID {
		return false
	}
	return len(table.Node(id).AreaPerim) > 0
}

func terminalAreaPerim(table *nodetable.Table, apt *AreaPerimTracker, t efmodel.DevTerm, class int) efmodel.AreaPerim {
	if t.HasAreaPerim && hierarchicalAP(t.Attr) {
		return apt.Take(t.Node, class, t.AreaPerim)
	}
	if t.Node == efmodel.NilNodeID {
		return efmodel.AreaPerim{}
	}
	n := table.Node(t.Node)
	if class >= len(n.AreaPerim) {
		return efmodel.AreaPerim{}
	}
	return apt.Take(t.Node, class, n.AreaPerim[class])
}

// deviceNodes returns the node-name list in the class-specific order
// §4.7 specifies, plus any extra SUBCKT terminals beyond the fixed
// positions.
func deviceNodes(dev efmodel.Dev, table *nodetable.Table, namer *Namer) (names []string, err error) {
	name := func(id efmodel.NodeID) (string, error) {
		if id == efmodel.NilNodeID {
			return "0", nil
		}
		return namer.Name(table, id)
	}

	term := func(i int) efmodel.NodeID {
		if i < 0 || i >= len(dev.Terms) {
			return efmodel.NilNodeID
		}
		return dev.Terms[i].Node
	}

	switch dev.Class {
	case efmodel.DevFET, efmodel.DevMOSFET, efmodel.DevAsymFET:
		ids := []efmodel.NodeID{term(termDrainIdx), term(termGateIdx), term(termSourceIdx), dev.Substrate}
		names, err = nameAll(ids, name)
		return names, err

	case efmodel.DevBJT:
		gate := term(termGateIdx)
		base := term(termDrainIdx)
		if base == gate {
			base = term(termSourceIdx)
		}
		ids := []efmodel.NodeID{dev.Substrate, gate, base}
		names, err = nameAll(ids, name)
		return names, err

	case efmodel.DevDiodeP:
		anode := term(termGateIdx)
		cathode := term(termSourceIdx)
		if cathode == efmodel.NilNodeID {
			cathode = dev.Substrate
		}
		names, err = nameAll([]efmodel.NodeID{anode, cathode}, name)
		return names, err

	case efmodel.DevDiodeN:
		cathode := term(termSourceIdx)
		if cathode == efmodel.NilNodeID {
			cathode = dev.Substrate
		}
		anode := term(termGateIdx)
		names, err = nameAll([]efmodel.NodeID{cathode, anode}, name)
		return names, err

	case efmodel.DevRes, efmodel.DevCap:
		names, err = nameAll([]efmodel.NodeID{term(0), term(1)}, name)
		return names, err

	case efmodel.DevCapReverse:
		names, err = nameAll([]efmodel.NodeID{term(1), term(0)}, name)
		return names, err

	case efmodel.DevVSource:
		names, err = nameAll([]efmodel.NodeID{term(0), term(1)}, name)
		return names, err

	case efmodel.DevSubckt, efmodel.DevRSubckt, efmodel.DevCSubckt:
		ids := subcktTerminals(dev, false)
		names, err = nameAll(ids, name)
		return names, err

	case efmodel.DevMSubckt:
		ids := subcktTerminals(dev, true)
		names, err = nameAll(ids, name)
		return names, err

	default:
		return nil, fmt.Errorf("spice: unrenderable device class %d", dev.Class)
	}
}

// subcktTerminals assembles "gate, [source, [drain, [sub]]], extras"
// (or drain-first for MSUBCKT), omitting the gate for R/C-subckt
// classes where it is only an identifier, not a net (§4.7).
func subcktTerminals(dev efmodel.Dev, drainFirst bool) []efmodel.NodeID {
	term := func(i int) efmodel.NodeID {
		if i < 0 || i >= len(dev.Terms) {
			return efmodel.NilNodeID
		}
		return dev.Terms[i].Node
	}

	var ids []efmodel.NodeID
	if dev.Class != efmodel.DevRSubckt && dev.Class != efmodel.DevCSubckt {
		ids = append(ids, term(termGateIdx))
	}
	if drainFirst {
		ids = append(ids, term(termDrainIdx), term(termSourceIdx))
	} else {
		ids = append(ids, term(termSourceIdx), term(termDrainIdx))
	}
	if dev.Substrate != efmodel.NilNodeID {
		ids = append(ids, dev.Substrate)
	}
	for i := 3; i < len(dev.Terms); i++ {
		ids = append(ids, term(i))
	}
	return ids
}

func nameAll(ids []efmodel.NodeID, name func(efmodel.NodeID) (string, error)) ([]string, error) {
	out := make([]string, len(ids))
	for i, id := range ids {
		s, err := name(id)
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}

// renderParams evaluates dev's device type's parameter templates via
// devmodel.EvalTemplate, formatting evaluated results with SIValue and
// passing unrecognized templates through verbatim (§4.6).
func renderParams(dev efmodel.Dev, types *classindex.DeviceTypes) []string {
	if dev.Type < 0 {
		return nil
	}
	templates := types.Templates(dev.Type)
	out := make([]string, 0, len(templates)+len(dev.Params))
	for _, tpl := range templates {
		v, ok, err := devmodel.EvalTemplate(tpl.Template, dev)
		if err != nil {
			out = append(out, fmt.Sprintf("%s=%s", tpl.Key, tpl.Template))
			continue
		}
		if ok {
			out = append(out, fmt.Sprintf("%s=%s", tpl.Key, SIValue(v)))
		} else {
			out = append(out, fmt.Sprintf("%s=%s", tpl.Key, tpl.Template))
		}
	}
	for _, p := range dev.Params {
		if p.HasValue {
			out = append(out, fmt.Sprintf("%s=%s", p.Name, SIValue(p.Value)))
		} else {
			out = append(out, fmt.Sprintf("%s=%s", p.Name, p.Verbatim))
		}
	}
	return out
}

package extreader

import (
	"strconv"
	"strings"

	"github.com/rtimothyedwards/extflat/internal/classindex"
	"github.com/rtimothyedwards/extflat/pkg/efmodel"
)

func (r *Reader) handleScale(st *defState, line int, toks []string) error {
	if err := need(st, line, toks, 4); err != nil {
		return err
	}
	internal, err := parseInt(st, line, toks[1])
	if err != nil {
		return err
	}
	lambda, err := parseInt(st, line, toks[2])
	if err != nil {
		return err
	}
	cif, err := parseInt(st, line, toks[3])
	if err != nil {
		return err
	}
	st.def.Scale = efmodel.Scale{Internal: int32(internal), Lambda: int32(lambda), CIF: int32(cif)}
	return nil
}

func (r *Reader) handleResistClasses(st *defState, line int, toks []string) error {
	if err := need(st, line, toks, 2); err != nil {
		return err
	}
	n, err := parseInt(st, line, toks[1])
	if err != nil {
		return err
	}
	return r.Reg.SetResistClasses(int(n))
}

func (r *Reader) handleUse(st *defState, line int, toks []string) error {
	if err := need(st, line, toks, 9); err != nil {
		return err
	}
	id, xr, yr, err := parseUseArrays(toks[2])
	if err != nil {
		return badFile(st.file, line, toks[2], err.Error())
	}
	var t efmodel.Transform
	for i := 0; i < 6; i++ {
		v, err := parseInt(st, line, toks[3+i])
		if err != nil {
			return err
		}
		t[i] = v
	}
	child := r.Reg.GetOrCreate(toks[1])
	// Uses are prepended, so Def.Uses holds them in reverse of source order.
	st.def.Uses = append([]efmodel.Use{{ID: id, Child: child, Transform: t, X: xr, Y: yr}}, st.def.Uses...)
	return nil
}

// areaPerimFields parses trailing "area perim area perim ..." pairs
// starting at toks[from], returning one AreaPerim per pair.
func areaPerimFields(st *defState, line int, toks []string, from int) ([]efmodel.AreaPerim, error) {
	rest := toks[from:]
	if len(rest)%2 != 0 {
		return nil, badFile(st.file, line, strings.Join(rest, " "), "area/perim fields must come in pairs")
	}
	out := make([]efmodel.AreaPerim, 0, len(rest)/2)
	for i := 0; i < len(rest); i += 2 {
		a, err := parseFloat(st, line, rest[i])
		if err != nil {
			return nil, err
		}
		p, err := parseFloat(st, line, rest[i+1])
		if err != nil {
			return nil, err
		}
		out = append(out, efmodel.AreaPerim{Area: a, Perim: p})
	}
	return out, nil
}

func (r *Reader) handleNode(st *defState, line int, toks []string, substrate bool) error {
	if err := need(st, line, toks, 7); err != nil {
		return err
	}
	res, err := parseFloat(st, line, toks[2])
	if err != nil {
		return err
	}
	nodeCap, err := parseFloat(st, line, toks[3])
	if err != nil {
		return err
	}
	x, err := parseInt(st, line, toks[4])
	if err != nil {
		return err
	}
	y, err := parseInt(st, line, toks[5])
	if err != nil {
		return err
	}
	layer := r.Layers.Intern(toks[6])
	ap, err := areaPerimFields(st, line, toks, 7)
	if err != nil {
		return err
	}

	h := r.Pool.Intern(efmodel.NilHierName, toks[1])
	id := st.table.EnsureNamed(h)
	n := st.table.Node(id)
	n.Resistance += res
	n.SubstrateCap += nodeCap
	n.Loc = efmodel.Rect{X0: int32(x), Y0: int32(y), X1: int32(x) + 1, Y1: int32(y) + 1}
	n.LayerType = layer
	n.HasLoc = true
	if substrate {
		n.Flags |= efmodel.NodeSubstrate
	}
	if st.afterKill {
		n.Flags |= efmodel.NodeAfterKill
	}
	for i, v := range ap {
		for i >= len(n.AreaPerim) {
			n.AreaPerim = append(n.AreaPerim, efmodel.AreaPerim{})
		}
		n.AreaPerim[i].Area += v.Area
		n.AreaPerim[i].Perim += v.Perim
	}
	return nil
}

func (r *Reader) handleEquiv(st *defState, line int, toks []string) error {
	if err := need(st, line, toks, 3); err != nil {
		return err
	}
	ha := r.Pool.Intern(efmodel.NilHierName, toks[1])
	hb := r.Pool.Intern(efmodel.NilHierName, toks[2])

	idA, okA := st.table.Lookup(ha)
	idB, okB := st.table.Lookup(hb)
	switch {
	case !okA && !okB:
		id := st.table.EnsureNamed(ha)
		st.table.AddAlias(id, hb, -1)
	case okA && !okB:
		st.table.AddAlias(idA, hb, -1)
	case !okA && okB:
		st.table.AddAlias(idB, ha, -1)
	default:
		if idA != idB {
			st.table.Merge(idA, idB)
		}
	}
	return nil
}

func (r *Reader) handleAttr(st *defState, line int, toks []string) error {
	if err := need(st, line, toks, 7); err != nil {
		return err
	}
	var coords [4]int64
	for i := 0; i < 4; i++ {
		v, err := parseInt(st, line, toks[2+i])
		if err != nil {
			return err
		}
		coords[i] = v
	}
	layer := r.Layers.Intern(toks[6])
	text := ""
	if len(toks) > 7 {
		text = strings.Trim(strings.Join(toks[7:], " "), `"`)
	}

	h := r.Pool.Intern(efmodel.NilHierName, toks[1])
	id, ok := st.table.Lookup(h)
	if !ok {
		return nodeMissingWarning(h)
	}
	n := st.table.Node(id)
	attr := efmodel.Attribute{
		Text:      text,
		Rect:      efmodel.Rect{X0: int32(coords[0]), Y0: int32(coords[1]), X1: int32(coords[2]), Y1: int32(coords[3])},
		LayerType: layer,
	}
	// attr records prepend: the head of Attrs is always the most
	// recently read record (§4.3).
	n.Attrs = append([]efmodel.Attribute{attr}, n.Attrs...)
	return nil
}

func (r *Reader) handleMerge(st *defState, line int, toks []string) error {
	if err := need(st, line, toks, 4); err != nil {
		return err
	}
	n1, err := parseConnName(toks[1])
	if err != nil {
		return badFile(st.file, line, toks[1], err.Error())
	}
	n2, err := parseConnName(toks[2])
	if err != nil {
		return badFile(st.file, line, toks[2], err.Error())
	}
	delta, err := parseFloat(st, line, toks[3])
	if err != nil {
		return err
	}
	ap, err := areaPerimFields(st, line, toks, 4)
	if err != nil {
		return err
	}
	st.def.Connections = append(st.def.Connections, efmodel.Connection{
		Name1: n1, Name2: n2, Value: delta, Delta: ap,
	})
	return nil
}

func (r *Reader) handleCapResist(st *defState, line int, toks []string, isResist bool) error {
	if err := need(st, line, toks, 4); err != nil {
		return err
	}
	n1, err := parseConnName(toks[1])
	if err != nil {
		return badFile(st.file, line, toks[1], err.Error())
	}
	n2, err := parseConnName(toks[2])
	if err != nil {
		return badFile(st.file, line, toks[2], err.Error())
	}
	val, err := parseFloat(st, line, toks[3])
	if err != nil {
		return err
	}
	c := efmodel.Connection{Name1: n1, Name2: n2, Value: val, IsResist: isResist}
	if isResist {
		st.def.Resistors = append(st.def.Resistors, c)
	} else {
		st.def.Caps = append(st.def.Caps, c)
	}
	return nil
}

func (r *Reader) handleKillnode(st *defState, line int, toks []string) error {
	if err := need(st, line, toks, 2); err != nil {
		return err
	}
	h := r.Pool.Intern(efmodel.NilHierName, toks[1])
	st.def.Kills = append(st.def.Kills, efmodel.Kill{Name: h})
	st.afterKill = true
	return nil
}

func (r *Reader) handleSubcircuit(st *defState, line int, toks []string) error {
	if err := need(st, line, toks, 6); err != nil {
		return err
	}
	idx, err := parseInt(st, line, toks[2])
	if err != nil {
		return err
	}
	x, err := parseInt(st, line, toks[3])
	if err != nil {
		return err
	}
	y, err := parseInt(st, line, toks[4])
	if err != nil {
		return err
	}
	layer := r.Layers.Intern(toks[5])

	h := r.Pool.Intern(efmodel.NilHierName, toks[1])
	id, ok := st.table.Lookup(h)
	if !ok {
		return nodeMissingWarning(h)
	}
	n := st.table.Node(id)
	n.Flags |= efmodel.NodePort
	if !n.HasLoc {
		n.Loc = efmodel.Rect{X0: int32(x), Y0: int32(y), X1: int32(x) + 1, Y1: int32(y) + 1}
		n.LayerType = layer
		n.HasLoc = true
	}
	st.table.SetCanonicalPort(id, int32(idx))
	return nil
}

func (r *Reader) handleDistance(st *defState, line int, toks []string) error {
	if err := need(st, line, toks, 5); err != nil {
		return err
	}
	a := r.Pool.Intern(efmodel.NilHierName, toks[1])
	b := r.Pool.Intern(efmodel.NilHierName, toks[2])
	min, err := parseFloat(st, line, toks[3])
	if err != nil {
		return err
	}
	max, err := parseFloat(st, line, toks[4])
	if err != nil {
		return err
	}
	st.def.Distances = append(st.def.Distances, efmodel.DistanceRecord{A: a, B: b, Min: min, Max: max})
	return nil
}

func (r *Reader) handleParameters(st *defState, line int, toks []string) error {
	if err := need(st, line, toks, 2); err != nil {
		return err
	}
	var templates []classindex.ParamTemplate
	for _, tok := range toks[2:] {
		kv := strings.SplitN(tok, "=", 2)
		if len(kv) != 2 {
			return badFile(st.file, line, tok, "expected key=template")
		}
		templates = append(templates, classindex.ParamTemplate{Key: kv[0], Template: kv[1]})
	}
	r.Types.SetTemplates(toks[1], templates)
	return nil
}

// devClassByKeyword maps a `device` record's CLASS field to the
// corresponding efmodel.DevClass (§4.3).
var devClassByKeyword = map[string]efmodel.DevClass{
	"fet":     efmodel.DevFET,
	"mosfet":  efmodel.DevMOSFET,
	"asymfet": efmodel.DevAsymFET,
	"bjt":     efmodel.DevBJT,
	"diode_n": efmodel.DevDiodeN,
	"diode_p": efmodel.DevDiodeP,
	"res":     efmodel.DevRes,
	"cap":     efmodel.DevCap,
	"cap_rev": efmodel.DevCapReverse,
	"subckt":  efmodel.DevSubckt,
	"msubckt": efmodel.DevMSubckt,
	"rsubckt": efmodel.DevRSubckt,
	"csubckt": efmodel.DevCSubckt,
	"vsource": efmodel.DevVSource,
}

func (r *Reader) handleDevice(st *defState, line int, toks []string) error {
	if err := need(st, line, toks, 7); err != nil {
		return err
	}
	class, ok := devClassByKeyword[toks[1]]
	if !ok {
		return badFile(st.file, line, toks[1], "unrecognized device class")
	}
	typeIdx := r.Types.Intern(toks[2])

	x1, err := parseInt(st, line, toks[3])
	if err != nil {
		return err
	}
	y1, err := parseInt(st, line, toks[4])
	if err != nil {
		return err
	}
	x2, err := parseInt(st, line, toks[5])
	if err != nil {
		return err
	}
	y2, err := parseInt(st, line, toks[6])
	if err != nil {
		return err
	}

	dev := efmodel.Dev{
		Class:     class,
		Type:      typeIdx,
		Substrate: efmodel.NilNodeID,
		Loc:       efmodel.Rect{X0: int32(x1), Y0: int32(y1), X1: int32(x2), Y1: int32(y2)},
	}

	idx := 7
	switch {
	case class.IsFETLike() || class == efmodel.DevBJT:
		if err := need(st, line, toks, idx+2); err != nil {
			return err
		}
		length, err := parseFloat(st, line, toks[idx])
		if err != nil {
			return err
		}
		width, err := parseFloat(st, line, toks[idx+1])
		if err != nil {
			return err
		}
		dev.Length, dev.Width = length, width
		idx += 2
	case class == efmodel.DevRes:
		if err := need(st, line, toks, idx+1); err != nil {
			return err
		}
		v, err := parseFloat(st, line, toks[idx])
		if err != nil {
			return err
		}
		dev.Resistance = v
		idx++
	case class == efmodel.DevCap || class == efmodel.DevCapReverse:
		if err := need(st, line, toks, idx+1); err != nil {
			return err
		}
		v, err := parseFloat(st, line, toks[idx])
		if err != nil {
			return err
		}
		dev.Capacitance = v
		idx++
	}

	for idx < len(toks) && strings.Contains(toks[idx], "=") && !strings.HasPrefix(toks[idx], "=") {
		kv := strings.SplitN(toks[idx], "=", 2)
		p := efmodel.Param{Name: kv[0]}
		if v, err := strconv.ParseFloat(kv[1], 64); err == nil {
			p.Value, p.HasValue = v, true
		} else {
			p.Verbatim = kv[1]
		}
		dev.Params = append(dev.Params, p)
		idx++
	}

	terms, err := parseDevTerms(r, st, line, toks[idx:])
	if err != nil {
		return err
	}
	dev.Terms = terms
	st.def.Devices = append(st.def.Devices, dev)
	return nil
}

func (r *Reader) handleLegacyFet(st *defState, line int, toks []string) error {
	if err := need(st, line, toks, 9); err != nil {
		return err
	}
	typeIdx := r.Types.Intern(toks[1])
	x1, err := parseInt(st, line, toks[2])
	if err != nil {
		return err
	}
	y1, err := parseInt(st, line, toks[3])
	if err != nil {
		return err
	}
	x2, err := parseInt(st, line, toks[4])
	if err != nil {
		return err
	}
	y2, err := parseInt(st, line, toks[5])
	if err != nil {
		return err
	}
	area, err := parseFloat(st, line, toks[6])
	if err != nil {
		return err
	}
	perim, err := parseFloat(st, line, toks[7])
	if err != nil {
		return err
	}

	subs := efmodel.NilNodeID
	if toks[8] != "-" {
		h := r.Pool.Intern(efmodel.NilHierName, toks[8])
		_, existed := st.table.Lookup(h)
		subs = st.table.EnsureNamed(h)
		if !existed {
			n := st.table.Node(subs)
			if !n.Flags.Has(efmodel.NodeSubstrate) {
				n.Flags |= efmodel.NodeImplicitSubstrate
				st.def.Flags |= efmodel.DefImplicitSubstrate
			}
		}
	}

	length := legacyFETLength(area, perim)
	width := legacyFETWidth(area, length)

	dev := efmodel.Dev{
		Class:     efmodel.DevFET,
		Type:      typeIdx,
		Area:      area,
		Perim:     perim,
		Length:    length,
		Width:     width,
		Substrate: subs,
		Loc:       efmodel.Rect{X0: int32(x1), Y0: int32(y1), X1: int32(x2), Y1: int32(y2)},
	}

	terms, err := parseDevTerms(r, st, line, toks[9:])
	if err != nil {
		return err
	}
	dev.Terms = terms
	st.def.Devices = append(st.def.Devices, dev)
	return nil
}

// parseDevTerms parses the trailing TERM list of a `device` or `fet`
// record: groups of (name, length, attrs), attrs "-" meaning none.
func parseDevTerms(r *Reader, st *defState, line int, rest []string) ([]efmodel.DevTerm, error) {
	if len(rest)%3 != 0 {
		return nil, badFile(st.file, line, strings.Join(rest, " "), "device terminal list must come in (node, length, attrs) triples")
	}
	terms := make([]efmodel.DevTerm, 0, len(rest)/3)
	for i := 0; i < len(rest); i += 3 {
		length, err := parseFloat(st, line, rest[i+1])
		if err != nil {
			return nil, err
		}
		attr := rest[i+2]
		if attr == "-" {
			attr = ""
		}
		h := r.Pool.Intern(efmodel.NilHierName, rest[i])
		id := st.table.EnsureNamed(h)
		n := st.table.Node(id)
		n.Flags |= efmodel.NodeDeviceTerminal
		terms = append(terms, efmodel.DevTerm{Node: id, Length: length, Attr: attr})
	}
	return terms, nil
}

// nodeMissingWarning reports the NodeMissing kind of spec.md §7: a
// reference to an undeclared node, skipped rather than fatal.
func nodeMissingWarning(h efmodel.HierName) error {
	return &NodeMissingWarning{Name: h}
}

// NodeMissingWarning reports a reference to an undeclared node.
type NodeMissingWarning struct {
	Name efmodel.HierName
}

func (e *NodeMissingWarning) Error() string { return "extreader: reference to undeclared node" }

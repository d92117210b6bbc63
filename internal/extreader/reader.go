// Package extreader parses the .ext record stream of spec.md §4.3/§6
// into a Def's population: nodes, devices, connections, caps,
// resistors, kills, parameters, and child Uses.
//
// Grounded on the teacher's internal/regtext line-oriented record
// scanner (bufio.Scanner over the file, one keyword dispatch per
// line) generalized from .reg-file syntax to the .ext keyword set.
package extreader

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/rtimothyedwards/extflat/internal/classindex"
	"github.com/rtimothyedwards/extflat/internal/defreg"
	"github.com/rtimothyedwards/extflat/internal/hiername"
	"github.com/rtimothyedwards/extflat/internal/nodetable"
	"github.com/rtimothyedwards/extflat/pkg/efmodel"
)

// scannerInitialBufSize and scannerMaxLineSize size the line scanner
// generously: device/attribute lines can be long parameter lists.
const (
	scannerInitialBufSize = 4096
	scannerMaxLineSize    = 1 << 20
)

// Reader parses .ext files into a Def registry's population. One
// Reader is owned by a session.Session for the lifetime of one
// extract command (§5).
type Reader struct {
	Pool   *hiername.Pool
	Reg    *defreg.Registry
	Types  *classindex.DeviceTypes
	Layers *classindex.LayerNames
	Tables map[efmodel.DefID]*nodetable.Table

	Src Source

	// Warnings accumulates non-fatal NodeMissingWarning records (§7)
	// encountered across every file read by this Reader.
	Warnings []*NodeMissingWarning
}

// New creates a Reader sharing the given session-owned tables.
func New(pool *hiername.Pool, reg *defreg.Registry, types *classindex.DeviceTypes, layers *classindex.LayerNames, src Source) *Reader {
	return &Reader{
		Pool:   pool,
		Reg:    reg,
		Types:  types,
		Layers: layers,
		Tables: make(map[efmodel.DefID]*nodetable.Table),
		Src:    src,
	}
}

// TableFor returns (creating if necessary) the per-Def node table for id.
func (r *Reader) TableFor(id efmodel.DefID) *nodetable.Table {
	if t, ok := r.Tables[id]; ok {
		return t
	}
	t := nodetable.New(r.Pool)
	r.Tables[id] = t
	return t
}

// ReadHierarchy reads root's .ext file, then drains the registry's
// pending-Def queue (placeholders enqueued by `use` records) until
// every referenced Def has been read, matching §4.2/§4.3's
// breadth-first fill-in-the-placeholders behavior.
func (r *Reader) ReadHierarchy(root string) (efmodel.DefID, error) {
	rootID := r.Reg.GetOrCreate(root)
	if err := r.readOne(root); err != nil {
		return rootID, err
	}
	for {
		name, ok := r.Reg.NextPending()
		if !ok {
			break
		}
		if err := r.readOne(name); err != nil {
			return rootID, err
		}
	}
	id, _ := r.Reg.Lookup(root)
	return id, nil
}

func (r *Reader) readOne(name string) error {
	rc, err := r.Src.Open(name)
	if err != nil {
		return err
	}
	defer rc.Close()

	id, ok := r.Reg.Lookup(name)
	if !ok {
		id = r.Reg.NewDef(name)
	}
	if err := r.readInto(name, id, rc); err != nil {
		return err
	}
	def := r.Reg.Get(id)
	def.Flags |= efmodel.DefAvailable
	if len(def.Devices) == 0 {
		def.Flags |= efmodel.DefNoDevices
	}
	return nil
}

func (r *Reader) readInto(file string, id efmodel.DefID, rc io.Reader) error {
	def := r.Reg.Get(id)
	table := r.TableFor(id)
	st := &defState{file: file, def: def, table: table}

	scanner := bufio.NewScanner(rc)
	buf := make([]byte, 0, scannerInitialBufSize)
	scanner.Buffer(buf, scannerMaxLineSize)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		toks := tokenize(line)
		if len(toks) == 0 {
			continue
		}
		if err := r.dispatch(st, lineNo, toks); err != nil {
			var missing *NodeMissingWarning
			if errors.As(err, &missing) {
				r.Warnings = append(r.Warnings, missing)
				continue
			}
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("extreader: %s: %w", file, err)
	}
	return nil
}

// defState is the mutable state threaded through one file's record
// dispatch: the Def being populated, its node table, and whether a
// killnode record has been seen yet (everything after it is tagged
// NodeAfterKill, §3 Kill).
type defState struct {
	file      string
	def       *efmodel.Def
	table     *nodetable.Table
	afterKill bool
}

func (r *Reader) dispatch(st *defState, line int, toks []string) error {
	switch toks[0] {
	case "tech", "version", "style", "timestamp":
		return nil // header metadata with no effect on the flattened model
	case "scale":
		return r.handleScale(st, line, toks)
	case "resistclasses":
		return r.handleResistClasses(st, line, toks)
	case "use":
		return r.handleUse(st, line, toks)
	case "node":
		return r.handleNode(st, line, toks, false)
	case "substrate":
		return r.handleNode(st, line, toks, true)
	case "equiv":
		return r.handleEquiv(st, line, toks)
	case "attr":
		return r.handleAttr(st, line, toks)
	case "merge":
		return r.handleMerge(st, line, toks)
	case "cap":
		return r.handleCapResist(st, line, toks, false)
	case "resist":
		return r.handleCapResist(st, line, toks, true)
	case "device":
		return r.handleDevice(st, line, toks)
	case "fet":
		return r.handleLegacyFet(st, line, toks)
	case "killnode":
		return r.handleKillnode(st, line, toks)
	case "subcircuit":
		return r.handleSubcircuit(st, line, toks)
	case "distance":
		return r.handleDistance(st, line, toks)
	case "parameters":
		return r.handleParameters(st, line, toks)
	default:
		return badFile(st.file, line, toks[0], "unrecognized record keyword")
	}
}

func parseInt(st *defState, line int, tok string) (int64, error) {
	v, err := strconv.ParseInt(tok, 10, 64)
	if err != nil {
		return 0, badFile(st.file, line, tok, "expected integer")
	}
	return v, nil
}

func parseFloat(st *defState, line int, tok string) (float64, error) {
	v, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return 0, badFile(st.file, line, tok, "expected number")
	}
	return v, nil
}

func need(st *defState, line int, toks []string, n int) error {
	if len(toks) < n {
		return badFile(st.file, line, toks[0], fmt.Sprintf("expected at least %d fields", n))
	}
	return nil
}

package hiername

import (
	"strings"

	"golang.org/x/text/transform"

	"github.com/rtimothyedwards/extflat/pkg/efmodel"
)

// TrimMode selects the trailing-suffix stripping ToStr applies before
// path-separator assembly (§4.1).
type TrimMode uint8

const (
	// TrimNone leaves trailing `!`/`#` suffixes alone.
	TrimNone TrimMode = iota
	// TrimGlobal strips a single trailing `!` (global suffix).
	TrimGlobal
	// TrimLocal strips a single trailing `#` (local suffix).
	TrimLocal
)

// SubstMode selects the character-substitution set ToStr applies to
// each path component, used by emitters whose target syntax reserves
// characters Magic's naming convention allows (§4.1).
type SubstMode uint8

const (
	// SubstNone applies no character substitution.
	SubstNone SubstMode = iota
	// SubstSemicolon rewrites `,` to `;` (SPICE2/3 list-separator safety).
	SubstSemicolon
	// SubstPipe rewrites `,` to `|`.
	SubstPipe
)

// RenderOptions configures ToStr's output.
type RenderOptions struct {
	Trim  TrimMode
	Subst SubstMode
	// EqualsToColon rewrites `=` to `:`.
	EqualsToColon bool
	// BracketsToUnderscore rewrites `[` and `]` to `_`.
	BracketsToUnderscore bool
	// DotToAt rewrites internal `.` to `@`, used only by the HSPICE
	// emitter to avoid colliding with its own subckt-name separator.
	DotToAt bool
}

// componentTransformer applies RenderOptions' character substitutions
// to one path component. It is a golang.org/x/text/transform.Transformer
// so ToStr can compose it the same way emitters compose encoding
// transforms elsewhere in the corpus, rather than hand-rolling
// strings.Map chains per flavor.
type componentTransformer struct {
	transform.NopResetter
	opts RenderOptions
}

func (t componentTransformer) Transform(dst, src []byte, atEOF bool) (nDst, nSrc int, err error) {
	for _, r := range string(src) {
		out := r
		switch {
		case t.opts.Subst == SubstSemicolon && r == ',':
			out = ';'
		case t.opts.Subst == SubstPipe && r == ',':
			out = '|'
		case t.opts.EqualsToColon && r == '=':
			out = ':'
		case t.opts.BracketsToUnderscore && (r == '[' || r == ']'):
			out = '_'
		case t.opts.DotToAt && r == '.':
			out = '@'
		}
		n := copy(dst[nDst:], string(out))
		if n == 0 {
			return nDst, nSrc, transform.ErrShortDst
		}
		nDst += n
		nSrc += len(string(r))
	}
	return nDst, nSrc, nil
}

func applyComponent(opts RenderOptions, s string) string {
	out, _, err := transform.String(componentTransformer{opts: opts}, s)
	if err != nil {
		// componentTransformer never reports an error other than
		// ErrShortDst, which transform.String retries past; reaching
		// here would mean a logic bug, not bad input.
		return s
	}
	return out
}

// ToStr renders h as a "/"-separated path, trimming a trailing
// `!`/`#` suffix per Trim and substituting reserved characters per the
// rest of opts (§4.1).
func (p *Pool) ToStr(h efmodel.HierName, opts RenderOptions) string {
	if !h.Valid() {
		return ""
	}
	var comps []string
	for cur := h; cur.Valid(); {
		comps = append(comps, p.Leaf(cur))
		parent, ok := p.Parent(cur)
		if !ok {
			break
		}
		cur = parent
	}
	// comps was built leaf-to-root; reverse for root-to-leaf printing.
	for i, j := 0, len(comps)-1; i < j; i, j = i+1, j-1 {
		comps[i], comps[j] = comps[j], comps[i]
	}
	for i, c := range comps {
		comps[i] = applyComponent(opts, c)
	}
	s := strings.Join(comps, "/")
	switch opts.Trim {
	case TrimGlobal:
		s = strings.TrimSuffix(s, "!")
	case TrimLocal:
		s = strings.TrimSuffix(s, "#")
	}
	return s
}

// IsGlobal reports whether h's leaf component ends in `!`, the global
// suffix convention Pass D (§4.5) uses to merge same-named globals
// regardless of where they occur in the hierarchy.
func (p *Pool) IsGlobal(h efmodel.HierName) bool {
	return strings.HasSuffix(p.Leaf(h), "!")
}

// IsLocalOnly reports whether h's leaf component ends in `#`, the
// local-only suffix convention EFHNBest rule 3 penalizes.
func (p *Pool) IsLocalOnly(h efmodel.HierName) bool {
	return strings.HasSuffix(p.Leaf(h), "#")
}

package verify

import (
	"context"
	"fmt"
)

// Result is one net's verification outcome.
type Result struct {
	Net Net

	// Open is true when some declared terminal was never reached by
	// connected paint from the net's first terminal (or the first
	// terminal's label doesn't exist in the layout at all).
	Open         bool
	OpenTerminal string

	// Shorted is true when paint reached a label belonging to a name
	// not declared in this net. Only the first such name is kept,
	// matching the one-message-per-net dedup of spec.md §4.9.
	Shorted     bool
	ShortedName string
	ShortedAt   Label
}

// HasErrors reports whether the net failed verification.
func (r Result) HasErrors() bool { return r.Open || r.Shorted }

// Summary totals a Verify pass over a net list.
type Summary struct {
	NetsChecked int
	Opens       int
	Shorts      int
}

// Verify checks every net in nets against geo, reporting one feedback
// area per error (at most one open and one short per net, per §4.9)
// to sink. The context is polled once per net; a cancellation returns
// the results gathered so far alongside context.Canceled.
func Verify(ctx context.Context, geo GeometryDB, sink FeedbackSink, nets []Net) ([]Result, Summary, error) {
	results := make([]Result, 0, len(nets))
	var sum Summary

	for _, net := range nets {
		if err := ctx.Err(); err != nil {
			return results, sum, err
		}

		res := verifyOne(geo, net)
		sum.NetsChecked++
		if res.Open {
			sum.Opens++
			if sink != nil {
				var area Label
				if lbls := geo.FindLabels(res.OpenTerminal); len(lbls) > 0 {
					area = lbls[0]
				}
				sink.Feedback(area.Area, Open, fmt.Sprintf("net of %q isn't fully connected", net.Name()))
			}
		}
		if res.Shorted {
			sum.Shorts++
			if sink != nil {
				sink.Feedback(res.ShortedAt.Area, Short, fmt.Sprintf("net %q shorted to net %q", net.Name(), res.ShortedName))
			}
		}
		results = append(results, res)
	}

	return results, sum, nil
}

// verifyOne traces a single net and classifies its outcome. It
// mirrors nmwVerifyNetFunc: tracing starts only from the net's first
// terminal (nmwNetFound in the original guards against retracing for
// every terminal), and feedthroughs — the same declared name recurring
// elsewhere in the layout — extend the trace rather than starting a
// fresh one.
func verifyOne(geo GeometryDB, net Net) Result {
	res := Result{Net: net}
	if len(net.Terminals) == 0 {
		return res
	}

	declared := make(map[string]bool, len(net.Terminals))
	for _, t := range net.Terminals {
		declared[t] = true
	}

	collected, extra := traceNet(geo, net.Terminals[0], declared)

	for _, t := range net.Terminals {
		if _, ok := collected[t]; !ok {
			res.Open = true
			res.OpenTerminal = t
			break
		}
	}

	for name, lbl := range extra {
		res.Shorted = true
		res.ShortedName = name
		res.ShortedAt = lbl
		break
	}

	return res
}

// traceNet follows connected paint starting from the label(s) named
// start, recursing into feedthroughs (other locations sharing a
// declared name already reached). It returns the declared names
// reached (collected) and any reached names not present in declared
// (extra — each is a short candidate).
func traceNet(geo GeometryDB, start string, declared map[string]bool) (collected map[string]Label, extra map[string]Label) {
	collected = make(map[string]Label)
	extra = make(map[string]Label)

	visitedLabel := make(map[Label]bool)
	visitedName := make(map[string]bool)

	var visitName func(name string)
	visitName = func(name string) {
		if visitedName[name] {
			return
		}
		visitedName[name] = true

		for _, lbl := range geo.FindLabels(name) {
			if visitedLabel[lbl] {
				continue
			}
			visitedLabel[lbl] = true

			for _, reached := range geo.TraceConnected(lbl) {
				if declared[reached.Name] {
					if _, ok := collected[reached.Name]; !ok {
						collected[reached.Name] = reached
					}
					visitName(reached.Name)
				} else if reached.Name != "" {
					if _, ok := extra[reached.Name]; !ok {
						extra[reached.Name] = reached
					}
				}
			}
		}
	}

	visitName(start)
	return collected, extra
}

// Ripup erases every piece of paint (and attached labels) connected to
// any declared terminal of net, the way NMRipupList tears up an entire
// net-list entry at once.
func Ripup(ctx context.Context, geo GeometryDB, net Net) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	for _, name := range net.Terminals {
		for _, lbl := range geo.FindLabels(name) {
			if err := geo.Erase(lbl); err != nil {
				return fmt.Errorf("verify: ripup %q: %w", name, err)
			}
		}
	}
	return nil
}

// Cull removes from nets every net that verified with no errors,
// returning the shrunk work list — the net-list analog of NMCull,
// letting a user hand-route part of a design and then drop the nets
// that are already correctly wired.
func Cull(ctx context.Context, geo GeometryDB, nets []Net) ([]Net, error) {
	var kept []Net
	for _, net := range nets {
		if err := ctx.Err(); err != nil {
			return kept, err
		}
		res := verifyOne(geo, net)
		if res.HasErrors() {
			kept = append(kept, net)
		}
	}
	return kept, nil
}

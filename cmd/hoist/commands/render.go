package commands

import (
	"fmt"
	"io"
	"strings"

	"go.trai.ch/hoist/internal/app"
	"go.trai.ch/hoist/internal/core/domain"
	"go.trai.ch/hoist/internal/engine/reporter"
	"go.trai.ch/hoist/internal/ui/output"
	"go.trai.ch/hoist/internal/ui/style"
)

type printer struct {
	w  io.Writer
	st style.Styles
}

func newPrinter(w io.Writer) *printer {
	return &printer{w: w, st: style.New(output.NewRenderer(w))}
}

func (p *printer) line(format string, args ...any) {
	_, _ = fmt.Fprintf(p.w, format+"\n", args...)
}

func (p *printer) entry(e *domain.PlacementEntry) {
	if e.Kind == domain.PlacementLocalLink {
		p.line("  %s %s %s %s",
			p.st.Link.Render(style.Arrow), e.Target, p.st.Muted.Render(string(e.Kind)), e.Source)
		return
	}
	marker := p.st.Shared.Render(style.Dot)
	if e.Kind == domain.PlacementNestedCopy {
		marker = p.st.Nested.Render(style.Dot)
	}
	p.line("  %s %s %s %s@%s %s",
		marker, e.Target, p.st.Muted.Render(string(e.Kind)),
		e.Name, e.Version, p.st.Muted.Render("for "+strings.Join(e.Consumers, ", ")))
}

func renderPlan(w io.Writer, out *app.Outcome) {
	p := newPrinter(w)
	p.line("%s", p.st.Header.Render(fmt.Sprintf("Install plan (%d placements)", len(out.Plan.Entries))))
	for i := range out.Plan.Entries {
		p.entry(&out.Plan.Entries[i])
	}
	p.line("Hoisting rate: %s", reporter.FormatRate(out.Resolution.HoistingRate()))
}

func renderInstall(w io.Writer, out *app.Outcome, result domain.ApplyResult) {
	p := newPrinter(w)
	msg := fmt.Sprintf("Installed %d placements: %d applied, %d unchanged, %d pruned",
		len(out.Plan.Entries), result.Applied, result.Skipped, result.Pruned)
	if result.Resumed {
		msg += " (resumed)"
	}
	p.line("%s %s", p.st.Good.Render(style.Check), msg)
}

func renderExplanation(w io.Writer, ex *domain.Explanation) {
	p := newPrinter(w)
	p.line("%s", p.st.Header.Render(fmt.Sprintf("%s %s %s", ex.Consumer, style.Arrow, ex.Name)))
	p.line("  spec:     %s", ex.Spec)
	p.line("  provider: %s", ex.Provider)
	if ex.Local != "" {
		p.line("  local:    %s", ex.Local)
	}
	p.line("  version:  %s", ex.Version)
	if ex.Provider == "registry" {
		if ex.Hoisted {
			p.line("  hoisted:  %s", p.st.Shared.Render("yes"))
		} else {
			p.line("  hoisted:  %s (shared copy is %s)", p.st.Nested.Render("no"), ex.HoistedVersion)
		}
	}
	if ex.Reason != "" {
		p.line("  reason:   %s", ex.Reason)
	}
	p.line("  target:   %s", ex.Target)
}

func renderReport(w io.Writer, r *domain.Report) {
	p := newPrinter(w)
	p.line("%s", p.st.Header.Render("Hoisting report"))
	p.line("  hoisting rate: %s (%d of %d external instances)",
		reporter.FormatRate(r.HoistingRate), r.HoistedInstances, r.ExternalInstances)
	p.line("  shared copies: %d", r.SharedCopies)
	p.line("  nested copies: %d", r.NestedCopies)
	p.line("  local links:   %d", r.LocalLinks)

	if len(r.Duplicates) > 0 {
		p.line("%s", p.st.Header.Render("Duplicates"))
		for _, d := range r.Duplicates {
			p.line("  %s %s %s", p.st.Nested.Render(style.Warning), d.Name, p.st.Muted.Render("hoisted "+d.Hoisted))
			p.line("      %s share %s", strings.Join(d.Shared, ", "), d.Hoisted)
			for _, n := range d.Nested {
				p.line("      %s wants %s, gets %s", n.Consumer, n.Range, n.Version)
			}
		}
	}

	if len(r.Cycles) > 0 {
		p.line("%s", p.st.Header.Render("Workspace cycles"))
		for _, c := range r.Cycles {
			p.line("  %s %s", p.st.Bad.Render(style.Cross), c)
		}
	}
}

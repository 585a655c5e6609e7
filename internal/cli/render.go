package cli

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/boddenberg/wedding-planner-bfa-go/internal/domain"
	"github.com/boddenberg/wedding-planner-bfa-go/internal/planning"
)

var (
	colorGreen  = lipgloss.Color("#8ec07c")
	colorYellow = lipgloss.Color("#fabd2f")
	colorRed    = lipgloss.Color("#fb4934")
	colorDim    = lipgloss.Color("#928374")
	colorHeader = lipgloss.Color("#fe8019")
)

// renderer formats engine output as text. Unstyled renderers pass text
// through untouched so output can be piped or diffed.
type renderer struct {
	header func(string) string
	dim    func(string) string
	bold   func(string) string
	green  func(string) string
	yellow func(string) string
	red    func(string) string
}

func newRenderer(styled bool) *renderer {
	if !styled {
		plain := func(s string) string { return s }
		return &renderer{header: plain, dim: plain, bold: plain, green: plain, yellow: plain, red: plain}
	}
	return &renderer{
		header: paint(lipgloss.NewStyle().Foreground(colorHeader).Bold(true)),
		dim:    paint(lipgloss.NewStyle().Foreground(colorDim)),
		bold:   paint(lipgloss.NewStyle().Bold(true)),
		green:  paint(lipgloss.NewStyle().Foreground(colorGreen)),
		yellow: paint(lipgloss.NewStyle().Foreground(colorYellow)),
		red:    paint(lipgloss.NewStyle().Foreground(colorRed)),
	}
}

// paint adapts a lipgloss style to the renderer's single-string shape.
func paint(st lipgloss.Style) func(string) string {
	return func(s string) string { return st.Render(s) }
}

func (r *renderer) heading(text string) string {
	upper := strings.ToUpper(text)
	return r.header(upper) + "\n" + r.dim(strings.Repeat("─", lipgloss.Width(upper))) + "\n"
}

func (r *renderer) view(v *planning.View, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n\n", r.dim("as of"), v.ReferenceDate)

	if len(v.Buckets) == 0 {
		b.WriteString(r.dim("nothing matches") + "\n")
	}
	for _, bucket := range v.Buckets {
		b.WriteString(r.heading(fmt.Sprintf("%s (%d)", bucket.Label, len(bucket.Items))))
		for _, it := range bucket.Items {
			b.WriteString(r.itemLine(it, now))
		}
		if bucket.Stats != nil {
			fmt.Fprintf(&b, "%s\n", r.dim(fmt.Sprintf("  %d done of %d, %d%% complete",
				bucket.Stats.Completed, bucket.Stats.Total, bucket.Stats.CompletionRatePercent)))
		}
		b.WriteString("\n")
	}

	b.WriteString(r.stats("Overall", v.Overall))
	if len(v.Warnings) > 0 {
		b.WriteString("\n" + r.warnings(v.Warnings))
	}
	return b.String()
}

func (r *renderer) timeframes(v *planning.TimeframeView) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n\n", r.dim("as of"), v.ReferenceDate)

	for _, g := range v.Groups {
		label := g.Label
		if !g.Known && g.Label != planning.UnscheduledLabel {
			label += " (unrecognized)"
		}
		b.WriteString(r.heading(fmt.Sprintf("%s (%d)", label, len(g.Items))))
		for _, it := range g.Items {
			b.WriteString(r.itemLine(it, time.Time{}))
		}
		b.WriteString("\n")
	}

	b.WriteString(r.stats("Overall", v.Overall))
	if len(v.Warnings) > 0 {
		b.WriteString("\n" + r.warnings(v.Warnings))
	}
	return b.String()
}

// itemLine renders one record. A zero now omits the relative due hint.
func (r *renderer) itemLine(it domain.PlanningItem, now time.Time) string {
	marker := "○"
	title := it.Title
	switch {
	case it.Status.IsDone():
		marker = r.green("✓")
		title = r.dim(title)
	case !now.IsZero() && planning.IsOverdue(it, now):
		marker = r.red("!")
	}

	parts := []string{fmt.Sprintf("  %s %s", marker, title)}
	if it.Priority != domain.PriorityUnset {
		parts = append(parts, r.priority(it.Priority))
	}
	if it.HasCategory() {
		parts = append(parts, r.dim(it.Category))
	}
	if it.DueDate != nil {
		due := "due " + it.DueDate.Format(domain.DateLayout)
		if !now.IsZero() && !it.Status.IsDone() {
			due += relativeDue(planning.DaysUntil(*it.DueDate, now))
		}
		parts = append(parts, r.dim(due))
	}
	if est := it.Estimated(); !est.IsZero() {
		parts = append(parts, r.dim(money(est)))
	}
	return strings.Join(parts, "  ") + "\n"
}

func relativeDue(days int) string {
	switch {
	case days < -1:
		return fmt.Sprintf(", %d days overdue", -days)
	case days == -1:
		return ", 1 day overdue"
	case days == 0:
		return ", today"
	case days == 1:
		return ", tomorrow"
	default:
		return fmt.Sprintf(", in %d days", days)
	}
}

func (r *renderer) priority(p domain.Priority) string {
	switch p {
	case domain.PriorityHigh:
		return r.red("[high]")
	case domain.PriorityMedium:
		return r.yellow("[medium]")
	default:
		return r.dim("[" + string(p) + "]")
	}
}

func (r *renderer) stats(title string, s planning.Stats) string {
	var b strings.Builder
	b.WriteString(r.heading(title))
	fmt.Fprintf(&b, "  %s %d   %s %d   %s %d   %s %d   %s %s\n",
		r.bold("total"), s.Total,
		r.bold("done"), s.Completed,
		r.bold("pending"), s.Pending,
		r.bold("in progress"), s.InProgress,
		r.bold("overdue"), r.overdue(s.Overdue),
	)
	fmt.Fprintf(&b, "  %s %d%%\n", r.bold("complete"), s.CompletionRatePercent)
	if !s.TotalEstimated.IsZero() || !s.TotalActual.IsZero() {
		fmt.Fprintf(&b, "  %s %s   %s %s   %s %s\n",
			r.bold("estimated"), money(s.TotalEstimated),
			r.bold("actual"), money(s.TotalActual),
			r.bold("remaining"), money(s.Remaining),
		)
	}
	return b.String()
}

func (r *renderer) overdue(n int) string {
	if n > 0 {
		return r.red(fmt.Sprint(n))
	}
	return fmt.Sprint(n)
}

func (r *renderer) categoryTable(s planning.Stats) string {
	if len(s.ByCategory) == 0 {
		return ""
	}
	names := make([]string, 0, len(s.ByCategory))
	for name := range s.ByCategory {
		names = append(names, name)
	}
	sort.Strings(names)

	rows := make([][]string, 0, len(names))
	for _, name := range names {
		c := s.ByCategory[name]
		share := "-"
		if c.PercentOfTotal != nil {
			share = fmt.Sprintf("%.1f%%", *c.PercentOfTotal)
		}
		rows = append(rows, []string{
			name,
			fmt.Sprint(c.Count),
			money(c.EstimatedSum),
			money(c.ActualSum),
			r.spend(c.Status),
			share,
		})
	}
	return r.heading("By category") + r.table([]string{"CATEGORY", "ITEMS", "ESTIMATED", "ACTUAL", "STATUS", "SHARE"}, rows)
}

func (r *renderer) spend(status string) string {
	switch status {
	case planning.SpendOver:
		return r.red(status)
	case planning.SpendUnder:
		return r.green(status)
	default:
		return r.dim(status)
	}
}

func (r *renderer) warnings(ws []planning.Warning) string {
	var b strings.Builder
	b.WriteString(r.heading(fmt.Sprintf("Data warnings (%d)", len(ws))))
	for _, w := range ws {
		id := w.ItemID.String()
		if id == "" {
			id = fmt.Sprintf("#%d", w.Index)
		}
		fmt.Fprintf(&b, "  %s %s %s: %s\n", r.yellow("⚠"), id, w.Field, w.Message)
	}
	return b.String()
}

// table renders aligned columns, measuring visible width so styled cells
// still line up.
func (r *renderer) table(headers []string, rows [][]string) string {
	const colGap = 2

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i := 0; i < len(headers) && i < len(row); i++ {
			if w := lipgloss.Width(row[i]); w > widths[i] {
				widths[i] = w
			}
		}
	}

	var b strings.Builder
	writeRow := func(cells []string, style func(string) string) {
		b.WriteString("  ")
		for i := range headers {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			b.WriteString(style(cell))
			if i < len(headers)-1 {
				b.WriteString(strings.Repeat(" ", widths[i]-lipgloss.Width(cell)+colGap))
			}
		}
		b.WriteString("\n")
	}

	writeRow(headers, r.header)
	for _, row := range rows {
		writeRow(row, func(s string) string { return s })
	}
	return b.String()
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

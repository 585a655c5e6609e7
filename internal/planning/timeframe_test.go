package planning

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boddenberg/wedding-planner-bfa-go/internal/domain"
)

var testTimeframes = []string{
	"12+ months before",
	"6-9 months before",
	"1 month before",
	"Wedding Day",
}

func TestTimeframeTable_Rank(t *testing.T) {
	table := NewTimeframeTable(append(testTimeframes, "wedding day", " "))

	r, ok := table.Rank("  WEDDING   day ")
	assert.True(t, ok)
	assert.Equal(t, 3, r)

	r, ok = table.Rank("honeymoon")
	assert.False(t, ok)
	assert.Equal(t, 4, r, "unknown labels rank after every known label")

	assert.Equal(t, testTimeframes, table.Labels(), "duplicates and blanks are skipped")
}

func TestTimeframeTable_Suggest(t *testing.T) {
	table := NewTimeframeTable(testTimeframes)

	hint, ok := table.Suggest("Weding Day")
	assert.True(t, ok)
	assert.Equal(t, "Wedding Day", hint)

	_, ok = table.Suggest("after the honeymoon")
	assert.False(t, ok)
}

func TestBuildTimeframeView_Ordering(t *testing.T) {
	items := []domain.PlanningItem{
		newItem(1, withTimeframe("Wedding Day")),
		newItem(2, withTimeframe("zz later")),
		newItem(3),
		newItem(4, withTimeframe("12+ MONTHS BEFORE")),
		newItem(5, withTimeframe("after party")),
		newItem(6, withTimeframe("12+ months before"), withPriority(domain.PriorityHigh)),
	}

	view, err := BuildTimeframeView(items, Criteria{}, refNow, NewTimeframeTable(testTimeframes))
	require.NoError(t, err)

	labels := make([]string, len(view.Groups))
	for i, g := range view.Groups {
		labels[i] = g.Label
	}
	assert.Equal(t, []string{"12+ months before", "Wedding Day", "after party", "zz later", UnscheduledLabel}, labels)
	assert.Equal(t, []string{"6", "4"}, ids(view.Groups[0].Items))
	assert.True(t, view.Groups[0].Known)
	assert.False(t, view.Groups[2].Known)
	assert.Equal(t, 2, view.Groups[0].Stats.Total)
	assert.Equal(t, 6, view.Overall.Total)

	var tfWarnings int
	for _, w := range view.Warnings {
		if w.Field == "timeframe" {
			tfWarnings++
		}
	}
	assert.Equal(t, 2, tfWarnings)
}

func TestBuildTimeframeView_HintInWarning(t *testing.T) {
	items := []domain.PlanningItem{newItem(1, withTimeframe("1 month befor"))}

	warnings := InspectTimeframes(items, NewTimeframeTable(testTimeframes))

	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0].Message, `did you mean "1 month before"?`)
}

func TestBuildTimeframeView_NilTable(t *testing.T) {
	view, err := BuildTimeframeView([]domain.PlanningItem{newItem(1, withTimeframe("Any"))}, Criteria{}, refNow, nil)
	require.NoError(t, err)
	require.Len(t, view.Groups, 1)
	assert.False(t, view.Groups[0].Known)
}

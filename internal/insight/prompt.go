package insight

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/FloatinggOnion/vogu-health-be/internal"
)

// promptHeader and promptFooter frame every generated prompt. Edit the text
// here; bump PROMPT_VERSION when doing so, since cached insights key on it.
const promptHeader = "You are analyzing a user's recent health telemetry. " +
	"Each line below is one calendar day of one metric. Days explicitly marked " +
	"\"no data recorded\" have no measurements; do not infer values for them.\n"

const promptFooter = `
Provide a health analysis with exactly these sections:

1. Key Insights:
   - Patterns and trends in the data
   - Correlations between sleep, heart rate and weight
   - Significant changes or anomalies

2. Health Recommendations:
   - Specific, actionable improvements

3. Health Concerns:
   - Potential concerns and when to consult a professional

Be specific and evidence-based.
`

// Prompt is the rendered model input plus a structured echo of what went in,
// used for tests and for deciding whether truncation occurred.
type Prompt struct {
	Text        string
	Summaries   []internal.DailySummary
	Truncated   bool
	DroppedDays int
}

// Builder renders summaries into a bounded, byte-deterministic prompt.
type Builder struct {
	maxLen int
}

func NewBuilder(maxLen int) *Builder {
	return &Builder{maxLen: maxLen}
}

// Build renders the summaries ordered by (date asc, metric type lexical).
// When the text would exceed the configured maximum, whole oldest days are
// dropped first so the most recent data survives. prior, when non-empty, is
// rendered as a comparison block and is never dropped.
func (b *Builder) Build(summaries, prior []internal.DailySummary) (*Prompt, error) {
	if len(summaries) == 0 {
		return nil, fmt.Errorf("%w: no summaries to render", internal.ErrEmptyInput)
	}

	ordered := sortSummaries(summaries)
	days := groupByDay(ordered)

	var priorBlock string
	if len(prior) > 0 {
		var sb strings.Builder
		sb.WriteString("\nFor comparison, the previous day:\n")
		for _, s := range sortSummaries(prior) {
			sb.WriteString(summaryLine(s))
		}
		priorBlock = sb.String()
	}

	fixedLen := len(promptHeader) + len(priorBlock) + len(promptFooter)

	blocks := make([]string, len(days))
	total := fixedLen
	for i, day := range days {
		blocks[i] = renderDay(day)
		total += len(blocks[i])
	}

	dropped := 0
	for total > b.maxLen && dropped < len(blocks)-1 {
		total -= len(blocks[dropped])
		dropped++
	}

	var sb strings.Builder
	sb.WriteString(promptHeader)
	for _, block := range blocks[dropped:] {
		sb.WriteString(block)
	}
	sb.WriteString(priorBlock)
	sb.WriteString(promptFooter)

	text := sb.String()
	truncated := dropped > 0
	if len(text) > b.maxLen {
		// Even a single day plus framing is over budget; hard bound wins.
		text = text[:b.maxLen]
		truncated = true
	}

	kept := 0
	for _, day := range days[dropped:] {
		kept += len(day)
	}
	return &Prompt{
		Text:        text,
		Summaries:   ordered[len(ordered)-kept:],
		Truncated:   truncated,
		DroppedDays: dropped,
	}, nil
}

func sortSummaries(in []internal.DailySummary) []internal.DailySummary {
	out := make([]internal.DailySummary, len(in))
	copy(out, in)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].MetricType < out[j].MetricType
	})
	return out
}

func groupByDay(ordered []internal.DailySummary) [][]internal.DailySummary {
	var days [][]internal.DailySummary
	var cur time.Time
	for _, s := range ordered {
		if len(days) == 0 || !s.Date.Equal(cur) {
			cur = s.Date
			days = append(days, nil)
		}
		days[len(days)-1] = append(days[len(days)-1], s)
	}
	return days
}

func renderDay(day []internal.DailySummary) string {
	var sb strings.Builder
	sb.WriteString("\n")
	sb.WriteString(day[0].Date.Format("2006-01-02"))
	sb.WriteString(":\n")
	for _, s := range day {
		sb.WriteString(summaryLine(s))
	}
	return sb.String()
}

func summaryLine(s internal.DailySummary) string {
	if s.SampleCount == 0 {
		return fmt.Sprintf("- %s: no data recorded\n", s.MetricType)
	}

	unit := map[internal.MetricType]string{
		internal.MetricSleep:     "min asleep",
		internal.MetricHeartRate: "bpm",
		internal.MetricWeight:    "kg",
	}[s.MetricType]

	line := fmt.Sprintf("- %s: %d samples, min %.1f, max %.1f, mean %.1f %s",
		s.MetricType, s.SampleCount, *s.Min, *s.Max, *s.Mean, unit)

	keys := make([]string, 0, len(s.Extra))
	for k := range s.Extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		line += fmt.Sprintf(", %s %.1f", k, s.Extra[k])
	}
	return line + "\n"
}

package insight

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/FloatinggOnion/vogu-health-be/internal"
	"github.com/FloatinggOnion/vogu-health-be/internal/llm"
)

// Options carries the tuning knobs the service reads from config.
type Options struct {
	AggregationVersion string
	PromptVersion      string
	WaitTimeout        time.Duration
}

// Service runs the full pipeline: aggregate → build prompt → cache lookup →
// model call → publish. It never retries the model call; failures surface to
// the caller so the transport layer owns retry policy.
type Service struct {
	agg     *Aggregator
	builder *Builder
	cache   *Cache
	model   llm.Client
	opts    Options
	logger  internal.Logger
	now     func() time.Time
}

func NewService(agg *Aggregator, builder *Builder, cache *Cache, model llm.Client, opts Options, logger internal.Logger) *Service {
	return &Service{
		agg:     agg,
		builder: builder,
		cache:   cache,
		model:   model,
		opts:    opts,
		logger:  logger,
		now:     time.Now,
	}
}

// Location is the zone daily ranges are computed in. Callers resolving
// user-supplied dates must parse them in this zone or "daily" drifts off the
// aggregation calendar.
func (s *Service) Location() *time.Location { return s.agg.Location() }

// RecentInsight covers the last `days` calendar days including today.
func (s *Service) RecentInsight(ctx context.Context, userID string, days int) (*internal.Insight, error) {
	if days <= 0 {
		return nil, fmt.Errorf("%w: days must be positive, got %d", internal.ErrInvalidRange, days)
	}
	loc := s.agg.Location()
	y, m, d := s.now().In(loc).Date()
	end := time.Date(y, m, d, 0, 0, 0, 0, loc).AddDate(0, 0, 1)
	start := end.AddDate(0, 0, -days)
	return s.insightFor(ctx, userID, start, end, nil)
}

// DailyInsight covers a single calendar day, with the previous day rendered
// as a comparison block in the prompt.
func (s *Service) DailyInsight(ctx context.Context, userID string, date time.Time) (*internal.Insight, error) {
	loc := s.agg.Location()
	y, m, d := date.In(loc).Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, loc)
	end := start.AddDate(0, 0, 1)

	prior, err := s.summarize(ctx, userID, start.AddDate(0, 0, -1), start)
	if err != nil {
		return nil, err
	}
	if sampleTotal(prior) == 0 {
		prior = nil
	}
	return s.insightFor(ctx, userID, start, end, prior)
}

func (s *Service) insightFor(ctx context.Context, userID string, start, end time.Time, prior []internal.DailySummary) (*internal.Insight, error) {
	summaries, err := s.summarize(ctx, userID, start, end)
	if err != nil {
		return nil, err
	}
	if sampleTotal(summaries) == 0 {
		return nil, fmt.Errorf("%w: no records between %s and %s",
			internal.ErrEmptyInput, start.Format("2006-01-02"), end.Format("2006-01-02"))
	}

	prompt, err := s.builder.Build(summaries, prior)
	if err != nil {
		return nil, err
	}

	fp := Fingerprint(userID, internal.AllMetricTypes, start, end,
		s.opts.AggregationVersion, s.opts.PromptVersion)

	res := s.cache.ReserveOrGet(fp)
	if res.Insight != nil {
		s.logger.Debugf("insight cache hit for %s", fp)
		return res.Insight, nil
	}
	if res.Lease != nil {
		s.generate(res.Lease, fp, prompt, internal.TimeRange{Start: start, End: end})
	}

	waitCtx, cancel := context.WithTimeout(ctx, s.opts.WaitTimeout)
	defer cancel()
	return res.Wait(waitCtx)
}

// generate runs the model call in its own goroutine, detached from the
// caller's context: a waiter timing out must not cancel the generation, and
// the eventual result still populates the cache for later callers.
func (s *Service) generate(lease *Lease, fp string, prompt *Prompt, tr internal.TimeRange) {
	go func() {
		text, err := s.model.Generate(context.Background(), prompt.Text)
		if err != nil {
			if !errors.Is(err, internal.ErrTimeout) && !errors.Is(err, internal.ErrModelUnavailable) {
				err = fmt.Errorf("%w: %v", internal.ErrModelUnavailable, err)
			}
			s.logger.Errorf("insight generation failed for %s: %v", fp, err)
			lease.Fail(err)
			return
		}
		ins := &internal.Insight{
			Fingerprint:   fp,
			TimeRange:     tr,
			GeneratedText: text,
			GeneratedAt:   s.now(),
			ModelVersion:  s.model.ModelVersion(),
			Truncated:     prompt.Truncated,
		}
		ins.Summary, ins.Recommendations, ins.Concerns = parseSections(text)
		lease.Complete(ins)
		s.logger.Infof("insight generated for %s (%d prompt bytes, truncated=%v)",
			fp, len(prompt.Text), prompt.Truncated)
	}()
}

// summarize aggregates every metric type over the range and concatenates the
// per-type summaries.
func (s *Service) summarize(ctx context.Context, userID string, start, end time.Time) ([]internal.DailySummary, error) {
	var all []internal.DailySummary
	for _, t := range internal.AllMetricTypes {
		summaries, err := s.agg.Aggregate(ctx, userID, t, start, end)
		if err != nil {
			return nil, err
		}
		all = append(all, summaries...)
	}
	return all, nil
}

func sampleTotal(summaries []internal.DailySummary) int {
	total := 0
	for _, s := range summaries {
		total += s.SampleCount
	}
	return total
}

// parseSections splits model output into the three requested sections.
// Summary is the leading prose plus the Key Insights items; recommendations
// and concerns get their own lists. Best effort: output that ignores the
// section format comes back whole as the summary.
func parseSections(text string) (summary string, recommendations, concerns []string) {
	var lead []string
	section := ""
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		switch {
		case strings.Contains(line, "Key Insights"):
			section = "insights"
		case strings.Contains(line, "Health Recommendations"):
			section = "recommendations"
		case strings.Contains(line, "Health Concerns"):
			section = "concerns"
		case strings.HasPrefix(line, "-"):
			item := strings.TrimSpace(strings.TrimPrefix(line, "-"))
			switch section {
			case "insights":
				lead = append(lead, item)
			case "recommendations":
				recommendations = append(recommendations, item)
			case "concerns":
				concerns = append(concerns, item)
			}
		default:
			if section == "" {
				lead = append(lead, line)
			}
		}
	}
	summary = strings.Join(lead, "\n")
	if summary == "" {
		summary = strings.TrimSpace(text)
	}
	return summary, recommendations, concerns
}

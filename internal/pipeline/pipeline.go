package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/gommon/log"

	"github.com/KaramelBytes/tablescope/internal/analysis"
	"github.com/KaramelBytes/tablescope/internal/charts"
	"github.com/KaramelBytes/tablescope/internal/dataset"
	"github.com/KaramelBytes/tablescope/internal/loader"
	"github.com/KaramelBytes/tablescope/internal/logging"
)

// CompletedMessage is reported after a successful run.
const CompletedMessage = "Analysis completed successfully."

// Options bundles the tunables of every stage.
type Options struct {
	Load     loader.Options
	Analysis analysis.Options
	Limits   charts.Limits
}

// DefaultOptions returns the stock settings of every stage.
func DefaultOptions() Options {
	return Options{Analysis: analysis.DefaultOptions(), Limits: charts.DefaultLimits()}
}

// Input is one upload: the file name decides the format, Kinds the charts.
type Input struct {
	Name    string
	Content []byte
	Kinds   []charts.Kind
	// Renderer receives every materialized chart; nil just collects them.
	Renderer charts.Renderer
}

// Result is everything one run produced.
type Result struct {
	ID        string                   `json:"id"`
	File      string                   `json:"file"`
	Profile   *analysis.DatasetProfile `json:"profile"`
	Plan      []charts.Eligibility     `json:"plan"`
	Charts    []charts.Chart           `json:"charts"`
	CacheHit  bool                     `json:"cache_hit"`
	ElapsedMS int64                    `json:"elapsed_ms"`
	Message   string                   `json:"message"`
}

// Pipeline runs load, infer, profile, plan and render for one upload at a
// time. It keeps no state between runs except the load cache.
type Pipeline struct {
	opt   Options
	cache *loader.Cache
	log   *log.Logger
}

// New creates a pipeline. A nil cache disables memoization and a nil logger discards output.
func New(opt Options, cache *loader.Cache, logger *log.Logger) *Pipeline {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Pipeline{opt: opt, cache: cache, log: logger}
}

// Options returns the settings the pipeline was built with.
func (p *Pipeline) Options() Options { return p.opt }

// Run processes one upload. Every failure, including panics, comes back as
// an error; UserMessage turns it into the text shown to the user.
func (p *Pipeline) Run(ctx context.Context, in Input) (res *Result, err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			res, err = nil, &PanicError{Value: r, Stack: debug.Stack()}
		}
		if err != nil {
			p.log.Warnf("analyze %s failed: %v", in.Name, err)
		}
	}()

	ds, hit, err := p.load(in.Name, in.Content)
	if err != nil {
		return nil, err
	}
	p.log.Debugf("loaded %s: %d rows, %d columns (cache hit: %t)", in.Name, ds.Rows(), len(ds.Columns), hit)
	if ds.Empty() {
		return nil, ErrEmptyDataset
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	profile := analysis.Summarize(ds, p.opt.Analysis)
	profile.Name = filepath.Base(in.Name)
	plan := charts.Plan(profile, in.Kinds, p.opt.Limits)

	res = &Result{
		ID:       uuid.NewString(),
		File:     profile.Name,
		Profile:  profile,
		Plan:     plan,
		Charts:   []charts.Chart{},
		CacheHit: hit,
	}
	for _, e := range charts.Eligible(plan) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		column := ""
		if len(e.Columns) == 1 {
			column = e.Columns[0]
		}
		ch, err := charts.Materialize(ds, e)
		if err != nil {
			return nil, &RenderError{Kind: e.Kind, Column: column, Err: err}
		}
		if in.Renderer != nil {
			if err := in.Renderer.Render(ctx, ch); err != nil {
				return nil, &RenderError{Kind: e.Kind, Column: column, Err: err}
			}
		}
		res.Charts = append(res.Charts, ch)
	}
	res.ElapsedMS = time.Since(start).Milliseconds()
	res.Message = CompletedMessage
	p.log.Infof("analyzed %s: %d rows, %d charts in %dms", res.File, profile.RowCount, len(res.Charts), res.ElapsedMS)
	return res, nil
}

// load parses the upload and runs the datetime pass, memoized by content.
func (p *Pipeline) load(name string, content []byte) (*dataset.Dataset, bool, error) {
	key := loader.Key(name, content, p.cacheSalt())
	return p.cache.Get(key, func() (*dataset.Dataset, error) {
		ds, err := loader.Load(name, content, p.opt.Load)
		if err != nil {
			return nil, err
		}
		for _, c := range analysis.InferDatetimes(ds, p.opt.Analysis.DatetimeThreshold) {
			p.log.Debugf("%s: column %q parsed as datetime (%d values, %d set to null)", ds.Name, c.Column, c.Parsed, c.Unparsed)
		}
		return ds, nil
	})
}

func (p *Pipeline) cacheSalt() string {
	lo := p.opt.Load
	return strings.Join([]string{
		strconv.FormatFloat(p.opt.Analysis.DatetimeThreshold, 'g', -1, 64),
		string(lo.Delimiter), string(lo.DecimalSeparator), string(lo.ThousandsSeparator), lo.Sheet,
	}, ",")
}

// Markdown renders the result as a report: the profile followed by the chart plan.
func (r *Result) Markdown() string {
	var b strings.Builder
	b.WriteString(r.Profile.Markdown())
	if len(r.Plan) > 0 {
		b.WriteString("\n## Charts\n\n")
		for _, e := range r.Plan {
			if e.Eligible {
				b.WriteString(fmt.Sprintf("- %s: %s\n", e.Title, strings.Join(e.Columns, ", ")))
				continue
			}
			b.WriteString(fmt.Sprintf("- %s: skipped (%s) %s\n", e.Title, e.Level, e.Reason))
		}
	}
	if r.Message != "" {
		b.WriteString("\n")
		b.WriteString(r.Message)
		b.WriteString("\n")
	}
	return b.String()
}

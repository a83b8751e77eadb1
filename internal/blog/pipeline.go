package blog

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/alnah/go-vidblog/internal/llm"
)

// Gate is a precondition checked once before a run starts.
type Gate interface {
	Allow() bool
}

// Compile-time interface compliance check.
var _ Gate = (*llm.RateGate)(nil)

// Mode is the generation strategy chosen for a request.
type Mode int

// Generation modes.
const (
	ModeVerbatim Mode = iota + 1
	ModeShort
	ModeLong
)

// String returns the lowercase mode name.
func (m Mode) String() string {
	switch m {
	case ModeVerbatim:
		return "verbatim"
	case ModeShort:
		return "short"
	case ModeLong:
		return "long"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// SelectMode returns verbatim for alpha 0, long when the transcript exceeds
// threshold bytes, and short otherwise.
func SelectMode(req Request, threshold int) Mode {
	switch {
	case req.Alpha == 0:
		return ModeVerbatim
	case len(req.Transcript) > threshold:
		return ModeLong
	default:
		return ModeShort
	}
}

// Generator runs the blog pipeline against a backend.
// A Generator holds no per-request state and is safe for concurrent use.
type Generator struct {
	backend       llm.Backend
	log           zerolog.Logger
	gate          Gate
	parallel      int
	maxRetries    int
	longThreshold int
}

// Option configures a Generator.
type Option func(*Generator)

// WithLogger sets the logger. The default discards everything.
func WithLogger(log zerolog.Logger) Option {
	return func(g *Generator) {
		g.log = log
	}
}

// WithGate sets a precondition checked before each run.
func WithGate(gate Gate) Option {
	return func(g *Generator) {
		g.gate = gate
	}
}

// WithParallelFirstDraft bounds concurrent first-attempt section calls.
// Values below 2 keep generation sequential. Retries always stay sequential.
func WithParallelFirstDraft(n int) Option {
	return func(g *Generator) {
		g.parallel = n
	}
}

// WithMaxRetries sets the per-section retry budget.
func WithMaxRetries(n int) Option {
	return func(g *Generator) {
		if n >= 0 {
			g.maxRetries = n
		}
	}
}

// WithLongThreshold sets the transcript size in bytes above which the long strategy runs.
func WithLongThreshold(chars int) Option {
	return func(g *Generator) {
		if chars > 0 {
			g.longThreshold = chars
		}
	}
}

// New creates a Generator using backend for all model calls.
func New(backend llm.Backend, opts ...Option) *Generator {
	g := &Generator{
		backend:       backend,
		log:           zerolog.Nop(),
		maxRetries:    DefaultMaxRetries,
		longThreshold: DefaultLongThreshold,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate runs the pipeline and returns the finished post.
func (g *Generator) Generate(ctx context.Context, req Request) (BlogPost, error) {
	return g.Stream(ctx, req, nil)
}

// Stream runs the pipeline, calling emit synchronously between stages. The
// last event is StepComplete carrying the post, or StepError. emit must not block.
func (g *Generator) Stream(ctx context.Context, req Request, emit func(Event)) (BlogPost, error) {
	p := newProgress(emit)
	post, err := g.run(ctx, req, p)
	if err != nil {
		p.fail(err)
		return BlogPost{}, err
	}
	p.complete(&post)
	return post, nil
}

func validate(req Request) error {
	if strings.TrimSpace(req.Transcript) == "" {
		return ErrEmptyTranscript
	}
	if math.IsNaN(req.Alpha) || req.Alpha < 0 || req.Alpha > 1 {
		return fmt.Errorf("%w: got %v", ErrInvalidAlpha, req.Alpha)
	}
	if req.TargetWords <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidTarget, req.TargetWords)
	}
	return nil
}

func (g *Generator) run(ctx context.Context, req Request, p *progress) (BlogPost, error) {
	if err := validate(req); err != nil {
		return BlogPost{}, err
	}
	if g.gate != nil && !g.gate.Allow() {
		return BlogPost{}, ErrRateLimited
	}
	if err := ctx.Err(); err != nil {
		return BlogPost{}, fmt.Errorf("generate post: %w", err)
	}

	mode := SelectMode(req, g.longThreshold)
	g.log.Info().
		Str("mode", mode.String()).
		Float64("alpha", req.Alpha).
		Int("target", req.TargetWords).
		Msg("blog generation started")

	var (
		post BlogPost
		err  error
	)
	system := systemPrompt(req.Alpha, req.Language)
	switch mode {
	case ModeVerbatim:
		p.send(StepAnalysisStart, pctAnalysis, "verbatim transcript")
		post = Verbatim(req)
	case ModeLong:
		post, err = g.runLong(ctx, req, system, p)
	default:
		post, err = g.runShort(ctx, req, system, p)
	}
	if err != nil {
		return BlogPost{}, fmt.Errorf("generate %s post: %w", mode, err)
	}
	g.log.Info().Int("words", post.WordCount).Int("target", req.TargetWords).Msg("blog generation finished")
	return post, nil
}

func (g *Generator) runShort(ctx context.Context, req Request, system string, p *progress) (BlogPost, error) {
	p.send(StepAnalysisStart, pctAnalysis, "analyzing transcript")
	natural, err := DetectSections(ctx, g.backend, req.Transcript, system, g.log)
	if err != nil {
		return BlogPost{}, err
	}
	p.send(StepDetectSections, pctDetect, fmt.Sprintf("%d natural sections", len(natural)))

	budget := PlanBudget(natural, req.TargetWords)
	g.log.Info().
		Int("natural", len(budget.OriginalSections)).
		Int("sections", budget.SectionCount).
		Str("strategy", budget.Strategy.String()).
		Msg("section budget")

	p.send(StepOutlineStart, pctOutlineStart, budget.Strategy.String())
	outline, err := buildOutline(ctx, g.backend, req.Transcript, system, budget, g.log)
	if err != nil {
		return BlogPost{}, err
	}
	n := len(outline.Sections)
	p.send(StepOutlineComplete, pctOutlineComplete, fmt.Sprintf("%d sections", n))

	headings := make([]string, n)
	for i, s := range outline.Sections {
		headings[i] = s.Heading
	}
	e := &expander{
		backend:    g.backend,
		transcript: req.Transcript,
		title:      outline.Title,
		system:     system,
		alpha:      req.Alpha,
		maxRetries: g.maxRetries,
		headings:   headings,
		log:        g.log,
	}

	drafts, err := g.firstDrafts(ctx, e, outline.Sections)
	if err != nil {
		return BlogPost{}, err
	}

	sections := make([]Section, n)
	steps := float64(g.maxRetries + 2)
	for i, sec := range outline.Sections {
		if err := ctx.Err(); err != nil {
			return BlogPost{}, err
		}
		p.send(StepSectionStart, sectionProgress(i, n, 0), sec.Heading)
		hooks := sectionHooks{
			retry: func(attempt int, c ValidationCheck) {
				p.send(StepSectionRetry, sectionProgress(i, n, float64(attempt)/steps),
					fmt.Sprintf("%s: attempt %d, %d/%d words", sec.Heading, attempt, c.WordCount, sec.MinWords))
			},
			force: func(shortfall int) {
				p.send(StepSectionForceExpand, sectionProgress(i, n, (steps-1)/steps),
					fmt.Sprintf("%s: %d words short", sec.Heading, shortfall))
			},
		}
		s, err := e.expand(ctx, sec, drafts[i], hooks)
		if err != nil {
			return BlogPost{}, err
		}
		sections[i] = s
		p.send(StepSectionComplete, sectionProgress(i+1, n, 0), fmt.Sprintf("%s (%d words)", s.Heading, s.ActualWords))
	}

	target := req.TargetWords
	tol := Tolerance(target)
	if before := TotalWords(sections); before-target > tol {
		p.send(StepTrimming, pctTrimming, fmt.Sprintf("%d words over target", before-target))
		passes := ShrinkSections(sections, target)
		g.log.Info().Int("before", before).Int("after", TotalWords(sections)).Int("passes", passes).Msg("shrink pass")
	}

	p.send(StepAssembling, pctAssembling, "")
	total := TotalWords(sections)
	p.send(StepLengthCheck, pctLengthCheck, fmt.Sprintf("%d of %d words", total, target))
	if target-total > tol {
		err := expandPass(ctx, e, sections, target, g.log, func(iter, i int) {
			frac := float64(iter*n+i) / float64(expandIterations*n)
			p.send(StepExpanding, pctExpandingStart+int(frac*pctExpandingSpan), sections[i].Heading)
		})
		if err != nil {
			return BlogPost{}, err
		}
	}
	return Assemble(outline, sections, req.VideoURL), nil
}

// firstDrafts generates first attempts concurrently when parallel drafting is
// enabled. Otherwise every draft is empty and the expander drafts each section itself.
func (g *Generator) firstDrafts(ctx context.Context, e *expander, sections []OutlineSection) ([]string, error) {
	drafts := make([]string, len(sections))
	if g.parallel < 2 {
		return drafts, nil
	}
	grp, gctx := errgroup.WithContext(ctx)
	grp.SetLimit(g.parallel)
	for i, sec := range sections {
		grp.Go(func() error {
			out, err := e.draft(gctx, sec)
			if err != nil {
				return err
			}
			drafts[i] = out
			return nil
		})
	}
	if err := grp.Wait(); err != nil {
		return nil, err
	}
	return drafts, nil
}

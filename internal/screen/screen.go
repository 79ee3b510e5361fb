package screen

import (
	"context"
	"encoding/json"
	"math"
	"strings"

	"github.com/lynxscreen/screenpipe/flow"
	"github.com/lynxscreen/screenpipe/internal/concurrency"
	"github.com/lynxscreen/screenpipe/internal/config"
	"github.com/lynxscreen/screenpipe/internal/domain"
	"github.com/lynxscreen/screenpipe/internal/filterexpr"
	"github.com/lynxscreen/screenpipe/internal/genservice"
	"github.com/lynxscreen/screenpipe/internal/sparsevec"
	"github.com/lynxscreen/screenpipe/internal/store"
	"github.com/lynxscreen/screenpipe/internal/usage"
	"github.com/lynxscreen/screenpipe/internal/vectorindex"
)

const (
	defaultMinTopCount = 5
	rankingTopK        = 1000
)

// Engine drives the Screening Core of spec.md §4.4: full and light
// screening, the dynamic top/bottom split, anonymization, and (stream.go)
// NDJSON streaming.
type Engine struct {
	store   store.Store
	gen     genservice.Service
	index   vectorindex.Index
	limiter *concurrency.Limiter

	// fullScreenPool is the ants-backed bounded pool the non-streaming
	// full-screen fan-out submits into (spec.md §5, §9).
	fullScreenPool concurrency.Pool
	// streamPool is the conc-backed structured-concurrency pool the
	// streaming emitter submits into; each task recovers a panic in its
	// candidate's screen and writes it as an error result (spec.md §9).
	streamPool concurrency.Pool

	closers []func()
	cfg     *config.Config
}

// New constructs an Engine. cfg.LLMConcurrencyLimit bounds both the
// full-screen and smart-screen top-tier fan-outs (spec.md §5). Call Close
// when the Engine is no longer needed to release the underlying pools.
func New(st store.Store, gen genservice.Service, index vectorindex.Index, cfg *config.Config) *Engine {
	fullScreenPool, closeFullScreen, err := concurrency.NewBoundedPool(cfg.LLMConcurrencyLimit)
	if err != nil {
		// ants.NewPool only fails for a non-positive size, already rejected
		// by config.Validate; falling back keeps New infallible.
		fullScreenPool, closeFullScreen = noopPool{}, func() {}
	}
	streamPool, closeStream := concurrency.NewStreamingPool()

	return &Engine{
		store:          st,
		gen:            gen,
		index:          index,
		limiter:        concurrency.NewLimiter(cfg.LLMConcurrencyLimit),
		fullScreenPool: fullScreenPool,
		streamPool:     streamPool,
		closers:        []func(){closeFullScreen, closeStream},
		cfg:            cfg,
	}
}

// Close releases the Engine's worker pools. Safe to call once at process
// shutdown; not required for correctness of any single call.
func (e *Engine) Close() {
	for _, closeFn := range e.closers {
		closeFn()
	}
}

// noopPool is the defensive fallback New uses if ants.NewPool ever fails;
// it just runs submitted work inline.
type noopPool struct{}

func (noopPool) Submit(f func()) error {
	f()
	return nil
}

// Request names one screening invocation.
type Request struct {
	ProjectID   string
	FileIDs     []string // optional; empty means every résumé in the project
	MinTopCount int      // default 5
	Anonymize   bool
	Smart       bool
}

func (r Request) minTopCount() int {
	if r.MinTopCount <= 0 {
		return defaultMinTopCount
	}
	return r.MinTopCount
}

// Screen runs Mode A (full) or Mode B (smart) and returns the assembled,
// optionally anonymized result set.
func (e *Engine) Screen(ctx context.Context, req Request) ([]*domain.ScreeningResult, error) {
	jd, err := e.store.JobDescriptions().Get(ctx, req.ProjectID)
	if err != nil {
		return nil, err
	}
	jdContext, err := buildJDContext(jd)
	if err != nil {
		return nil, err
	}

	var results []*domain.ScreeningResult
	if req.Smart {
		top, bottom, err := e.smartScreen(ctx, req, jd, jdContext)
		if err != nil {
			return nil, err
		}
		results = append(results, bottom...)
		results = append(results, top...)
	} else {
		resumes, err := e.fetchResumes(ctx, req.ProjectID, req.FileIDs)
		if err != nil {
			return nil, err
		}
		results = e.fullScreenMany(ctx, jdContext, resumes)
	}

	if req.Anonymize {
		for _, r := range results {
			r.Anonymize()
		}
	}
	return results, nil
}

func (e *Engine) fetchResumes(ctx context.Context, projectID string, fileIDs []string) ([]*domain.Resume, error) {
	return e.store.Resumes().List(ctx, projectID, fileIDs...)
}

// smartScreen runs Mode B: rank candidates (§4.3), split top/bottom
// (§4.4's dynamic split), full-screen the top tier, light-screen the
// bottom tier. The keyword extraction call is made once, only if the
// bottom tier is non-empty.
func (e *Engine) smartScreen(ctx context.Context, req Request, jd *domain.JobDescription, jdContext string) (top, bottom []*domain.ScreeningResult, err error) {
	ranked, err := e.rankedCandidates(ctx, req.ProjectID, jd.Description, req.FileIDs, rankingTopK)
	if err != nil {
		return nil, nil, err
	}

	scores := make([]float64, len(ranked))
	for i, c := range ranked {
		scores[i] = c.Score
	}
	split := DynamicSplit(scores, req.minTopCount())
	topCandidates, bottomCandidates := ranked[:split], ranked[split:]

	resumesByFileID, err := e.resumeIndex(ctx, req.ProjectID, ranked)
	if err != nil {
		return nil, nil, err
	}

	var keywords []string
	if len(bottomCandidates) > 0 {
		keywords, err = e.extractKeywords(ctx, req.ProjectID, jd.Description)
		if err != nil {
			return nil, nil, err
		}
	}

	bottom = make([]*domain.ScreeningResult, 0, len(bottomCandidates))
	for _, c := range bottomCandidates {
		if r, ok := resumesByFileID[c.FileID]; ok {
			bottom = append(bottom, lightScreenOne(r, c, keywords))
		}
	}

	top = e.fullScreenMany(ctx, jdContext, resumesFor(topCandidates, resumesByFileID))
	return top, bottom, nil
}

// rankedCandidates runs a hybrid dense+sparse query against the project's
// vector collection and aggregates hits to file level (§4.3). The sparse
// query vector is encoded against a corpus fit over every chunk currently
// indexed for the project, so query-time term dimensions line up with the
// ones Phase C encoded at ingest time.
func (e *Engine) rankedCandidates(ctx context.Context, projectID, queryText string, fileIDs []string, topK int) ([]domain.RankedCandidate, error) {
	chunks, err := e.store.Chunks().ListByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	corpus := sparsevec.NewCorpus()
	for _, c := range chunks {
		corpus.Add(c.Content)
	}
	corpus.Add(queryText)

	dense, _, err := e.gen.EmbedQuery(ctx, e.cfg.EmbeddingModelID, queryText)
	if err != nil {
		return nil, err
	}
	sparse := corpus.Encode(queryText)

	var filter filterexpr.Expr
	if len(fileIDs) > 0 {
		values := make([]any, len(fileIDs))
		for i, f := range fileIDs {
			values[i] = f
		}
		filter = filterexpr.IN("file_id", values)
	}

	hits, err := e.index.Query(ctx, projectID, vectorindex.Query{
		Dense:  dense,
		Sparse: vectorindex.SparseVector{Indices: sparse.Indices, Values: sparse.Values},
	}, filter, topK)
	if err != nil {
		return nil, domain.VectorBackendError(err, "screen: rank candidates")
	}
	return vectorindex.Aggregate(hits), nil
}

func (e *Engine) resumeIndex(ctx context.Context, projectID string, ranked []domain.RankedCandidate) (map[string]*domain.Resume, error) {
	ids := make([]string, len(ranked))
	for i, c := range ranked {
		ids[i] = c.FileID
	}
	resumes, err := e.store.Resumes().List(ctx, projectID, ids...)
	if err != nil {
		return nil, err
	}
	out := make(map[string]*domain.Resume, len(resumes))
	for _, r := range resumes {
		out[r.FileID] = r
	}
	return out, nil
}

func resumesFor(candidates []domain.RankedCandidate, index map[string]*domain.Resume) []*domain.Resume {
	out := make([]*domain.Resume, 0, len(candidates))
	for _, c := range candidates {
		if r, ok := index[c.FileID]; ok {
			out = append(out, r)
		}
	}
	return out
}

// fullScreenMany fans out over resumes bounded by the engine's limiter and
// awaits every result via flow.AsyncResult, preserving input order.
func (e *Engine) fullScreenMany(ctx context.Context, jdContext string, resumes []*domain.Resume) []*domain.ScreeningResult {
	futures := make([]*flow.AsyncResult[*domain.ScreeningResult], len(resumes))
	for i, r := range resumes {
		i, r := i, r
		futures[i] = flow.NewAsyncResult[*domain.ScreeningResult](ctx)
		if err := e.limiter.AcquireCtx(ctx); err != nil {
			futures[i].Set(errorResult(r, err), nil)
			continue
		}
		if err := e.fullScreenPool.Submit(func() {
			defer e.limiter.Release()
			futures[i].Set(e.fullScreenOne(ctx, jdContext, r), nil)
		}); err != nil {
			e.limiter.Release()
			futures[i].Set(errorResult(r, err), nil)
		}
	}

	results := make([]*domain.ScreeningResult, len(resumes))
	for i, f := range futures {
		res, _ := f.Result()
		results[i] = res
	}
	return results
}

// fullScreenOne is the full LLM screen for one résumé (spec.md §4.4). It
// never returns an error: any failure is materialized as an ERROR result.
func (e *Engine) fullScreenOne(ctx context.Context, jdContext string, r *domain.Resume) *domain.ScreeningResult {
	prompt := fullScreenPrompt(jdContext, r.FileID, r.FullContent)

	raw, err := usage.Track(ctx, e.store.UsageLogs(), r.ProjectID, r.FileID, e.cfg.GenerationModelID, domain.ActionScreening,
		func() (*genservice.GenerateResult, genservice.Usage, error) {
			res, err := e.gen.Generate(ctx, genservice.GenerateRequest{
				Model:           e.cfg.GenerationModelID,
				Prompt:          prompt,
				Temperature:     0.1,
				MaxOutputTokens: 4096,
				JSONMode:        true,
			})
			if err != nil {
				return nil, genservice.Usage{}, err
			}
			return res, res.Usage, nil
		})
	if err != nil {
		return errorResult(r, err)
	}

	var parsed domain.ScreeningResult
	if err := json.Unmarshal([]byte(raw.Content), &parsed); err != nil {
		return errorResult(r, domain.LLMError(err, "screen: parse screening result"))
	}

	applyCalibrations(&parsed, r.FullContent)
	parsed.FitLabel = domain.FitLabelForScore(parsed.FitScore)
	parsed.CVID = r.FileID
	parsed.CandidateName = r.CandidateName
	parsed.ContactInfo = r.ContactInfo
	parsed.Meta = domain.ResultMeta{
		Method: "LLM Screen",
		Model:  e.cfg.GenerationModelID,
		Usage: &domain.Usage{
			PromptTokens:     raw.Usage.PromptTokens,
			CompletionTokens: raw.Usage.CompletionTokens,
			TotalTokens:      raw.Usage.TotalTokens,
		},
	}
	return &parsed
}

// applyCalibrations applies the two deterministic adjustments spec.md
// §4.4 names: a floor for a zero score against substantial content, and
// an interview_prep override for low scores.
func applyCalibrations(r *domain.ScreeningResult, fullContent string) {
	trimmed := strings.TrimSpace(fullContent)
	if r.FitScore == 0 && len(trimmed) > 50 {
		r.FitScore = 5
	}
	if r.FitScore < 20 {
		r.InterviewPrep = domain.InterviewPrep{
			InterviewRecommendation: "Not recommended for interview based on current resume evidence.",
			SuggestedQuestions:      []string{},
		}
	}
}

func errorResult(r *domain.Resume, err error) *domain.ScreeningResult {
	return &domain.ScreeningResult{
		FitScore:         0,
		FitLabel:         domain.FitError,
		ExecutiveSummary: err.Error(),
		Flags:            domain.Flags{RedFlags: []string{}, YellowFlags: []string{}},
		InterviewPrep:    domain.InterviewPrep{SuggestedQuestions: []string{}},
		CVID:             r.FileID,
		CandidateName:    r.CandidateName,
		ContactInfo:      r.ContactInfo,
		Meta:             domain.ResultMeta{Method: "LLM Screen"},
	}
}

// extractKeywords is the light screen's once-per-invocation LLM call:
// 5-10 critical keywords pulled from the JD description.
func (e *Engine) extractKeywords(ctx context.Context, projectID, description string) ([]string, error) {
	raw, err := usage.Track(ctx, e.store.UsageLogs(), projectID, "", e.cfg.GenerationModelID, domain.ActionJDExtraction,
		func() (*genservice.GenerateResult, genservice.Usage, error) {
			res, err := e.gen.Generate(ctx, genservice.GenerateRequest{
				Model:           e.cfg.GenerationModelID,
				Prompt:          keywordExtractionPrompt(description),
				Temperature:     0.1,
				MaxOutputTokens: 256,
				JSONMode:        true,
			})
			if err != nil {
				return nil, genservice.Usage{}, err
			}
			return res, res.Usage, nil
		})
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Keywords []string `json:"keywords"`
	}
	if err := json.Unmarshal([]byte(raw.Content), &parsed); err != nil {
		return nil, domain.LLMError(err, "screen: parse keyword extraction response")
	}
	return parsed.Keywords, nil
}

// lightScreenOne is the bottom-tier keyword screen: no LLM call per
// candidate (spec.md §4.4).
func lightScreenOne(r *domain.Resume, candidate domain.RankedCandidate, keywords []string) *domain.ScreeningResult {
	lowerContent := strings.ToLower(r.FullContent)
	matched := make([]string, 0, len(keywords))
	missing := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		if strings.Contains(lowerContent, strings.ToLower(kw)) {
			matched = append(matched, kw)
		} else {
			missing = append(missing, kw)
		}
	}

	score := int(math.Round(math.Min(candidate.Score, 1.0) * 100))
	return &domain.ScreeningResult{
		FitScore: score,
		FitLabel: domain.FitLight,
		KeyMatchAnalysis: domain.KeyMatchAnalysis{
			Strengths:             matched,
			MissingCriticalSkills: missing,
		},
		Flags:         domain.Flags{RedFlags: []string{}, YellowFlags: []string{}},
		InterviewPrep: domain.InterviewPrep{SuggestedQuestions: []string{}},
		CVID:          r.FileID,
		CandidateName: r.CandidateName,
		ContactInfo:   r.ContactInfo,
		Meta: domain.ResultMeta{
			Method: "Light Screen (Keyword Match)",
			Model:  "N/A",
			Tier:   "Standard Tier",
		},
	}
}

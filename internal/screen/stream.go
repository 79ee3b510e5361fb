package screen

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"sync"

	"github.com/lynxscreen/screenpipe/internal/domain"
	"github.com/lynxscreen/screenpipe/internal/streaming"
)

// Stream runs Screen's same full/smart dispatch but writes results as
// NDJSON to w as each one completes, instead of collecting them into a
// slice (spec.md §5/§6).
func (e *Engine) Stream(ctx context.Context, req Request, w io.Writer) error {
	jd, err := e.store.JobDescriptions().Get(ctx, req.ProjectID)
	if err != nil {
		return err
	}
	jdContext, err := buildJDContext(jd)
	if err != nil {
		return err
	}

	sw := streaming.New(w)
	if req.Smart {
		return e.streamSmart(ctx, req, jd, jdContext, sw)
	}
	return e.streamFull(ctx, req, jdContext, sw)
}

func (e *Engine) streamFull(ctx context.Context, req Request, jdContext string, sw *streaming.Writer) error {
	resumes, err := e.fetchResumes(ctx, req.ProjectID, req.FileIDs)
	if err != nil {
		return err
	}
	if err := sw.WriteMeta(len(resumes), nil, nil); err != nil {
		return err
	}
	e.streamCompletionOrder(ctx, jdContext, resumes, req.Anonymize, sw)
	return sw.WriteComplete()
}

// streamSmart mirrors smartScreen's split but writes the bottom tier
// sequentially in ranked order (each emission followed by an explicit
// yield, per spec.md §5) before fanning the top tier out in completion
// order.
func (e *Engine) streamSmart(ctx context.Context, req Request, jd *domain.JobDescription, jdContext string, sw *streaming.Writer) error {
	ranked, err := e.rankedCandidates(ctx, req.ProjectID, jd.Description, req.FileIDs, rankingTopK)
	if err != nil {
		return err
	}

	scores := make([]float64, len(ranked))
	for i, c := range ranked {
		scores[i] = c.Score
	}
	split := DynamicSplit(scores, req.minTopCount())
	topCandidates, bottomCandidates := ranked[:split], ranked[split:]

	resumesByFileID, err := e.resumeIndex(ctx, req.ProjectID, ranked)
	if err != nil {
		return err
	}

	top, bottomLen := len(topCandidates), len(bottomCandidates)
	if err := sw.WriteMeta(len(ranked), &top, &bottomLen); err != nil {
		return err
	}

	var keywords []string
	if bottomLen > 0 {
		keywords, err = e.extractKeywords(ctx, req.ProjectID, jd.Description)
		if err != nil {
			return err
		}
	}

	for _, c := range bottomCandidates {
		r, ok := resumesByFileID[c.FileID]
		if !ok {
			continue
		}
		result := lightScreenOne(r, c, keywords)
		if req.Anonymize {
			result.Anonymize()
		}
		if err := sw.WriteResult(result); err != nil {
			return err
		}
		runtime.Gosched()
	}

	topResumes := resumesFor(topCandidates, resumesByFileID)
	e.streamCompletionOrder(ctx, jdContext, topResumes, req.Anonymize, sw)
	return sw.WriteComplete()
}

// streamCompletionOrder full-screens resumes concurrently, bounded by the
// engine's limiter, submitting each screen into the conc-backed
// streamPool. A panic inside any one candidate's screen is recovered in
// its task and written as that candidate's error result rather than
// crashing the process. Because every submitted task
// writes through the same mutex-protected Writer, whichever candidate's
// screen finishes first is written first — "order of completion", not
// input order.
func (e *Engine) streamCompletionOrder(ctx context.Context, jdContext string, resumes []*domain.Resume, anonymize bool, sw *streaming.Writer) {
	var wg sync.WaitGroup
	for _, r := range resumes {
		r := r
		if err := e.limiter.AcquireCtx(ctx); err != nil {
			result := errorResult(r, err)
			if anonymize {
				result.Anonymize()
			}
			_ = sw.WriteResult(result)
			continue
		}
		wg.Add(1)
		submitErr := e.streamPool.Submit(func() {
			defer wg.Done()
			defer e.limiter.Release()
			defer func() {
				if p := recover(); p != nil {
					result := errorResult(r, fmt.Errorf("screen: panic while screening %s: %v", r.FileID, p))
					if anonymize {
						result.Anonymize()
					}
					_ = sw.WriteResult(result)
				}
			}()
			result := e.fullScreenOne(ctx, jdContext, r)
			if anonymize {
				result.Anonymize()
			}
			_ = sw.WriteResult(result)
		})
		if submitErr != nil {
			wg.Done()
			e.limiter.Release()
			result := errorResult(r, submitErr)
			if anonymize {
				result.Anonymize()
			}
			_ = sw.WriteResult(result)
		}
	}
	wg.Wait()
}

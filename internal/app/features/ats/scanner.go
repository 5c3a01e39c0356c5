// internal/app/features/ats/scanner.go
package ats

import (
	"context"
	"errors"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/dalemusser/placementhub/internal/app/system/aicache"
	"github.com/dalemusser/placementhub/internal/app/system/llm"
	"github.com/dalemusser/placementhub/internal/domain/models"
	"go.uber.org/zap"
)

// Scanner scores a resume against a job description with the LLM and falls
// back to keyword overlap when the model is unavailable or answers badly.
type Scanner struct {
	LLM   llm.Client
	Cache *aicache.Cache // nil disables caching
	Log   *zap.Logger
}

// modelShare is the part of the caller's remaining time the model may use.
// The rest is left for the fallback and for saving the scan.
const modelShare = 2.0 / 3

// Scan never fails for model problems, including a model that runs out of
// its share of the deadline. Only a done ctx is returned as an error.
func (s *Scanner) Scan(ctx context.Context, resume, jd string) (models.ATSResult, error) {
	key := aicache.Key("ats", resume, jd)
	var cached models.ATSResult
	if ok, err := s.Cache.Get(ctx, key, &cached); err != nil {
		s.Log.Warn("ats cache read failed", zap.Error(err))
	} else if ok {
		return cached, nil
	}

	askCtx, cancel := modelContext(ctx)
	res, err := s.ask(askCtx, resume, jd)
	cancel()
	if err != nil {
		if ctx.Err() != nil {
			return models.ATSResult{}, ctx.Err()
		}
		if !errors.Is(err, llm.ErrNotConfigured) {
			s.Log.Warn("ats llm scan failed, using keyword fallback", zap.Error(err))
		}
		return KeywordScore(resume, jd), nil
	}

	if err := s.Cache.Set(ctx, key, res); err != nil {
		s.Log.Warn("ats cache write failed", zap.Error(err))
	}
	return res, nil
}

func modelContext(ctx context.Context) (context.Context, context.CancelFunc) {
	dl, ok := ctx.Deadline()
	if !ok {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, time.Duration(float64(time.Until(dl))*modelShare))
}

func (s *Scanner) ask(ctx context.Context, resume, jd string) (models.ATSResult, error) {
	prompt, err := llm.Render(llm.PromptATS, map[string]string{"Resume": resume, "JobDescription": jd})
	if err != nil {
		return models.ATSResult{}, err
	}
	raw, err := s.LLM.Complete(ctx, llm.Request{
		System:      llm.SystemJSON,
		Prompt:      prompt,
		Temperature: 0.2,
		JSON:        true,
	})
	if err != nil {
		return models.ATSResult{}, err
	}
	res, err := llm.DecodeJSON[models.ATSResult](raw)
	if err != nil {
		return models.ATSResult{}, err
	}
	if res.Score < 0 || res.Score > 100 {
		return models.ATSResult{}, fmt.Errorf("ats: score %d out of range", res.Score)
	}
	res.Source = models.ScanSourceLLM
	return tidy(res), nil
}

func tidy(r models.ATSResult) models.ATSResult {
	clean := func(in []string) []string {
		out := make([]string, 0, len(in))
		for _, s := range in {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	r.MatchedKeywords = clean(r.MatchedKeywords)
	r.MissingKeywords = clean(r.MissingKeywords)
	r.Suggestions = clean(r.Suggestions)
	r.Summary = strings.TrimSpace(r.Summary)
	return r
}

/*─────────────────────────────────────────────────────────────────────────────*
| Keyword fallback                                                             |
*─────────────────────────────────────────────────────────────────────────────*/

// maxKeywords caps how many job description terms the fallback weighs.
const maxKeywords = 30

var wordRE = regexp.MustCompile(`[a-z0-9][a-z0-9+#.]*`)

var stopwords = map[string]struct{}{}

func init() {
	for _, w := range strings.Fields(`a an and are as at be by for from has have in is it its of on or
	that the this to was will with we you your our they their who what when where which while
	can able should must may would about into over under than then also more most other such
	work working team teams role job candidate candidates experience years year strong good
	excellent knowledge understanding ability skills skill required requirements preferred plus
	etc using use used well new including include responsibilities looking join company`) {
		stopwords[w] = struct{}{}
	}
}

func tokens(s string) []string {
	raw := wordRE.FindAllString(strings.ToLower(s), -1)
	out := raw[:0]
	for _, t := range raw {
		t = strings.TrimRight(t, ".")
		if len(t) < 2 && t != "c" && t != "r" {
			continue
		}
		if _, stop := stopwords[t]; stop {
			continue
		}
		if isNumber(t) {
			continue
		}
		out = append(out, t)
	}
	return out
}

func isNumber(s string) bool {
	for _, r := range s {
		if (r < '0' || r > '9') && r != '.' {
			return false
		}
	}
	return true
}

// keywords returns the job description's most frequent terms, most frequent first.
func keywords(jd string) []string {
	counts := map[string]int{}
	var order []string
	for _, t := range tokens(jd) {
		if counts[t] == 0 {
			order = append(order, t)
		}
		counts[t]++
	}
	sort.SliceStable(order, func(i, j int) bool { return counts[order[i]] > counts[order[j]] })
	if len(order) > maxKeywords {
		order = order[:maxKeywords]
	}
	return order
}

// KeywordScore rates the resume by the share of job description keywords it
// contains.
func KeywordScore(resume, jd string) models.ATSResult {
	have := map[string]struct{}{}
	for _, t := range tokens(resume) {
		have[t] = struct{}{}
	}

	res := models.ATSResult{
		MatchedKeywords: []string{},
		MissingKeywords: []string{},
		Suggestions:     []string{},
		Source:          models.ScanSourceFallback,
	}
	want := keywords(jd)
	for _, k := range want {
		if _, ok := have[k]; ok {
			res.MatchedKeywords = append(res.MatchedKeywords, k)
		} else {
			res.MissingKeywords = append(res.MissingKeywords, k)
		}
	}
	if len(want) > 0 {
		res.Score = int(math.Round(float64(len(res.MatchedKeywords)) / float64(len(want)) * 100))
	}

	for i, k := range res.MissingKeywords {
		if i == 5 {
			break
		}
		res.Suggestions = append(res.Suggestions, fmt.Sprintf("Mention %q if you have relevant experience with it.", k))
	}
	if len(res.MissingKeywords) == 0 && len(want) > 0 {
		res.Suggestions = append(res.Suggestions, "Quantify your impact in each project and role.")
	}
	res.Summary = fmt.Sprintf("Keyword match: %d of %d job description terms found in the resume.",
		len(res.MatchedKeywords), len(want))
	return res
}

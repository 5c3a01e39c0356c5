package ats

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dalemusser/placementhub/internal/app/system/llm"
	"github.com/dalemusser/placementhub/internal/domain/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubLLM struct {
	reply string
	err   error
	calls int
}

func (s *stubLLM) Complete(context.Context, llm.Request) (string, error) {
	s.calls++
	return s.reply, s.err
}

const jd = "Backend engineer: Go, Kubernetes, PostgreSQL and Docker. Go services on Kubernetes."

func TestKeywordScore(t *testing.T) {
	res := KeywordScore("Built Go microservices deployed with Docker.", jd)

	assert.Equal(t, models.ScanSourceFallback, res.Source)
	assert.Contains(t, res.MatchedKeywords, "go")
	assert.Contains(t, res.MatchedKeywords, "docker")
	assert.Contains(t, res.MissingKeywords, "kubernetes")
	assert.Contains(t, res.MissingKeywords, "postgresql")
	assert.NotContains(t, res.MissingKeywords, "and", "stopwords are ignored")
	assert.Greater(t, res.Score, 0)
	assert.Less(t, res.Score, 100)
	assert.NotEmpty(t, res.Suggestions)
	assert.Equal(t, "go", keywords(jd)[0], "most frequent term first")
}

func TestKeywordScore_Edges(t *testing.T) {
	empty := KeywordScore("anything", "")
	assert.Equal(t, 0, empty.Score)
	assert.NotNil(t, empty.MatchedKeywords)

	full := KeywordScore("C++ and C# with node.js", "C++, C# and Node.js")
	assert.Equal(t, 100, full.Score)
	assert.ElementsMatch(t, []string{"c++", "c#", "node.js"}, full.MatchedKeywords)
}

func TestScanner_UsesModel(t *testing.T) {
	stub := &stubLLM{reply: "```json\n" + `{"score": 82, "matched_keywords": ["go", " "], "missing_keywords": ["kubernetes"],
		"suggestions": ["Add a Kubernetes project"], "summary": " Solid match. "}` + "\n```"}
	s := &Scanner{LLM: stub, Log: zap.NewNop()}

	res, err := s.Scan(context.Background(), "Go developer", jd)
	require.NoError(t, err)
	assert.Equal(t, models.ScanSourceLLM, res.Source)
	assert.Equal(t, 82, res.Score)
	assert.Equal(t, []string{"go"}, res.MatchedKeywords)
	assert.Equal(t, "Solid match.", res.Summary)
}

func TestScanner_FallsBack(t *testing.T) {
	tests := []struct {
		name string
		stub *stubLLM
	}{
		{"not configured", &stubLLM{err: llm.ErrNotConfigured}},
		{"provider error", &stubLLM{err: errors.New("502 bad gateway")}},
		{"prose reply", &stubLLM{reply: "I think this resume is great!"}},
		{"score out of range", &stubLLM{reply: `{"score": 140}`}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := &Scanner{LLM: tc.stub, Log: zap.NewNop()}
			res, err := s.Scan(context.Background(), "Go and Docker", jd)
			require.NoError(t, err)
			assert.Equal(t, models.ScanSourceFallback, res.Source)
			assert.Equal(t, 1, tc.stub.calls)
		})
	}
}

// blockingLLM answers only when its context ends.
type blockingLLM struct{}

func (blockingLLM) Complete(ctx context.Context, _ llm.Request) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func TestScanner_SlowModelFallsBack(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()
	s := &Scanner{LLM: blockingLLM{}, Log: zap.NewNop()}

	res, err := s.Scan(ctx, "Go and Docker", jd)
	require.NoError(t, err)
	assert.Equal(t, models.ScanSourceFallback, res.Source)
	assert.Greater(t, res.Score, 0)
	assert.NoError(t, ctx.Err(), "time is left to save the scan")
}

func TestScanner_CallerCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	s := &Scanner{LLM: blockingLLM{}, Log: zap.NewNop()}

	_, err := s.Scan(ctx, "Go", jd)
	assert.ErrorIs(t, err, context.Canceled)
}

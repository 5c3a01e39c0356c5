package coderunner

import (
	"context"
	"fmt"
	"strings"

	"github.com/dalemusser/placementhub/internal/domain/models"
)

// Verdict is the outcome of judging a solution against a set of cases.
type Verdict struct {
	Verdict string `json:"verdict"`
	Passed  int    `json:"passed"`
	Total   int    `json:"total"`
	Detail  string `json:"detail,omitempty"`
}

// Judge compiles code once and runs it against each case in order, stopping
// at the first failure. Output is compared after trimming surrounding
// whitespace and trailing spaces on each line.
func (r *Runner) Judge(ctx context.Context, language, code string, cases []models.TestCase) (Verdict, error) {
	v := Verdict{Total: len(cases)}
	lang, err := r.language(language, code)
	if err != nil {
		return v, err
	}
	release, err := r.acquire(ctx)
	if err != nil {
		return v, err
	}
	defer release()

	ws, err := r.newWorkspace(lang, code)
	if err != nil {
		return v, err
	}
	defer ws.remove()

	res, ok, err := ws.compile(ctx)
	if err != nil {
		return v, err
	}
	if !ok {
		v.Verdict = models.VerdictCompileError
		v.Detail = firstLines(res.Stderr+res.Stdout, 20)
		return v, nil
	}

	for i, tc := range cases {
		res, err := ws.run(ctx, tc.Input)
		if err != nil {
			return v, err
		}
		switch {
		case res.TimedOut:
			v.Verdict = models.VerdictTimeLimit
			v.Detail = fmt.Sprintf("case %d exceeded %s", i+1, r.cfg.Timeout)
			return v, nil
		case res.ExitCode != 0:
			v.Verdict = models.VerdictRuntimeError
			v.Detail = fmt.Sprintf("case %d exited with %d\n%s", i+1, res.ExitCode, firstLines(res.Stderr, 20))
			return v, nil
		case !OutputMatches(res.Stdout, tc.Output):
			v.Verdict = models.VerdictWrongAnswer
			v.Detail = fmt.Sprintf("case %d: wrong output", i+1)
			return v, nil
		}
		v.Passed++
	}
	v.Verdict = models.VerdictAccepted
	return v, nil
}

// OutputMatches compares program output with the expected answer, ignoring
// trailing whitespace on lines, surrounding blank lines and CRLF endings.
func OutputMatches(got, want string) bool {
	return normalizeOutput(got) == normalizeOutput(want)
}

func normalizeOutput(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	lines := strings.Split(strings.TrimSpace(s), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " \t")
	}
	return strings.Join(lines, "\n")
}

func firstLines(s string, n int) string {
	lines := strings.SplitN(s, "\n", n+1)
	if len(lines) > n {
		lines = lines[:n]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

package eval

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"

	"github.com/jt828/ollyllm-go/pkg/tracing"
	"golang.org/x/sync/errgroup"
)

var ErrIncomplete = errors.New("eval: missing id or function")

type Case[T, U any] struct {
	Input    T
	Expected U
}

// Score is the outcome of one case. Hash identifies the case across runs and
// versions; it does not depend on the output.
type Score struct {
	EvalID      string
	EvalVersion string
	Hash        string
	Score       float64
	SpanID      string
	TraceID     string
}

type Eval[T, U any] struct {
	ID      string
	Version string
	Data    func(ctx context.Context) ([]Case[T, U], error)
	Task    func(ctx context.Context, input T) (U, error)
	Scoring func(ctx context.Context, input T, expected, output U) (float64, error)

	// Parallelism bounds concurrent cases; zero or less runs all at once.
	Parallelism int
}

// Run loads the cases and scores each one in its own span under a root span
// named after the eval. Scores keep the order of the cases. The first failing
// case cancels the others and its error is returned.
func (e *Eval[T, U]) Run(ctx context.Context, s *tracing.Session) ([]Score, error) {
	if e.ID == "" || e.Data == nil || e.Task == nil || e.Scoring == nil {
		return nil, fmt.Errorf("eval %q: %w", e.ID, ErrIncomplete)
	}

	return tracing.Trace(ctx, s, "eval."+e.ID, func(ctx context.Context) ([]Score, error) {
		cases, err := e.Data(ctx)
		if err != nil {
			return nil, fmt.Errorf("eval %s data: %w", e.ID, err)
		}

		scores := make([]Score, len(cases))
		g, gctx := errgroup.WithContext(ctx)
		if e.Parallelism > 0 {
			g.SetLimit(e.Parallelism)
		}
		for i, c := range cases {
			g.Go(func() error {
				score, err := e.runCase(gctx, s, c)
				if err != nil {
					return fmt.Errorf("eval %s case %d: %w", e.ID, i, err)
				}
				scores[i] = score
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		return scores, nil
	})
}

func (e *Eval[T, U]) runCase(ctx context.Context, s *tracing.Session, c Case[T, U]) (Score, error) {
	hash := CaseHash(c.Input, c.Expected)
	return tracing.Trace(ctx, s, "eval."+e.ID+".case", func(ctx context.Context) (Score, error) {
		output, err := e.Task(ctx, c.Input)
		if err != nil {
			return Score{}, err
		}
		value, err := e.Scoring(ctx, c.Input, c.Expected, output)
		if err != nil {
			return Score{}, fmt.Errorf("scoring: %w", err)
		}

		score := Score{EvalID: e.ID, EvalVersion: e.Version, Hash: hash, Score: value}
		if span := tracing.SpanFromContext(ctx); span != nil {
			score.SpanID, score.TraceID = span.ID(), span.TraceID()
			span.Info("scored", map[string]string{
				"hash":  hash,
				"score": strconv.FormatFloat(value, 'g', -1, 64),
			})
		}
		return score, nil
	})
}

// CaseHash is the hex sha256 of the input followed by the expected value,
// both in their default formatting.
func CaseHash(input, expected any) string {
	sum := sha256.Sum256([]byte(fmt.Sprint(input) + fmt.Sprint(expected)))
	return hex.EncodeToString(sum[:])
}

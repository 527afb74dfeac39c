// Command example traces a small retrieval-augmented answer pipeline and
// validates the final answer, then scores the retriever against a small eval
// set. Configure it with OLLY_API_KEY, OLLY_BASE_URL
// and OLLY_DEBUG=true to print spans instead of sending them.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jt828/ollyllm-go/pkg/eval"
	"github.com/jt828/ollyllm-go/pkg/observability"
	"github.com/jt828/ollyllm-go/pkg/observability/implementation"
	"github.com/jt828/ollyllm-go/pkg/tracing"
)

type retriever struct {
	documents map[string]string
}

func (r *retriever) Retrieve(_ context.Context, question string) (string, error) {
	for topic, doc := range r.documents {
		if strings.Contains(strings.ToLower(question), topic) {
			return doc, nil
		}
	}
	return "", fmt.Errorf("no document for %q", question)
}

func compose(_ context.Context, question, document string) (string, error) {
	return fmt.Sprintf("Q: %s\nA: %s", question, document), nil
}

func answerValidators() []tracing.Validator[string] {
	return []tracing.Validator[string]{
		{ID: "non-empty", Version: "v1", Check: func(answer string) bool { return strings.TrimSpace(answer) != "" }},
		{ID: "short", Version: "v1", Check: func(answer string) bool { return len(answer) < 280 }},
	}
}

func retrievalEval(r *retriever, session *tracing.Session) *eval.Eval[string, string] {
	prompt := &eval.Prompt[string, string]{
		ID:      "retrieve",
		Version: "v1",
		Model:   "keyword",
		Prepare: func(context.Context) (func(context.Context, string) (string, error), error) {
			return r.Retrieve, nil
		},
	}
	return &eval.Eval[string, string]{
		ID:      "retrieval",
		Version: "v1",
		Data: func(context.Context) ([]eval.Case[string, string], error) {
			return []eval.Case[string, string]{
				{Input: "What is a span?", Expected: r.documents["span"]},
				{Input: "Explain a trace", Expected: r.documents["trace"]},
			}, nil
		},
		Task: func(ctx context.Context, question string) (string, error) {
			return prompt.Execute(ctx, session, question)
		},
		Scoring: func(_ context.Context, _ string, expected, output string) (float64, error) {
			if expected == output {
				return 1, nil
			}
			return 0, nil
		},
		Parallelism: 2,
	}
}

func main() {
	log, err := implementation.NewZapLogger(true)
	if err != nil {
		panic(err)
	}

	opts, err := tracing.OptionsFromEnv()
	if err != nil {
		log.Fatal("invalid configuration", observability.Err(err))
	}

	session, err := tracing.Init(opts, tracing.WithLogger(log))
	if err != nil {
		log.Fatal("failed to initialize tracing", observability.Err(err))
	}

	r := &retriever{documents: map[string]string{
		"span":  "A span is one timed operation inside a trace.",
		"trace": "A trace is the tree of spans started by one root operation.",
	}}
	retrieve := tracing.Wrap1(session, r.Retrieve)
	answer := tracing.Wrap2(session, compose, tracing.WithName("compose_answer"))

	question := "What is a span?"
	if len(os.Args) > 1 {
		question = strings.Join(os.Args[1:], " ")
	}

	ctx := context.Background()
	result, err := tracing.TraceWithTests(ctx, session, "answer_question", answerValidators(), func(ctx context.Context) (string, error) {
		if span := session.CurrentSpan(ctx); span != nil {
			span.Info("question received", map[string]string{"question": question})
		}
		doc, err := retrieve(ctx, question)
		if err != nil {
			return "", err
		}
		return answer(ctx, question, doc)
	})
	if err != nil {
		log.Error("pipeline failed", observability.Err(err))
	} else {
		fmt.Println(result)
	}

	scores, err := retrievalEval(r, session).Run(ctx, session)
	if err != nil {
		log.Error("eval failed", observability.Err(err))
	}
	for _, sc := range scores {
		log.Info("eval case scored", observability.String("hash", sc.Hash[:12]), observability.Any("score", sc.Score))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := session.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to shut down tracing", observability.Err(err))
	}
}

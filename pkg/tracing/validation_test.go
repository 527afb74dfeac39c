package tracing_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jt828/ollyllm-go/pkg/model"
	"github.com/jt828/ollyllm-go/pkg/tracing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func answerValidators() []tracing.Validator[string] {
	return []tracing.Validator[string]{
		{ID: "non-empty", Version: "1", Check: func(s string) bool { return s != "" }},
		{ID: "short", Version: "2", Check: func(s string) bool { return len(s) < 5 }},
		{ID: "explodes", Version: "1", Check: func(s string) bool { panic("validator bug") }},
	}
}

func TestTraceWithTests(t *testing.T) {
	t.Run("reports one result per validator against the span", func(t *testing.T) {
		f := newFixture(t, tracing.Options{})

		var spanID string
		got, err := tracing.TraceWithTests(context.Background(), f.session, "answer", answerValidators(), func(ctx context.Context) (string, error) {
			spanID = tracing.SpanFromContext(ctx).ID()
			return "a long answer", nil
		})
		require.NoError(t, err)
		assert.Equal(t, "a long answer", got)
		require.NoError(t, f.session.Shutdown(context.Background()))

		results := f.exporter.testResults()
		require.Len(t, results, 3)
		byID := map[string]model.TestResult{}
		for _, r := range results {
			assert.Equal(t, spanID, r.SpanID)
			assert.NotEmpty(t, r.TraceID)
			byID[r.TestID] = r
		}
		assert.True(t, byID["non-empty"].Passed)
		assert.False(t, byID["short"].Passed)
		assert.Equal(t, "2", byID["short"].TestVersion)
		assert.False(t, byID["explodes"].Passed)
		assert.True(t, strings.Contains(byID["explodes"].Error, "validator bug"))
		assert.Equal(t, 1.0, f.metricValue(t, "ollyllm_test_results_total", map[string]string{"passed": "true"}))
		assert.Equal(t, 2.0, f.metricValue(t, "ollyllm_test_results_total", map[string]string{"passed": "false"}))
	})

	t.Run("validators see the result before the caller changes it", func(t *testing.T) {
		f := newFixture(t, tracing.Options{})
		validators := []tracing.Validator[map[string]int]{
			{ID: "initial", Version: "1", Check: func(m map[string]int) bool { return m["k"] == 0 }},
		}

		for i := 1; i <= 20; i++ {
			res, err := tracing.TraceWithTests(context.Background(), f.session, "counts", validators, func(ctx context.Context) (map[string]int, error) {
				return map[string]int{"k": 0}, nil
			})
			require.NoError(t, err)
			res["k"] = i
		}
		require.NoError(t, f.session.Shutdown(context.Background()))

		results := f.exporter.testResults()
		require.Len(t, results, 20)
		for _, r := range results {
			assert.True(t, r.Passed)
		}
	})

	t.Run("failed call skips validators and keeps error", func(t *testing.T) {
		f := newFixture(t, tracing.Options{})
		boom := errors.New("boom")

		_, err := tracing.TraceWithTests(context.Background(), f.session, "answer", answerValidators(), func(ctx context.Context) (string, error) {
			return "", boom
		})
		require.NoError(t, f.session.Shutdown(context.Background()))

		assert.Same(t, boom, err)
		assert.Empty(t, f.exporter.testResults())
	})

	t.Run("debug mode logs results instead of sending", func(t *testing.T) {
		f := newFixture(t, tracing.Options{Debug: true})

		_, err := tracing.TraceWithTests(context.Background(), f.session, "answer", answerValidators()[:1], func(ctx context.Context) (string, error) {
			return "ok", nil
		})
		require.NoError(t, err)
		require.NoError(t, f.session.Shutdown(context.Background()))

		assert.Empty(t, f.exporter.testResults())
		var logged []string
		for _, e := range f.log.byLevel("info") {
			if e.msg == "test result" {
				logged = append(logged, e.field("test_id").(string))
			}
		}
		assert.Equal(t, []string{"non-empty"}, logged)
	})

	t.Run("after shutdown results are dropped with a warning", func(t *testing.T) {
		f := newFixture(t, tracing.Options{})
		require.NoError(t, f.session.Shutdown(context.Background()))

		got, err := tracing.TraceWithTests(context.Background(), f.session, "late", answerValidators(), func(ctx context.Context) (string, error) {
			return "x", nil
		})

		require.NoError(t, err)
		assert.Equal(t, "x", got)
		assert.Empty(t, f.exporter.testResults())
		assert.NotEmpty(t, f.log.byLevel("warn"))
	})

	t.Run("nil session calls through", func(t *testing.T) {
		restore := tracing.SetFallbackLogger(&recordingLogger{})
		defer restore()

		got, err := tracing.TraceWithTests(context.Background(), nil, "answer", answerValidators(), func(ctx context.Context) (string, error) {
			return "plain", nil
		})

		require.NoError(t, err)
		assert.Equal(t, "plain", got)
	})
}

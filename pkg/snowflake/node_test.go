package snowflake_test

import (
	"testing"
	"time"

	"github.com/jt828/ollyllm-go/pkg/snowflake"
	snowflakeImpl "github.com/jt828/ollyllm-go/pkg/snowflake/implementation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNodeIDFromHostname(t *testing.T) {
	t.Run("stable for the same hostname", func(t *testing.T) {
		t.Setenv("HOSTNAME", "ollyllm-collector-7f8b9c6d4-x2k9p")
		first, err := snowflake.NodeIDFromHostname()
		require.NoError(t, err)
		second, err := snowflake.NodeIDFromHostname()
		require.NoError(t, err)

		assert.Equal(t, first, second)
	})

	t.Run("differs across pods", func(t *testing.T) {
		assert.NotEqual(t,
			snowflake.NodeID("ollyllm-collector-7f8b9c6d4-x2k9p"),
			snowflake.NodeID("ollyllm-collector-7f8b9c6d4-a3m7n"),
		)
	})

	t.Run("within the 10 bit node range", func(t *testing.T) {
		for _, host := range []string{"a", "worker-1", "ollyllm-collector-abc123-def456", "laptop.local"} {
			id := snowflake.NodeID(host)
			assert.GreaterOrEqual(t, id, int64(0))
			assert.LessOrEqual(t, id, int64(1023))
		}
	})

	t.Run("missing hostname", func(t *testing.T) {
		t.Setenv("HOSTNAME", "")

		_, err := snowflake.NodeIDFromHostname()

		assert.Error(t, err)
	})

	t.Run("fallback always yields a usable node", func(t *testing.T) {
		t.Setenv("HOSTNAME", "")

		sf, err := snowflakeImpl.NewSnowflake(snowflake.NodeIDOrHost())
		require.NoError(t, err)

		assert.NotEqual(t, sf.Generate(), sf.Generate())
	})
}

func TestSnowflake(t *testing.T) {
	t.Run("node outside range is rejected", func(t *testing.T) {
		_, err := snowflakeImpl.NewSnowflake(1024)
		assert.ErrorContains(t, err, "snowflake node 1024")
	})

	t.Run("generated ids carry their creation time", func(t *testing.T) {
		sf, err := snowflakeImpl.NewSnowflake(7)
		require.NoError(t, err)

		before := time.Now().Add(-time.Second)
		created := snowflakeImpl.GeneratedAt(sf.Generate())

		assert.WithinRange(t, created, before, time.Now().Add(time.Second))
	})
}

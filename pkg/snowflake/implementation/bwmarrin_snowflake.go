package implementation

import (
	"fmt"
	"time"

	bwmarrin "github.com/bwmarrin/snowflake"
	"github.com/jt828/ollyllm-go/pkg/snowflake"
)

type bwmarrinSnowflake struct {
	node *bwmarrin.Node
}

// NewSnowflake accepts node ids in [0, 1023].
func NewSnowflake(nodeID int64) (snowflake.Snowflake, error) {
	node, err := bwmarrin.NewNode(nodeID)
	if err != nil {
		return nil, fmt.Errorf("snowflake node %d: %w", nodeID, err)
	}
	return &bwmarrinSnowflake{node: node}, nil
}

func (s *bwmarrinSnowflake) Generate() int64 {
	return s.node.Generate().Int64()
}

// GeneratedAt recovers the millisecond timestamp embedded in id.
func GeneratedAt(id int64) time.Time {
	return time.UnixMilli(bwmarrin.ParseInt64(id).Time()).UTC()
}

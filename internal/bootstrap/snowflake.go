package bootstrap

import (
	"github.com/jt828/ollyllm-go/pkg/snowflake"
	snowflakeImpl "github.com/jt828/ollyllm-go/pkg/snowflake/implementation"
)

func InitializeSnowflake() (snowflake.Snowflake, error) {
	nodeID, err := snowflake.NodeIDFromHostname()
	if err != nil {
		return nil, err
	}
	return snowflakeImpl.NewSnowflake(nodeID)
}

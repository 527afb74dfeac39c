package snowflake

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"os"
)

// NodeIDFromHostname maps HOSTNAME onto the 10-bit snowflake node space.
func NodeIDFromHostname() (int64, error) {
	hostname := os.Getenv("HOSTNAME")
	if hostname == "" {
		return 0, fmt.Errorf("HOSTNAME is not set")
	}
	return NodeID(hostname), nil
}

// NodeIDOrHost falls back to os.Hostname when HOSTNAME is unset, and to node 0
// when neither is available.
func NodeIDOrHost() int64 {
	if id, err := NodeIDFromHostname(); err == nil {
		return id
	}
	if h, err := os.Hostname(); err == nil && h != "" {
		return NodeID(h)
	}
	return 0
}

func NodeID(hostname string) int64 {
	h := fnv.New64a()
	h.Write([]byte(hostname))
	return int64(binary.BigEndian.Uint64(h.Sum(nil)) % 1024)
}

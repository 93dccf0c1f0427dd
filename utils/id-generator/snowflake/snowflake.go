package snowflake

import (
	"fmt"
	"os"
	"strconv"
	"sync"

	"github.com/bwmarrin/snowflake"
)

/* ========================================================================
 * Snowflake ID Generator
 * ========================================================================
 * 64-bit, roughly time-ordered primary keys for row identities.
 * Layout: 1 sign bit, 41-bit millisecond timestamp, 10-bit node id,
 * 12-bit per-millisecond sequence.
 *
 * Node id comes from SNOWFLAKE_NODE_ID (0-1023, default 0). Multi-instance
 * deployments must assign a distinct node id per instance.
 * ======================================================================== */

const (
	// MaxNodeID is the largest valid node id (10 bits).
	MaxNodeID = 1023
	// EnvNodeID is the environment variable the global node reads.
	EnvNodeID = "SNOWFLAKE_NODE_ID"
)

var (
	globalNode *snowflake.Node
	once       sync.Once
)

// Generator is an independent snowflake node for callers that need more
// than the process-global one.
type Generator struct {
	node *snowflake.Node
}

// NewGenerator creates a generator for the given node id.
func NewGenerator(nodeID int64) (*Generator, error) {
	if nodeID < 0 || nodeID > MaxNodeID {
		return nil, fmt.Errorf("snowflake: node id %d out of range [0,%d]", nodeID, MaxNodeID)
	}
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, err
	}
	return &Generator{node: node}, nil
}

// Generate returns a new id.
func (g *Generator) Generate() int64 {
	return g.node.Generate().Int64()
}

// Generate returns a new id from the process-global node. The node id is
// read from SNOWFLAKE_NODE_ID on first use; an invalid value panics because
// continuing with a colliding node id would silently produce duplicate keys.
func Generate() int64 {
	once.Do(func() {
		nodeID, err := envNodeID()
		if err == nil {
			globalNode, err = snowflake.NewNode(nodeID)
		}
		if err != nil {
			panic("snowflake: " + err.Error())
		}
	})
	return globalNode.Generate().Int64()
}

// GenerateString returns a new id in decimal string form.
func GenerateString() string {
	return snowflake.ID(Generate()).String()
}

// Parse splits an id into its millisecond timestamp and node id.
func Parse(id int64) (timestamp int64, nodeID int64) {
	sid := snowflake.ID(id)
	return sid.Time(), sid.Node()
}

func envNodeID() (int64, error) {
	val := os.Getenv(EnvNodeID)
	if val == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s=%q: invalid integer", EnvNodeID, val)
	}
	if id < 0 || id > MaxNodeID {
		return 0, fmt.Errorf("%s=%d: out of range [0,%d]", EnvNodeID, id, MaxNodeID)
	}
	return id, nil
}

package disruptor

import (
	"fmt"
)

// ValidationError represents a validation error with context
type ValidationError struct {
	Message string
	Details string
}

func (e ValidationError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s", e.Message, e.Details)
	}
	return e.Message
}

// Validate checks the invariants a registered topology holds: node ids are unique and
// every edge joins known consumers and runs from an earlier registration to a later one.
// A consumer can only wait on consumers registered before it, so an edge running the
// other way means the snapshot was edited or assembled elsewhere. Ordered edges also rule
// out cycles.
func (t Topology) Validate() error {
	known := make(map[uint64]bool, len(t.Nodes))
	for _, node := range t.Nodes {
		if known[node.ID] {
			return ValidationError{
				Message: "topology validation failed",
				Details: fmt.Sprintf("consumer id %d appears twice", node.ID),
			}
		}
		known[node.ID] = true
	}

	for _, edge := range t.Edges {
		if !known[edge.From] || !known[edge.To] {
			return ValidationError{
				Message: "topology validation failed",
				Details: fmt.Sprintf("edge %d -> %d references an unknown consumer", edge.From, edge.To),
			}
		}
		if edge.From >= edge.To {
			return ValidationError{
				Message: "topology validation failed",
				Details: fmt.Sprintf("edge %d -> %d runs against registration order", edge.From, edge.To),
			}
		}
	}

	return nil
}

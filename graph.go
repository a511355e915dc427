package disruptor

import (
	"math"

	"github.com/creastat/disruptor/core"
)

// Topology is a snapshot of the consumer dependency graph as a directed acyclic graph.
// An edge runs from an upstream consumer to the consumer whose barrier waits on it.
type Topology struct {
	// Nodes are the consumers in registration order
	Nodes []TopologyNode

	// Edges are the barrier dependencies between consumers
	Edges []TopologyEdge
}

// TopologyNode describes one registered consumer
type TopologyNode struct {
	ID         uint64
	Name       string
	Kind       ConsumerKind
	EndOfChain bool
	Running    bool

	// Sequence is the slowest position among the consumer's sequences
	Sequence int64
}

// TopologyEdge is a directed dependency between two consumers
type TopologyEdge struct {
	From uint64
	To   uint64
}

// Topology snapshots the dependency graph. Call it from the configuring goroutine,
// or at any time after Start.
func (d *Disruptor[T]) Topology() Topology {
	entries := d.repository.all()

	t := Topology{
		Nodes: make([]TopologyNode, 0, len(entries)),
		Edges: make([]TopologyEdge, 0, len(d.repository.edges)),
	}
	for _, info := range entries {
		t.Nodes = append(t.Nodes, TopologyNode{
			ID:         info.id,
			Name:       info.label(),
			Kind:       info.kind,
			EndOfChain: info.endOfChain,
			Running:    info.isRunning(),
			Sequence:   core.MinimumSequence(info.sequences(), math.MaxInt64),
		})
	}
	for _, edge := range d.repository.edges {
		t.Edges = append(t.Edges, TopologyEdge{From: edge.from, To: edge.to})
	}
	return t
}

// Node retrieves a node by id
func (t Topology) Node(id uint64) (TopologyNode, bool) {
	for _, node := range t.Nodes {
		if node.ID == id {
			return node, true
		}
	}
	return TopologyNode{}, false
}

// EntryNodes returns the consumers that wait only on the publisher
func (t Topology) EntryNodes() []TopologyNode {
	hasInput := make(map[uint64]bool)
	for _, edge := range t.Edges {
		hasInput[edge.To] = true
	}

	var nodes []TopologyNode
	for _, node := range t.Nodes {
		if !hasInput[node.ID] {
			nodes = append(nodes, node)
		}
	}
	return nodes
}

// ExitNodes returns the end-of-chain consumers, whose sequences gate the ring buffer
func (t Topology) ExitNodes() []TopologyNode {
	var nodes []TopologyNode
	for _, node := range t.Nodes {
		if node.EndOfChain {
			nodes = append(nodes, node)
		}
	}
	return nodes
}

// Upstream returns the ids of the consumers id waits on
func (t Topology) Upstream(id uint64) []uint64 {
	var ids []uint64
	for _, edge := range t.Edges {
		if edge.To == id {
			ids = append(ids, edge.From)
		}
	}
	return ids
}

// Downstream returns the ids of the consumers waiting on id
func (t Topology) Downstream(id uint64) []uint64 {
	var ids []uint64
	for _, edge := range t.Edges {
		if edge.From == id {
			ids = append(ids, edge.To)
		}
	}
	return ids
}

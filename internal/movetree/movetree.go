// Package movetree implements the annotated move tree: a mainline of moves
// with sibling variations branching off any move, pre/post text comments,
// and NAG annotations. Nodes live in an arena and are addressed by index
// rather than by pointer, so the tree can be deep-copied, persisted, and
// walked without per-node allocation.
package movetree

import (
	"fmt"
	"strings"

	"github.com/chesscore/chesscore/internal/position"
)

// NodeID addresses a node in a Tree's arena. The zero value, NoNode, means
// "no node" everywhere a pointer would have been nil.
type NodeID uint32

// NoNode is the distinguished "no node" id; arena index 0 is never issued.
const NoNode NodeID = 0

// MaxNAGs is the number of NAG slots carried per node.
const MaxNAGs = 4

// Node is one annotated move. Prev/Next link the node to its neighbours
// along whatever line it belongs to (mainline or a variation); Mainline
// points at the move this node branches from when this node is a variation
// head; Variation chains to the next sibling variation head at the same
// branch point. At most one of Prev and Mainline is set, matching the
// spec's "every non-head node has Prev; every head has Mainline or is the
// tree root" invariant.
type Node struct {
	Move position.Move

	Prev      NodeID
	Next      NodeID
	Mainline  NodeID
	Variation NodeID

	// PriorPosition is set only on head nodes (mainline root and every
	// variation head): the position immediately before this node's move,
	// letting the line be replayed without walking back through ancestors.
	PriorPosition *position.Position

	PosHash uint64

	PreComment  string
	PostComment string
	NAGs        [MaxNAGs]uint8
	NAGCount    int

	live bool
}

// IsMainline reports whether n has no Mainline pointer set, i.e. it is not
// a variation head. Moves after the head inside a variation report true too.
func (n *Node) IsMainline() bool { return n.Mainline == NoNode }

// IsVariationStart reports whether n is the first move of some variation
// (it has a Mainline pointer and no Prev).
func (n *Node) IsVariationStart() bool { return n.Mainline != NoNode && n.Prev == NoNode }

// Tree is the arena of nodes belonging to a single game's move tree. Index 0
// in nodes is reserved as the NoNode sentinel and never allocated to a move.
type Tree struct {
	nodes []Node
	Root  NodeID
}

// New returns an empty tree.
func New() *Tree {
	return &Tree{nodes: make([]Node, 1)}
}

func (t *Tree) alloc(n Node) NodeID {
	n.live = true
	t.nodes = append(t.nodes, n)
	return NodeID(len(t.nodes) - 1)
}

// Node returns a pointer to the node with the given id. Callers must not
// retain the pointer across calls that grow the arena (AddNext, AddVariation,
// Restore); re-fetch by id instead.
func (t *Tree) Node(id NodeID) *Node {
	if id == NoNode || int(id) >= len(t.nodes) || !t.nodes[id].live {
		return nil
	}
	return &t.nodes[id]
}

// AddNext appends a new mainline-of-its-line node after cur (NoNode to start
// the tree's mainline). prior is the position before m was played; it is
// recorded on the returned node only when cur is NoNode (this call starts
// the tree's mainline).
func (t *Tree) AddNext(cur NodeID, m position.Move, posHash uint64, prior *position.Position) NodeID {
	n := Node{Move: m, PosHash: posHash}
	if cur == NoNode {
		n.PriorPosition = prior
		id := t.alloc(n)
		t.Root = id
		return id
	}
	id := t.alloc(n)
	t.nodes[cur].Next = id
	t.nodes[id].Prev = cur
	return id
}

// AddVariation attaches a new sibling variation at the branch point
// identified by parent (the move the variation replaces) and atHead
// (true to insert as the first sibling, false to append at the tail of the
// sibling chain). prior is the position before m, recorded on the new head
// node so the variation is self-contained.
func (t *Tree) AddVariation(parent NodeID, m position.Move, posHash uint64, prior *position.Position, atHead bool) NodeID {
	n := Node{Move: m, PosHash: posHash, Mainline: parent, PriorPosition: prior}
	id := t.alloc(n)

	p := t.nodes[parent]
	if atHead || p.Variation == NoNode {
		if atHead {
			t.nodes[id].Variation = p.Variation
			t.nodes[parent].Variation = id
			return id
		}
		t.nodes[parent].Variation = id
		return id
	}

	tail := p.Variation
	for t.nodes[tail].Variation != NoNode {
		tail = t.nodes[tail].Variation
	}
	t.nodes[tail].Variation = id
	return id
}

// Promote swaps node with its parent mainline move: node becomes the
// mainline continuation at that branch point and the former mainline move
// becomes a variation. Only valid for a variation head (IsVariationStart).
func (t *Tree) Promote(node NodeID) error {
	n := t.Node(node)
	if n == nil || !n.IsVariationStart() {
		return fmt.Errorf("movetree: Promote requires a variation head")
	}
	parent := n.Mainline
	pn := t.Node(parent)

	// Remove node from parent's variation chain.
	if pn.Variation == node {
		pn.Variation = n.Variation
	} else {
		prev := pn.Variation
		for t.nodes[prev].Variation != node {
			prev = t.nodes[prev].Variation
		}
		t.nodes[prev].Variation = n.Variation
	}

	if n.PriorPosition == nil {
		n.PriorPosition = pn.PriorPosition
	}
	grandParentNext := t.findIncomingNext(parent)
	n.Mainline = NoNode
	n.Variation = NoNode
	n.Prev = NoNode
	n.Next = parent

	pn.Prev = node
	pn.Mainline = node
	pn.Next = NoNode
	pn.PriorPosition = nil

	if grandParentNext == NoNode {
		t.Root = node
	} else {
		t.nodes[grandParentNext].Next = node
	}
	return nil
}

// findIncomingNext returns the node whose Next pointer equals target, or
// NoNode if target is the tree root.
func (t *Tree) findIncomingNext(target NodeID) NodeID {
	if target == t.Root {
		return NoNode
	}
	for i := 1; i < len(t.nodes); i++ {
		if t.nodes[i].live && t.nodes[i].Next == target {
			return NodeID(i)
		}
	}
	return NoNode
}

// Demote swaps node with its next sibling in the variation chain.
func (t *Tree) Demote(node NodeID) error {
	n := t.Node(node)
	if n == nil {
		return fmt.Errorf("movetree: unknown node")
	}
	next := n.Variation
	if next == NoNode {
		return fmt.Errorf("movetree: node has no next sibling to demote past")
	}
	nn := t.Node(next)

	n.Variation = nn.Variation
	nn.Variation = node

	if n.Mainline != NoNode {
		parent := t.Node(n.Mainline)
		if parent.Variation == node {
			parent.Variation = next
		}
		nn.Mainline = n.Mainline
		n.Mainline = NoNode
	}
	return nil
}

// PromoteToMainline repeatedly promotes node until it is on the mainline.
func (t *Tree) PromoteToMainline(node NodeID) error {
	for {
		n := t.Node(node)
		if n == nil {
			return fmt.Errorf("movetree: unknown node")
		}
		if n.IsMainline() {
			return nil
		}
		if err := t.Promote(node); err != nil {
			return err
		}
	}
}

// Remove unlinks node (and, unless unlinkOnly, cascade-deletes its entire
// subtree: everything reachable via Next and Variation from it). The node's
// own Prev/Mainline links are left in place, which is what Restore uses to
// re-attach it.
func (t *Tree) Remove(node NodeID, unlinkOnly bool) {
	n := t.Node(node)
	if n == nil {
		return
	}
	if n.Prev != NoNode {
		t.nodes[n.Prev].Next = NoNode
	} else if n.Mainline != NoNode {
		parent := t.nodes[n.Mainline]
		if parent.Variation == node {
			t.nodes[n.Mainline].Variation = n.Variation
		} else {
			prev := parent.Variation
			for t.nodes[prev].Variation != node {
				prev = t.nodes[prev].Variation
			}
			t.nodes[prev].Variation = n.Variation
		}
	} else if node == t.Root {
		t.Root = NoNode
	}

	if !unlinkOnly {
		t.cascadeDelete(node)
	}
}

func (t *Tree) cascadeDelete(node NodeID) {
	n := t.Node(node)
	if n == nil {
		return
	}
	if n.Next != NoNode {
		t.cascadeDelete(n.Next)
	}
	if n.Variation != NoNode {
		t.cascadeDelete(n.Variation)
	}
	n.live = false
}

// Restore re-attaches a previously unlinked node at its original chain
// position. If another node now occupies that slot, it is returned
// (displaced) so the caller can decide where it goes; it is not deleted.
func (t *Tree) Restore(node NodeID) (displaced NodeID) {
	if node == NoNode || int(node) >= len(t.nodes) {
		return NoNode
	}
	n := &t.nodes[node]
	n.live = true

	if n.Prev != NoNode {
		prevNode := t.nodes[n.Prev]
		displaced = prevNode.Next
		t.nodes[n.Prev].Next = node
		return displaced
	}
	if n.Mainline != NoNode {
		parent := &t.nodes[n.Mainline]
		displaced = parent.Variation
		parent.Variation = node
		return displaced
	}
	displaced = t.Root
	t.Root = node
	return displaced
}

// DeepCopy produces an isomorphic subtree rooted at node in a fresh Tree,
// independent of t.
func (t *Tree) DeepCopy(node NodeID) *Tree {
	out := New()
	if node == NoNode {
		return out
	}
	var clone func(src NodeID) NodeID
	clone = func(src NodeID) NodeID {
		if src == NoNode {
			return NoNode
		}
		s := t.nodes[src]
		id := out.alloc(Node{
			Move:        s.Move,
			PosHash:     s.PosHash,
			PreComment:  s.PreComment,
			PostComment: s.PostComment,
			NAGs:        s.NAGs,
			NAGCount:    s.NAGCount,
		})
		if s.PriorPosition != nil {
			clone := *s.PriorPosition
			out.nodes[id].PriorPosition = &clone
		}
		if s.Next != NoNode {
			nextID := clone(s.Next)
			out.nodes[id].Next = nextID
			out.nodes[nextID].Prev = id
		}
		if s.Variation != NoNode {
			varID := clone(s.Variation)
			out.nodes[id].Variation = varID
			out.nodes[varID].Mainline = id
		}
		return id
	}
	out.Root = clone(node)
	return out
}

// Counts holds the aggregate sizing figures the binary/bitstream encoders
// need to size their buffers.
type Counts struct {
	Moves       int
	Variations  int
	NAGs        int
	AnnotBytes int // pre/post strings including their trailing NULs, plus each NAG byte and one NAG_NONE terminator per NAG run
}

// Count walks the entire subtree rooted at node and returns aggregate
// counting-helper figures.
func (t *Tree) Count(node NodeID) Counts {
	var c Counts
	var walk func(id NodeID, isVariationHead bool)
	walk = func(id NodeID, isVariationHead bool) {
		if id == NoNode {
			return
		}
		n := &t.nodes[id]
		c.Moves++
		if isVariationHead {
			c.Variations++
		}
		c.NAGs += n.NAGCount
		if n.PreComment != "" {
			c.AnnotBytes += len(n.PreComment) + 1
		}
		if n.PostComment != "" {
			c.AnnotBytes += len(n.PostComment) + 1
		}
		if n.NAGCount > 0 {
			c.AnnotBytes += n.NAGCount + 1 // NAG bytes plus NAG_NONE terminator
		}
		walk(n.Next, false)
		walk(n.Variation, true)
	}
	walk(node, false)
	return c
}

// RepeatedPositionCount walks backward from node along Prev, following
// Mainline up at every branch point, counting how many ancestor positions
// (including node's own, if includeSelf) share hash. Used for 3-fold
// repetition detection, which must see repetitions across variation
// boundaries the same way the game was actually played.
func (t *Tree) RepeatedPositionCount(node NodeID, hash uint64, includeSelf bool) int {
	count := 0
	id := node
	first := true
	for id != NoNode {
		n := &t.nodes[id]
		if (includeSelf || !first) && n.PosHash == hash {
			count++
		}
		first = false
		if n.Prev != NoNode {
			id = n.Prev
		} else {
			id = n.Mainline
		}
	}
	return count
}

// Dot renders the subtree rooted at node as Graphviz DOT source: mainline
// edges solid, head-to-sibling edges dashed.
func (t *Tree) Dot(node NodeID) string {
	var sb strings.Builder
	sb.WriteString("digraph movetree {\n")
	var walk func(id NodeID)
	walk = func(id NodeID) {
		if id == NoNode {
			return
		}
		n := &t.nodes[id]
		sb.WriteString(fmt.Sprintf("  n%d [label=%q];\n", id, n.Move.String()))
		if n.Next != NoNode {
			sb.WriteString(fmt.Sprintf("  n%d -> n%d [style=solid];\n", id, n.Next))
			walk(n.Next)
		}
		if n.Variation != NoNode {
			sb.WriteString(fmt.Sprintf("  n%d -> n%d [style=dashed];\n", id, n.Variation))
			walk(n.Variation)
		}
	}
	walk(node)
	sb.WriteString("}\n")
	return sb.String()
}

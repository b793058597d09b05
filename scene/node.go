package scene

import (
	"sync"

	"github.com/enetx/vsm"
)

var (
	_ vsm.Entity     = (*Node)(nil)
	_ vsm.Visibility = (*Node)(nil)
)

// Node is a named scene object with a position and a visibility flag.
type Node struct {
	mu       sync.RWMutex
	name     string
	position vsm.Vector3
	visible  bool
}

// Name returns the node name the scene knows it by.
func (n *Node) Name() string { return n.name }

// Position returns the node position.
func (n *Node) Position() vsm.Vector3 {
	n.mu.RLock()
	defer n.mu.RUnlock()

	return n.position
}

// SetPosition moves the node to p.
func (n *Node) SetPosition(p vsm.Vector3) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.position = p
}

// Visible reports whether the node is shown.
func (n *Node) Visible() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()

	return n.visible
}

// SetVisible shows or hides the node.
func (n *Node) SetVisible(visible bool) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.visible = visible
}

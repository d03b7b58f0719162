package ast

// VisitOrder selects whether Visit calls fn before or after a node's
// children.
type VisitOrder uint8

const (
	PreOrder VisitOrder = iota
	PostOrder
)

// Visit performs a depth-first walk of root and its descendants, calling fn
// for every node encountered. Returning false from fn skips that node's
// children (PreOrder only; PostOrder always visits every child since the
// decision to skip only matters before descending).
func Visit(root Node, order VisitOrder, fn func(Node) bool) {
	if root == nil {
		return
	}
	if order == PreOrder {
		if !fn(root) {
			return
		}
		for _, c := range root.Children() {
			Visit(c, order, fn)
		}
		return
	}
	for _, c := range root.Children() {
		Visit(c, order, fn)
	}
	fn(root)
}

// VisitByKind walks root in pre-order, invoking fn only for nodes whose Kind
// matches one of the given kinds. Used by collection passes that care about
// a handful of node shapes (e.g. every Function, StructDef and MacroDef at
// module scope) without writing a full type switch.
func VisitByKind(root Node, fn func(Node), kinds ...NodeKind) {
	want := make(map[NodeKind]bool, len(kinds))
	for _, k := range kinds {
		want[k] = true
	}
	Visit(root, PreOrder, func(n Node) bool {
		if want[n.Kind()] {
			fn(n)
		}
		return true
	})
}

// Count returns the number of nodes in root's subtree, root included.
func Count(root Node) int {
	n := 0
	Visit(root, PreOrder, func(Node) bool {
		n++
		return true
	})
	return n
}

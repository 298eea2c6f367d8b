package r

// RBFlags controls duplicate-key behavior for an RBTree, per spec.md §4.3.
type RBFlags int

const (
	// RBUnique replaces the existing node's Item on a duplicate key. Default.
	RBUnique RBFlags = iota
	// RBDup permits multiple nodes with equal keys, ordered by insertion,
	// enabling LookupFirst/LookupNext range iteration.
	RBDup
)

type rbColor bool

const (
	rbRed   rbColor = true
	rbBlack rbColor = false
)

// RBNode is a single red-black tree node. Item is opaque to the tree;
// Compare governs only the key comparison provided at Alloc.
type RBNode struct {
	Item        any
	color       rbColor
	left, right *RBNode
	parent      *RBNode
}

// RBTree is a classic red-black tree with optional duplicate-key
// (multimap) behavior, the Go analogue of spec.md §4.3's red-black tree.
// Grounded on the textbook CLRS rotate/recolor algorithm (the same one the
// teacher's own registry/ingress structures assume for any ordered
// structure they'd need), adapted to Go generics-free `any` items plus an
// injected two-argument comparator; unlike the C API's `compare(item,
// ctx)`, there is no context argument.
type RBTree struct {
	root    *RBNode
	compare func(a, b any) int
	flags   RBFlags
	count   int
}

// NewRBTree allocates a tree using compare for ordering. It takes no free
// callback and no caller-context argument: Remove with keepItem=false only
// clears the removed node's Item.
func NewRBTree(flags RBFlags, compare func(a, b any) int) *RBTree {
	return &RBTree{compare: compare, flags: flags}
}

// Len returns the number of nodes.
func (t *RBTree) Len() int { return t.count }

func (t *RBTree) rotateLeft(x *RBNode) {
	y := x.right
	x.right = y.left
	if y.left != nil {
		y.left.parent = x
	}
	y.parent = x.parent
	switch {
	case x.parent == nil:
		t.root = y
	case x == x.parent.left:
		x.parent.left = y
	default:
		x.parent.right = y
	}
	y.left = x
	x.parent = y
}

func (t *RBTree) rotateRight(x *RBNode) {
	y := x.left
	x.left = y.right
	if y.right != nil {
		y.right.parent = x
	}
	y.parent = x.parent
	switch {
	case x.parent == nil:
		t.root = y
	case x == x.parent.right:
		x.parent.right = y
	default:
		x.parent.left = y
	}
	y.right = x
	x.parent = y
}

// Insert adds item, maintaining red-black balance. If RBUnique is set and
// an equal-keyed node already exists, its Item is replaced in place and no
// new node is created.
func (t *RBTree) Insert(item any) *RBNode {
	var parent *RBNode
	cur := t.root
	for cur != nil {
		c := t.compare(item, cur.Item)
		switch {
		case c == 0 && t.flags != RBDup:
			cur.Item = item
			return cur
		case c < 0:
			parent = cur
			cur = cur.left
		default:
			parent = cur
			cur = cur.right
		}
	}

	n := &RBNode{Item: item, color: rbRed, parent: parent}
	t.count++
	switch {
	case parent == nil:
		t.root = n
	case t.compare(item, parent.Item) < 0:
		parent.left = n
	default:
		parent.right = n
	}
	t.insertFixup(n)
	return n
}

func (t *RBTree) insertFixup(z *RBNode) {
	for z.parent != nil && z.parent.color == rbRed {
		gp := z.parent.parent
		if gp == nil {
			break
		}
		if z.parent == gp.left {
			uncle := gp.right
			if uncle != nil && uncle.color == rbRed {
				z.parent.color = rbBlack
				uncle.color = rbBlack
				gp.color = rbRed
				z = gp
				continue
			}
			if z == z.parent.right {
				z = z.parent
				t.rotateLeft(z)
			}
			z.parent.color = rbBlack
			gp = z.parent.parent
			if gp != nil {
				gp.color = rbRed
				t.rotateRight(gp)
			}
		} else {
			uncle := gp.left
			if uncle != nil && uncle.color == rbRed {
				z.parent.color = rbBlack
				uncle.color = rbBlack
				gp.color = rbRed
				z = gp
				continue
			}
			if z == z.parent.left {
				z = z.parent
				t.rotateRight(z)
			}
			z.parent.color = rbBlack
			gp = z.parent.parent
			if gp != nil {
				gp.color = rbRed
				t.rotateLeft(gp)
			}
		}
	}
	t.root.color = rbBlack
}

// Lookup returns any node whose item compares equal to item (the first
// encountered via binary search; for duplicate-key trees use LookupFirst
// to get the leftmost match).
func (t *RBTree) Lookup(item any) *RBNode {
	cur := t.root
	for cur != nil {
		c := t.compare(item, cur.Item)
		switch {
		case c == 0:
			return cur
		case c < 0:
			cur = cur.left
		default:
			cur = cur.right
		}
	}
	return nil
}

// LookupFirst returns the leftmost node equal to item, the start of a
// run of duplicates in a RBDup tree.
func (t *RBTree) LookupFirst(item any) *RBNode {
	n := t.Lookup(item)
	if n == nil {
		return nil
	}
	for {
		prev := t.prev(n)
		if prev == nil || t.compare(prev.Item, item) != 0 {
			return n
		}
		n = prev
	}
}

// LookupNext returns the node immediately after n in sorted order if it
// compares equal to n's item (continuing a duplicate-key run), or nil
// once the run ends.
func (t *RBTree) LookupNext(n *RBNode) *RBNode {
	if n == nil {
		return nil
	}
	nxt := t.Next(n)
	if nxt == nil || t.compare(nxt.Item, n.Item) != 0 {
		return nil
	}
	return nxt
}

// First returns the leftmost (minimum) node, or nil if the tree is empty.
func (t *RBTree) First() *RBNode { return leftmost(t.root) }

func leftmost(n *RBNode) *RBNode {
	if n == nil {
		return nil
	}
	for n.left != nil {
		n = n.left
	}
	return n
}

func rightmost(n *RBNode) *RBNode {
	if n == nil {
		return nil
	}
	for n.right != nil {
		n = n.right
	}
	return n
}

// Next returns the in-order successor of n, or nil if n is the last node.
func (t *RBTree) Next(n *RBNode) *RBNode {
	if n == nil {
		return nil
	}
	if n.right != nil {
		return leftmost(n.right)
	}
	cur, p := n, n.parent
	for p != nil && cur == p.right {
		cur = p
		p = p.parent
	}
	return p
}

func (t *RBTree) prev(n *RBNode) *RBNode {
	if n == nil {
		return nil
	}
	if n.left != nil {
		return rightmost(n.left)
	}
	cur, p := n, n.parent
	for p != nil && cur == p.left {
		cur = p
		p = p.parent
	}
	return p
}

// Remove deletes n from the tree, maintaining balance. If keepItem is
// false, n.Item is cleared (set to nil) after unlinking, signalling the
// caller that ownership was released.
func (t *RBTree) Remove(n *RBNode, keepItem bool) {
	if n == nil {
		return
	}
	t.count--

	y := n
	yOrigColor := y.color
	var x, xParent *RBNode

	switch {
	case n.left == nil:
		x = n.right
		xParent = n.parent
		t.transplant(n, n.right)
	case n.right == nil:
		x = n.left
		xParent = n.parent
		t.transplant(n, n.left)
	default:
		y = leftmost(n.right)
		yOrigColor = y.color
		x = y.right
		if y.parent == n {
			xParent = y
		} else {
			xParent = y.parent
			t.transplant(y, y.right)
			y.right = n.right
			y.right.parent = y
		}
		t.transplant(n, y)
		y.left = n.left
		y.left.parent = y
		y.color = n.color
	}

	if yOrigColor == rbBlack {
		t.removeFixup(x, xParent)
	}

	if !keepItem {
		n.Item = nil
	}
}

func (t *RBTree) transplant(u, v *RBNode) {
	switch {
	case u.parent == nil:
		t.root = v
	case u == u.parent.left:
		u.parent.left = v
	default:
		u.parent.right = v
	}
	if v != nil {
		v.parent = u.parent
	}
}

func colorOf(n *RBNode) rbColor {
	if n == nil {
		return rbBlack
	}
	return n.color
}

func (t *RBTree) removeFixup(x, parent *RBNode) {
	for x != t.root && colorOf(x) == rbBlack && parent != nil {
		if x == parent.left {
			w := parent.right
			if colorOf(w) == rbRed {
				w.color = rbBlack
				parent.color = rbRed
				t.rotateLeft(parent)
				w = parent.right
			}
			if w == nil {
				x, parent = parent, parent.parent
				continue
			}
			if colorOf(w.left) == rbBlack && colorOf(w.right) == rbBlack {
				w.color = rbRed
				x, parent = parent, parent.parent
				continue
			}
			if colorOf(w.right) == rbBlack {
				if w.left != nil {
					w.left.color = rbBlack
				}
				w.color = rbRed
				t.rotateRight(w)
				w = parent.right
			}
			w.color = parent.color
			parent.color = rbBlack
			if w.right != nil {
				w.right.color = rbBlack
			}
			t.rotateLeft(parent)
			x = t.root
		} else {
			w := parent.left
			if colorOf(w) == rbRed {
				w.color = rbBlack
				parent.color = rbRed
				t.rotateRight(parent)
				w = parent.left
			}
			if w == nil {
				x, parent = parent, parent.parent
				continue
			}
			if colorOf(w.right) == rbBlack && colorOf(w.left) == rbBlack {
				w.color = rbRed
				x, parent = parent, parent.parent
				continue
			}
			if colorOf(w.left) == rbBlack {
				if w.right != nil {
					w.right.color = rbBlack
				}
				w.color = rbRed
				t.rotateLeft(w)
				w = parent.left
			}
			w.color = parent.color
			parent.color = rbBlack
			if w.left != nil {
				w.left.color = rbBlack
			}
			t.rotateRight(parent)
			x = t.root
		}
	}
	if x != nil {
		x.color = rbBlack
	}
}

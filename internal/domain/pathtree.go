package domain

import (
	"sort"
	"strings"
)

// PathTree is a prefix tree over slash-delimited relative paths.
//
// A node is either a file leaf (no children map) or a directory whose
// children are keyed by path segment. The root of a built tree is always a
// directory, possibly empty.
type PathTree struct {
	children map[string]*PathTree
}

func newDirNode() *PathTree {
	return &PathTree{children: make(map[string]*PathTree)}
}

// BuildPathTree inserts every path into a new tree.
//
// Paths must not contain empty segments or leading/trailing slashes; this is
// not validated. When a path is both a file and the prefix of another path,
// the directory wins regardless of insertion order.
func BuildPathTree(paths []string) *PathTree {
	root := newDirNode()
	for _, p := range paths {
		root.insert(strings.Split(p, "/"))
	}
	return root
}

func (t *PathTree) insert(segments []string) {
	node := t
	for _, seg := range segments[:len(segments)-1] {
		child, ok := node.children[seg]
		if !ok || child.IsFile() {
			child = newDirNode()
			node.children[seg] = child
		}
		node = child
	}

	leaf := segments[len(segments)-1]
	if _, ok := node.children[leaf]; !ok {
		node.children[leaf] = &PathTree{}
	}
}

// IsFile reports whether the node is a file leaf
func (t *PathTree) IsFile() bool {
	return t != nil && t.children == nil
}

// Child returns the named child, or nil. Safe on a nil receiver.
func (t *PathTree) Child(name string) *PathTree {
	if t == nil {
		return nil
	}
	return t.children[name]
}

// Names returns the sorted child segment names of a directory node
func (t *PathTree) Names() []string {
	if t == nil {
		return nil
	}
	names := make([]string, 0, len(t.children))
	for name := range t.children {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Equal reports whether both trees have the same shape: identical segment
// names at every level and file leaves at the same positions.
func (t *PathTree) Equal(o *PathTree) bool {
	if t == nil || o == nil {
		return t == o
	}
	if t.IsFile() || o.IsFile() {
		return t.IsFile() == o.IsFile()
	}
	if len(t.children) != len(o.children) {
		return false
	}
	for name, child := range t.children {
		other, ok := o.children[name]
		if !ok || !child.Equal(other) {
			return false
		}
	}
	return true
}

// Paths expands the tree back into its sorted file paths
func (t *PathTree) Paths() []string {
	var out []string
	t.walk("", func(p string) { out = append(out, p) })
	sort.Strings(out)
	return out
}

func (t *PathTree) walk(prefix string, fn func(string)) {
	if t == nil {
		return
	}
	if t.IsFile() {
		fn(prefix)
		return
	}
	for name, child := range t.children {
		p := name
		if prefix != "" {
			p = prefix + "/" + name
		}
		child.walk(p, fn)
	}
}

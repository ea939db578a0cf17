package domain

import "sort"

// ReducePaths collapses the unchanged paths of a patch into the smallest set
// of paths that can be linked to the previous patch.
//
// A directory is emitted as a single entry when its unchanged subtree has the
// same shape as the previous patch's subtree and nothing beneath it was
// excluded (changed). Otherwise the walk descends into its children, and file
// leaves are emitted individually. The root itself is never emitted; when the
// whole tree collapses its immediate children are returned instead.
//
// The result is sorted and never nil.
func ReducePaths(unchanged, previous, excluded []string) []string {
	u := BuildPathTree(unchanged)
	p := BuildPathTree(previous)
	x := BuildPathTree(excluded)

	out := []string{}
	for _, name := range u.Names() {
		reduceNode(u.Child(name), p.Child(name), x.Child(name), name, &out)
	}

	sort.Strings(out)
	return out
}

func reduceNode(u, p, x *PathTree, path string, out *[]string) {
	if u.IsFile() || (x == nil && u.Equal(p)) {
		*out = append(*out, path)
		return
	}

	for _, name := range u.Names() {
		reduceNode(u.Child(name), p.Child(name), x.Child(name), path+"/"+name, out)
	}
}

package domain

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestBuildPathTree(t *testing.T) {
	tree := BuildPathTree([]string{"a/x.txt", "a/y.txt", "b/z.txt"})

	if tree.IsFile() {
		t.Fatal("root should be a directory")
	}
	if diff := cmp.Diff([]string{"a", "b"}, tree.Names()); diff != "" {
		t.Errorf("root names mismatch (-want +got):\n%s", diff)
	}
	if !tree.Child("a").Child("x.txt").IsFile() {
		t.Error("expected a/x.txt to be a file leaf")
	}
	if tree.Child("missing") != nil {
		t.Error("expected nil for missing child")
	}
	if tree.Child("missing").Child("deeper") != nil {
		t.Error("expected Child on nil node to return nil")
	}
}

func TestBuildPathTree_OrderIndependent(t *testing.T) {
	a := BuildPathTree([]string{"a/x", "b", "a/y/z"})
	b := BuildPathTree([]string{"a/y/z", "a/x", "b"})

	if !a.Equal(b) {
		t.Error("trees built from the same paths in a different order should be equal")
	}
}

func TestBuildPathTree_DirectoryWinsOverLeaf(t *testing.T) {
	for _, paths := range [][]string{
		{"a", "a/b"},
		{"a/b", "a"},
	} {
		tree := BuildPathTree(paths)
		if tree.Child("a").IsFile() {
			t.Errorf("%v: expected a to be a directory", paths)
		}
		if !tree.Child("a").Child("b").IsFile() {
			t.Errorf("%v: expected a/b to be a file", paths)
		}
	}
}

func TestPathTree_Equal(t *testing.T) {
	tests := []struct {
		name  string
		a, b  []string
		equal bool
	}{
		{"empty", nil, nil, true},
		{"same files", []string{"a/x", "b"}, []string{"b", "a/x"}, true},
		{"extra file", []string{"a/x"}, []string{"a/x", "a/y"}, false},
		{"renamed file", []string{"a/x"}, []string{"a/y"}, false},
		{"file versus directory", []string{"a"}, []string{"a/x"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildPathTree(tt.a).Equal(BuildPathTree(tt.b))
			if got != tt.equal {
				t.Errorf("Equal() = %v, want %v", got, tt.equal)
			}
		})
	}
}

func TestPathTree_Paths(t *testing.T) {
	in := []string{"b/z.txt", "a/y.txt", "a/x.txt"}
	got := BuildPathTree(in).Paths()

	want := []string{"a/x.txt", "a/y.txt", "b/z.txt"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Paths() mismatch (-want +got):\n%s", diff)
	}
}

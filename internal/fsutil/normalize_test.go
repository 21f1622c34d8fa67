package fsutil

import "testing"

func TestIsAncestor(t *testing.T) {
	cases := []struct {
		name   string
		root   string
		target string
		want   bool
	}{
		{name: "same path", root: "/a/b", target: "/a/b", want: true},
		{name: "direct child", root: "/a/b", target: "/a/b/c", want: true},
		{name: "deep descendant", root: "/a/b", target: "/a/b/c/d", want: true},
		{name: "sibling with shared prefix", root: "/a/b", target: "/a/bc/x", want: false},
		{name: "parent", root: "/a/b", target: "/a", want: false},
		{name: "unrelated", root: "/a/b", target: "/x/y", want: false},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			if got := IsAncestor(tc.root, tc.target); got != tc.want {
				t.Fatalf("IsAncestor(%q, %q) = %v, want %v", tc.root, tc.target, got, tc.want)
			}
		})
	}
}

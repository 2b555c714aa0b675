package gbtree

import "testing"

func TestIndexAlgebra(t *testing.T) {
	cases := []struct {
		node             int
		left, right, par int
	}{
		{0, 1, 2, 0},
		{1, 3, 4, 0},
		{2, 5, 6, 0},
		{3, 7, 8, 1},
	}
	for _, c := range cases {
		if got := LeftChild(c.node); got != c.left {
			t.Errorf("LeftChild(%d) = %d, want %d", c.node, got, c.left)
		}
		if got := RightChild(c.node); got != c.right {
			t.Errorf("RightChild(%d) = %d, want %d", c.node, got, c.right)
		}
		if c.node != 0 {
			if got := ParentNode(c.node); got != c.par {
				t.Errorf("ParentNode(%d) = %d, want %d", c.node, got, c.par)
			}
		}
	}
}

func TestLevelGeometry(t *testing.T) {
	for depth := 0; depth < 5; depth++ {
		begin := LevelBegin(depth)
		count := NodesInLevel(depth)
		if begin != (1<<uint(depth))-1 {
			t.Errorf("LevelBegin(%d) = %d", depth, begin)
		}
		if count != 1<<uint(depth) {
			t.Errorf("NodesInLevel(%d) = %d", depth, count)
		}
		// Every node in [begin, begin+count) has its parent at depth-1.
		for i := 0; i < count; i++ {
			n := begin + i
			if n == 0 {
				continue
			}
			p := ParentNode(n)
			if p < LevelBegin(depth-1) || p >= LevelBegin(depth) {
				t.Errorf("node %d at depth %d has parent %d outside depth %d", n, depth, p, depth-1)
			}
		}
	}
}

func TestMaxNodesForDepth(t *testing.T) {
	if got := MaxNodesForDepth(0); got != 1 {
		t.Errorf("MaxNodesForDepth(0) = %d, want 1", got)
	}
	if got := MaxNodesForDepth(3); got != 15 {
		t.Errorf("MaxNodesForDepth(3) = %d, want 15", got)
	}
}

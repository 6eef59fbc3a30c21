package services

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"warehouse-route-service/internal/domain"
)

func TestShortestPathIndexDistances(t *testing.T) {
	topo := loadLayout(t, cycleLayout("bolt", 1))
	idx := NewShortestPathIndex(topo)

	tests := []struct {
		from, to int
		want     int
	}{
		{0, 0, 0},
		{0, 1, 50},
		{0, 2, 100},
		{0, 3, 140},
		{1, 3, 130},
		{2, 4, 140},
	}

	for _, tt := range tests {
		got, ok := idx.Distance(tt.from, tt.to)
		if !ok {
			t.Fatalf("distance %d -> %d unreachable", tt.from, tt.to)
		}
		if got != tt.want {
			t.Errorf("distance %d -> %d = %d, want %d", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestShortestPathIndexSymmetricAndPathSums(t *testing.T) {
	l := cycleLayout("bolt", 1)
	l.Nodes = append(l.Nodes, domain.NodeSpec{ID: 7, X: 500, Y: 500}, domain.NodeSpec{ID: 9, X: 500, Y: 530})
	l.Edges = append(l.Edges, domain.EdgeSpec{NodeA: 7, NodeB: 9}, domain.EdgeSpec{NodeA: 0, NodeB: 2})
	topo := loadLayout(t, l)
	idx := NewShortestPathIndex(topo)

	ids := topo.NodeIDs()
	for _, u := range ids {
		if d, ok := idx.Distance(u, u); !ok || d != 0 {
			t.Fatalf("distance %d -> %d = %d, want 0", u, u, d)
		}
		for _, v := range ids {
			duv, okuv := idx.Distance(u, v)
			dvu, okvu := idx.Distance(v, u)
			if duv != dvu || okuv != okvu {
				t.Fatalf("distance %d <-> %d not symmetric: %d / %d", u, v, duv, dvu)
			}
			if !okuv || u == v {
				continue
			}

			mid, err := idx.Path(u, v)
			if err != nil {
				t.Fatalf("path %d -> %d: %v", u, v, err)
			}
			nodes := append([]int{u}, domain.Path(mid).NodeIDs()...)
			nodes = append(nodes, v)
			sum := 0
			for i := 1; i < len(nodes); i++ {
				if !topo.IsOpen(nodes[i-1], nodes[i]) {
					t.Fatalf("path %d -> %d uses missing edge %d-%d", u, v, nodes[i-1], nodes[i])
				}
				sum += topo.Distance(nodes[i-1], nodes[i])
			}
			if sum != duv {
				t.Fatalf("path %d -> %d sums to %d, distance is %d", u, v, sum, duv)
			}
		}
	}

	// The isolated pair keeps its local edge.
	if d, ok := idx.Distance(7, 9); !ok || d != 30 {
		t.Fatalf("distance 7 -> 9 = %d (ok=%v), want 30", d, ok)
	}
	if _, ok := idx.Distance(0, 9); ok {
		t.Fatal("distance 0 -> 9 reachable, want unreachable")
	}
	if _, err := idx.Path(0, 9); !errors.Is(err, ErrNoPath) {
		t.Fatalf("path 0 -> 9 err = %v, want ErrNoPath", err)
	}
	if _, err := idx.Path(0, 42); !errors.Is(err, domain.ErrUnknownNode) {
		t.Fatalf("path 0 -> 42 err = %v, want ErrUnknownNode", err)
	}
}

func TestShortestPathIndexPathExcludesEndpoints(t *testing.T) {
	topo := loadLayout(t, cycleLayout("bolt", 1))
	idx := NewShortestPathIndex(topo)

	mid, err := idx.Path(0, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff([]int{4}, domain.Path(mid).NodeIDs()); diff != "" {
		t.Fatalf("path 0 -> 3 mismatch (-want +got):\n%s", diff)
	}

	mid, err = idx.Path(1, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(mid) != 0 {
		t.Fatalf("path 1 -> 1 = %v, want empty", domain.Path(mid).NodeIDs())
	}
}

func TestShortestPathIndexRebuild(t *testing.T) {
	topo := loadLayout(t, cycleLayout("bolt", 1))
	idx := NewShortestPathIndex(topo)

	dist := cloneTable(idx.dist)
	next := cloneTable(idx.next)
	idx.Rebuild(topo)
	if diff := cmp.Diff(dist, idx.dist); diff != "" {
		t.Fatalf("distance table changed on rebuild (-before +after):\n%s", diff)
	}
	if diff := cmp.Diff(next, idx.next); diff != "" {
		t.Fatalf("next table changed on rebuild (-before +after):\n%s", diff)
	}

	if err := topo.CloseEdge(1, 2); err != nil {
		t.Fatalf("close edge: %v", err)
	}
	if d, _ := idx.Distance(0, 2); d != 100 {
		t.Fatalf("distance changed before rebuild: %d", d)
	}
	idx.Rebuild(topo)
	if d, _ := idx.Distance(0, 2); d != 220 {
		t.Fatalf("distance 0 -> 2 after closing 1-2 = %d, want 220", d)
	}
}

func cloneTable(in [][]int) [][]int {
	out := make([][]int, len(in))
	for i := range in {
		out[i] = append([]int(nil), in[i]...)
	}
	return out
}

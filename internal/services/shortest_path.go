package services

import (
	"errors"
	"fmt"
	"math"

	"warehouse-route-service/internal/domain"
)

// Unreachable is the distance reported between disconnected nodes.
const Unreachable = math.MaxInt

var ErrNoPath = errors.New("no path")

// ShortestPathIndex holds all-pairs distance and first-hop tables over the
// topology's currently open edges.
//
// The index never observes the topology; callers must invoke Rebuild after
// opening or closing an edge.
type ShortestPathIndex struct {
	ids  []int
	pos  map[int]int
	dist [][]int
	next [][]int
}

func NewShortestPathIndex(topo *domain.Topology) *ShortestPathIndex {
	idx := &ShortestPathIndex{}
	idx.Rebuild(topo)
	return idx
}

// Rebuild recomputes both tables from scratch.
func (s *ShortestPathIndex) Rebuild(topo *domain.Topology) {
	s.ids = topo.NodeIDs()
	n := len(s.ids)

	s.pos = make(map[int]int, n)
	for i, id := range s.ids {
		s.pos[id] = i
	}

	s.dist = make([][]int, n)
	s.next = make([][]int, n)
	for i := range n {
		s.dist[i] = make([]int, n)
		s.next[i] = make([]int, n)
		for j := range n {
			s.dist[i][j] = Unreachable
			s.next[i][j] = -1
		}
		s.dist[i][i] = 0
		s.next[i][i] = i
	}

	s.discoverEdges(topo)

	// Floyd-Warshall. Entries at Unreachable are skipped so the sum never overflows.
	for k := range n {
		for i := range n {
			if s.dist[i][k] == Unreachable {
				continue
			}
			for j := range n {
				if s.dist[k][j] == Unreachable {
					continue
				}
				if d := s.dist[i][k] + s.dist[k][j]; d < s.dist[i][j] {
					s.dist[i][j] = d
					s.next[i][j] = s.next[i][k]
				}
			}
		}
	}
}

// discoverEdges walks the graph breadth-first, starting at the depot, and
// seeds the tables with every open edge exactly once. Components that the
// depot cannot reach are walked afterwards so their local distances exist too.
func (s *ShortestPathIndex) discoverEdges(topo *domain.Topology) {
	visited := make(map[int]bool, len(s.ids))
	seeds := make([]int, 0, len(s.ids))
	if _, ok := s.pos[domain.DepotID]; ok {
		seeds = append(seeds, domain.DepotID)
	}
	seeds = append(seeds, s.ids...)

	for _, seed := range seeds {
		if visited[seed] {
			continue
		}
		visited[seed] = true
		queue := []int{seed}

		for len(queue) > 0 {
			id := queue[0]
			queue = queue[1:]

			for _, nb := range topo.Node(id).Neighbours() {
				i, j := s.pos[id], s.pos[nb]
				if s.next[i][j] == -1 {
					w := topo.Distance(id, nb)
					s.dist[i][j], s.dist[j][i] = w, w
					s.next[i][j], s.next[j][i] = j, i
				}
				if !visited[nb] {
					visited[nb] = true
					queue = append(queue, nb)
				}
			}
		}
	}
}

// Distance returns the shortest distance between two nodes.
func (s *ShortestPathIndex) Distance(from, to int) (int, bool) {
	i, ok := s.pos[from]
	if !ok {
		return Unreachable, false
	}
	j, ok := s.pos[to]
	if !ok {
		return Unreachable, false
	}
	d := s.dist[i][j]
	return d, d != Unreachable
}

// Path reconstructs the nodes strictly between from and to as waypoints
// with empty instructions.
func (s *ShortestPathIndex) Path(from, to int) ([]domain.Waypoint, error) {
	i, ok := s.pos[from]
	if !ok {
		return nil, fmt.Errorf("path %d -> %d: node %d: %w", from, to, from, domain.ErrUnknownNode)
	}
	j, ok := s.pos[to]
	if !ok {
		return nil, fmt.Errorf("path %d -> %d: node %d: %w", from, to, to, domain.ErrUnknownNode)
	}
	if s.next[i][j] == -1 {
		return nil, fmt.Errorf("path %d -> %d: %w", from, to, ErrNoPath)
	}

	var out []domain.Waypoint
	for k := s.next[i][j]; k != j; k = s.next[k][j] {
		out = append(out, domain.Waypoint{NodeID: s.ids[k]})
	}
	return out, nil
}

// Size is the number of nodes covered by the tables.
func (s *ShortestPathIndex) Size() int { return len(s.ids) }

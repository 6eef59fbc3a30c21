package ports

import "warehouse-route-service/internal/domain"

// Contract for shortest-path lookups between warehouse nodes.
type PathIndex interface {
	// Return the shortest distance between two nodes; ok is false when unreachable.
	Distance(from, to int) (dist int, ok bool)
	// Return the intermediate waypoints of the shortest path, endpoints excluded.
	Path(from, to int) ([]domain.Waypoint, error)
}

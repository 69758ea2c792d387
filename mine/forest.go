package mine

import (
	"golang.org/x/exp/slices"
)

// Forest is one coordinator's spanning forest over a mine.
//
// It owns a private copy of the adjacency in which, for every tree edge
// parent->child, the reverse entry child->parent has been cleared. The
// forward entry stays set, so it can be used both to validate a claimed
// parent and to enumerate the rooms a solved room unlocks.
type Forest struct {
	adjacency [][]bool
	roots     []int
	isRoot    []bool
	parents   []int
}

// BuildForest computes a spanning forest with one breadth-first traversal
// per connected component, starting each traversal at the lowest unvisited
// room. The traversal start rooms are the entrances (roots).
func BuildForest(m *Mine) *Forest {
	n := m.Rooms()
	f := &Forest{
		adjacency: m.Snapshot(),
		isRoot:    make([]bool, n),
		parents:   make([]int, n),
	}
	for i := range f.parents {
		f.parents[i] = -1
	}

	visited := make([]bool, n)
	for room := 0; room < n; room++ {
		if visited[room] {
			continue
		}
		f.visitComponent(room, visited)
		f.roots = append(f.roots, room)
		f.isRoot[room] = true
	}

	return f
}

func (f *Forest) visitComponent(root int, visited []bool) {
	visited[root] = true
	queue := []int{root}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, neighbor := range f.Neighbors(current) {
			if visited[neighbor] {
				continue
			}
			visited[neighbor] = true
			f.adjacency[neighbor][current] = false
			f.parents[neighbor] = current
			queue = append(queue, neighbor)
		}
	}
}

// Rooms returns the number of rooms covered by the forest.
func (f *Forest) Rooms() int {
	return len(f.adjacency)
}

// Roots returns the entrance rooms in ascending order.
func (f *Forest) Roots() []int {
	return slices.Clone(f.roots)
}

// IsRoot reports whether room is an entrance.
func (f *Forest) IsRoot(room int) bool {
	return room >= 0 && room < len(f.isRoot) && f.isRoot[room]
}

// Linked reports whether the forest adjacency still holds parent->child.
// Out-of-range rooms are never linked.
func (f *Forest) Linked(parent, child int) bool {
	n := len(f.adjacency)
	if parent < 0 || parent >= n || child < 0 || child >= n {
		return false
	}
	return f.adjacency[parent][child]
}

// Neighbors returns the rooms reachable from room in the forest adjacency.
func (f *Forest) Neighbors(room int) []int {
	var neighbors []int
	for j, edge := range f.adjacency[room] {
		if edge {
			neighbors = append(neighbors, j)
		}
	}
	return neighbors
}

// Parent returns the tree parent of room, or false for entrances.
func (f *Forest) Parent(room int) (int, bool) {
	if room < 0 || room >= len(f.parents) || f.parents[room] < 0 {
		return -1, false
	}
	return f.parents[room], true
}

// Package graph builds the combined milestone+task dependency graph over
// both ledger partitions and implements cycle detection, reference
// resolution, deterministic topological ordering, and the unlock rule.
package graph

import (
	"sort"

	"github.com/luvatrix/planops/internal/ledger"
	"github.com/luvatrix/planops/internal/schema"
)

// NodeKind distinguishes milestone nodes from task nodes.
type NodeKind int

const (
	KindMilestone NodeKind = iota
	KindTask
)

type node struct {
	kind     NodeKind
	archived bool
	// done is Complete for milestones, Done for tasks.
	done bool
}

// Graph is the directed graph over the union of milestone and task ids.
// Edges are all depends_on references plus an implicit milestone->task
// containment edge for every task_ids entry.
type Graph struct {
	nodes map[string]node
	// adj holds every outgoing edge, sorted, used for cycles and topo order.
	adj map[string][]string
	// deps holds only depends_on edges, used for the unlock rule.
	deps map[string][]string
}

// Build constructs the graph from a ledger snapshot. Dangling references
// are kept as edges to unknown ids; ResolveRefs reports them.
func Build(snap *ledger.Snapshot) *Graph {
	g := &Graph{
		nodes: make(map[string]node),
		adj:   make(map[string][]string),
		deps:  make(map[string][]string),
	}

	addMilestones := func(list []schema.Milestone, archived bool) {
		for i := range list {
			m := &list[i]
			g.nodes[m.ID] = node{
				kind:     KindMilestone,
				archived: archived,
				done:     m.Status == schema.MilestoneComplete,
			}
			g.deps[m.ID] = append(g.deps[m.ID], m.DependsOn...)
			g.adj[m.ID] = append(g.adj[m.ID], m.DependsOn...)
			// Containment: a task cannot be considered before its milestone.
			g.adj[m.ID] = append(g.adj[m.ID], m.TaskIDs...)
		}
	}
	addTasks := func(list []schema.Task, archived bool) {
		for i := range list {
			t := &list[i]
			g.nodes[t.ID] = node{
				kind:     KindTask,
				archived: archived,
				done:     t.Status == schema.TaskDone,
			}
			g.deps[t.ID] = append(g.deps[t.ID], t.DependsOn...)
			g.adj[t.ID] = append(g.adj[t.ID], t.DependsOn...)
		}
	}

	addMilestones(snap.ActiveMilestones.Milestones, false)
	addMilestones(snap.ArchivedMilestones.Milestones, true)
	addTasks(snap.ActiveTasks.Tasks, false)
	addTasks(snap.ArchivedTasks.Tasks, true)

	for id := range g.adj {
		sort.Strings(g.adj[id])
	}
	for id := range g.deps {
		sort.Strings(g.deps[id])
	}

	return g
}

// Has reports whether id is a node of the graph.
func (g *Graph) Has(id string) bool {
	_, ok := g.nodes[id]
	return ok
}

// sortedIDs returns every node id in lexicographic order.
func (g *Graph) sortedIDs() []string {
	ids := make([]string, 0, len(g.nodes))
	for id := range g.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ResolveRefs checks that every referenced id exists in the node set.
// Returns a slice of errors, empty if every reference resolves.
func (g *Graph) ResolveRefs() []error {
	var errs []error
	for _, id := range g.sortedIDs() {
		for _, ref := range g.adj[id] {
			if !g.Has(ref) {
				errs = append(errs, &DanglingDependencyError{From: id, Ref: ref})
			}
		}
	}
	return errs
}

// CheckAcyclic detects cycles using a three-color depth-first traversal.
// Any edge into an in-progress node reports a cycle with the minimal
// offending path. Returns a slice of errors, empty if the graph is a DAG.
func (g *Graph) CheckAcyclic() []error {
	var errs []error
	visited := make(map[string]bool)
	inProgress := make(map[string]bool)

	for _, id := range g.sortedIDs() {
		if !visited[id] {
			if cycle := g.cycleDFS(id, visited, inProgress, nil); cycle != nil {
				errs = append(errs, &CycleError{Path: cycle})
			}
		}
	}

	return errs
}

// cycleDFS performs depth-first search for cycle detection.
func (g *Graph) cycleDFS(id string, visited, inProgress map[string]bool, path []string) []string {
	visited[id] = true
	inProgress[id] = true
	path = append(path, id)

	for _, next := range g.adj[id] {
		if !g.Has(next) {
			continue // dangling refs are ResolveRefs' concern
		}
		if !visited[next] {
			if cycle := g.cycleDFS(next, visited, inProgress, path); cycle != nil {
				inProgress[id] = false
				return cycle
			}
		} else if inProgress[next] {
			// Unwind must still clear the mark, or a later edge into this
			// node would be mistaken for a second back edge.
			inProgress[id] = false
			return minimalCyclePath(path, next)
		}
	}

	inProgress[id] = false
	return nil
}

// minimalCyclePath trims the DFS path to the offending cycle and closes it.
func minimalCyclePath(path []string, cycleStart string) []string {
	startIdx := 0
	for i, id := range path {
		if id == cycleStart {
			startIdx = i
			break
		}
	}
	return append(append([]string(nil), path[startIdx:]...), cycleStart)
}

// TopoOrder returns a deterministic topological order of every node.
// Ties are broken by lexicographic id order so repeated runs over the same
// ledger produce identical sequences. The graph must be acyclic; nodes
// trapped in a cycle are appended in id order so callers always receive
// every id.
func (g *Graph) TopoOrder() []string {
	indegree := make(map[string]int, len(g.nodes))
	for id := range g.nodes {
		indegree[id] = 0
	}
	for id, outs := range g.adj {
		if !g.Has(id) {
			continue
		}
		for _, next := range outs {
			if g.Has(next) {
				indegree[next]++
			}
		}
	}

	order := make([]string, 0, len(g.nodes))
	remaining := len(g.nodes)
	for remaining > 0 {
		var ready []string
		for id, deg := range indegree {
			if deg == 0 {
				ready = append(ready, id)
			}
		}
		if len(ready) == 0 {
			// Cycle remnant: emit leftovers deterministically.
			var leftover []string
			for id := range indegree {
				leftover = append(leftover, id)
			}
			sort.Strings(leftover)
			return append(order, leftover...)
		}
		sort.Strings(ready)
		for _, id := range ready {
			order = append(order, id)
			delete(indegree, id)
			remaining--
			for _, next := range g.adj[id] {
				if _, ok := indegree[next]; ok {
					indegree[next]--
				}
			}
		}
	}

	return order
}

// Unlocked reports whether every dependency of id is satisfied: Done (or
// Complete for milestones) or archived. Containment edges do not count;
// only depends_on references gate unlocking. Unknown ids are locked.
func (g *Graph) Unlocked(id string) bool {
	if !g.Has(id) {
		return false
	}
	for _, dep := range g.deps[id] {
		n, ok := g.nodes[dep]
		if !ok {
			return false
		}
		if !n.done && !n.archived {
			return false
		}
	}
	return true
}

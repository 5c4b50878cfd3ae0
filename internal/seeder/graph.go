package seeder

import "fmt"

type DependencyGraph struct {
	tables map[string]table
	names  []string
}

func NewDependencyGraph() *DependencyGraph {
	return &DependencyGraph{
		tables: make(map[string]table),
	}
}

func (g *DependencyGraph) AddTable(t table) {
	if _, exists := g.tables[t.name]; !exists {
		g.names = append(g.names, t.name)
	}
	g.tables[t.name] = t
}

// BuildInsertionOrder returns a parents-first order. Tables are visited in the
// order they were added, so the result is deterministic.
func (g *DependencyGraph) BuildInsertionOrder() ([]string, error) {
	visited := make(map[string]bool)
	temp := make(map[string]bool)
	var order []string

	var visit func(string) error
	visit = func(tableName string) error {
		if temp[tableName] {
			return fmt.Errorf("circular dependency detected involving table: %s", tableName)
		}
		if visited[tableName] {
			return nil
		}

		temp[tableName] = true
		if t, ok := g.tables[tableName]; ok {
			for _, dep := range t.parents {
				if dep != tableName {
					if err := visit(dep); err != nil {
						return err
					}
				}
			}
		}

		temp[tableName] = false
		visited[tableName] = true
		order = append(order, tableName)
		return nil
	}

	for _, name := range g.names {
		if !visited[name] {
			if err := visit(name); err != nil {
				return nil, err
			}
		}
	}

	return order, nil
}

// ValidateOrder checks that every table in order comes after all of its
// parents and that each parent is part of the order.
func (g *DependencyGraph) ValidateOrder(order []string) error {
	position := make(map[string]int, len(order))
	for i, name := range order {
		position[name] = i
	}

	for _, name := range order {
		t, ok := g.tables[name]
		if !ok {
			return fmt.Errorf("table %s is not part of the schema", name)
		}
		for _, parent := range t.parents {
			p, ok := position[parent]
			if !ok {
				return fmt.Errorf("table %s references %s which is never populated", name, parent)
			}
			if p >= position[name] {
				return fmt.Errorf("table %s is populated before its parent %s", name, parent)
			}
		}
	}
	return nil
}

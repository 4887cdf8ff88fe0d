package persona

import (
	"fmt"
	"math"
	"strconv"

	"github.com/psidex/topoedit/internal/topology"
)

// Built-in presets are laid out on a circle around the centre of a default
// sized canvas.
const (
	radius  = 250.0
	centreX = topology.DefaultCanvasWidth / 2
	centreY = topology.DefaultCanvasHeight / 2
)

func builtins() []topology.Persona {
	return []topology.Persona{
		{Type: "empty", Description: "A blank canvas", Nodes: []topology.Node{}, Edges: []topology.Edge{}},
		line(5),
		ring(6),
		star(6),
		mesh(4),
	}
}

// circle places n nodes evenly around the canvas centre, node 0 at the top.
func circle(n int) []topology.Node {
	nodes := make([]topology.Node, n)
	for i := range nodes {
		angle := 2*math.Pi*float64(i)/float64(n) - math.Pi/2
		nodes[i] = node(i, centreX+radius*math.Cos(angle), centreY+radius*math.Sin(angle))
	}
	return nodes
}

func node(i int, x, y float64) topology.Node {
	id := strconv.Itoa(i)
	return topology.Node{
		ID:       id,
		Position: topology.Position{X: math.Round(x), Y: math.Round(y)},
		Type:     topology.DefaultNodeType,
		Data:     topology.NodeData{Label: "node " + id, Name: "tank-" + id},
	}
}

func edge(from, to int) topology.Edge {
	return topology.Edge{
		ID:     fmt.Sprintf("e%d-%d", from, to),
		Source: strconv.Itoa(from),
		Target: strconv.Itoa(to),
	}
}

func line(n int) topology.Persona {
	p := topology.Persona{Type: "line", Description: fmt.Sprintf("%d nodes in a chain", n)}
	step := 2 * radius / float64(n-1)
	for i := 0; i < n; i++ {
		p.Nodes = append(p.Nodes, node(i, centreX-radius+step*float64(i), centreY))
		if i > 0 {
			p.Edges = append(p.Edges, edge(i-1, i))
		}
	}
	return p
}

func ring(n int) topology.Persona {
	p := topology.Persona{Type: "ring", Description: fmt.Sprintf("%d nodes in a cycle", n), Nodes: circle(n)}
	for i := 0; i < n; i++ {
		p.Edges = append(p.Edges, edge(i, (i+1)%n))
	}
	return p
}

// star puts node 0 in the middle, connected to n-1 leaves.
func star(n int) topology.Persona {
	p := topology.Persona{Type: "star", Description: fmt.Sprintf("1 hub and %d leaves", n-1)}
	p.Nodes = append(p.Nodes, node(0, centreX, centreY))
	for i, leaf := range circle(n - 1) {
		leaf = node(i+1, leaf.Position.X, leaf.Position.Y)
		p.Nodes = append(p.Nodes, leaf)
		p.Edges = append(p.Edges, edge(0, i+1))
	}
	return p
}

func mesh(n int) topology.Persona {
	p := topology.Persona{Type: "mesh", Description: fmt.Sprintf("%d fully connected nodes", n), Nodes: circle(n)}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			p.Edges = append(p.Edges, edge(i, j))
		}
	}
	return p
}

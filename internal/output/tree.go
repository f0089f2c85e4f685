package output

import (
	"fmt"
	"io"
	"sort"

	"github.com/maxvaer/actuatorhunt/internal/finding"
)

type treeNode struct {
	name     string
	children []*treeNode
}

func (n *treeNode) findOrCreate(name string) *treeNode {
	for _, c := range n.children {
		if c.name == name {
			return c
		}
	}
	child := &treeNode{name: name}
	n.children = append(n.children, child)
	return child
}

// PrintTree renders the exposed endpoints grouped by base URL:
//
//	http://a.example
//	├── /actuator  Spring Boot Actuator Discovery
//	└── /env       Legacy Spring Boot Env Leak
func PrintTree(w io.Writer, findings []*finding.Finding) {
	if len(findings) == 0 {
		return
	}

	root := &treeNode{}
	width := 0
	for _, f := range findings {
		host := root.findOrCreate(f.BaseURL)
		host.findOrCreate(f.Path).findOrCreate(f.Name)
		width = max(width, len(f.Path))
	}
	sort.SliceStable(root.children, func(i, j int) bool {
		return root.children[i].name < root.children[j].name
	})

	fmt.Fprintf(w, "\n  Exposed endpoints:\n")
	for _, host := range root.children {
		fmt.Fprintf(w, "  %s\n", host.name)
		for i, path := range host.children {
			connector := "├── "
			if i == len(host.children)-1 {
				connector = "└── "
			}
			for _, name := range path.children {
				fmt.Fprintf(w, "  %s%-*s  %s\n", connector, width, path.name, name.name)
			}
		}
	}
}

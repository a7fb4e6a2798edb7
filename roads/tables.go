package roads

import (
	"fmt"
	"github.com/gocarina/gocsv"
	"io"
	"os"
)

func WriteNodesCSV(w io.Writer, nodes []Node) error {
	return gocsv.Marshal(nodes, w)
}

func WriteLinksCSV(w io.Writer, links []Link) error {
	return gocsv.Marshal(links, w)
}

// DuplicateNodeError is returned when one identifier appears with two
// different locations.
type DuplicateNodeError struct {
	Identifier string
	First      Node
	Second     Node
}

func (e *DuplicateNodeError) Error() string {
	return fmt.Sprintf("node %s appears at (%f, %f) and (%f, %f)",
		e.Identifier, e.First.X, e.First.Y, e.Second.X, e.Second.Y)
}

// ReadNodesCSV loads a node table. Exact duplicate rows, which appear where
// tiles overlap, are dropped.
func ReadNodesCSV(r io.Reader) ([]Node, error) {
	seen := make(map[string]int)
	var nodes []Node
	var dupErr error
	err := gocsv.UnmarshalToCallback(r, func(n Node) {
		if dupErr != nil {
			return
		}
		if i, ok := seen[n.Identifier]; ok {
			if nodes[i].X != n.X || nodes[i].Y != n.Y {
				dupErr = &DuplicateNodeError{Identifier: n.Identifier, First: nodes[i], Second: n}
			}
			return
		}
		seen[n.Identifier] = len(nodes)
		nodes = append(nodes, n)
	})
	if err != nil {
		return nil, fmt.Errorf("read nodes: %w", err)
	}
	if dupErr != nil {
		return nil, dupErr
	}
	return nodes, nil
}

func ReadLinksCSV(r io.Reader) ([]Link, error) {
	var links []Link
	err := gocsv.UnmarshalToCallback(r, func(l Link) {
		links = append(links, l)
	})
	if err != nil {
		return nil, fmt.Errorf("read links: %w", err)
	}
	return links, nil
}

// LoadTables reads the node and link tables written by WriteNodesCSV and
// WriteLinksCSV.
func LoadTables(nodesPath, linksPath string) ([]Node, []Link, error) {
	nf, err := os.Open(nodesPath)
	if err != nil {
		return nil, nil, err
	}
	defer nf.Close()
	nodes, err := ReadNodesCSV(nf)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", nodesPath, err)
	}

	lf, err := os.Open(linksPath)
	if err != nil {
		return nil, nil, err
	}
	defer lf.Close()
	links, err := ReadLinksCSV(lf)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", linksPath, err)
	}

	return nodes, links, nil
}

// SaveTables writes both tables, creating or truncating the files.
func SaveTables(nodesPath, linksPath string, nodes []Node, links []Link) error {
	if err := writeFile(nodesPath, func(w io.Writer) error { return WriteNodesCSV(w, nodes) }); err != nil {
		return fmt.Errorf("write %s: %w", nodesPath, err)
	}
	if err := writeFile(linksPath, func(w io.Writer) error { return WriteLinksCSV(w, links) }); err != nil {
		return fmt.Errorf("write %s: %w", linksPath, err)
	}
	return nil
}

func writeFile(path string, fn func(w io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := fn(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

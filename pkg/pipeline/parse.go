package pipeline

import (
	"github.com/charmbracelet/log"

	"github.com/matzehuels/techtree/pkg/cache"
	techerrors "github.com/matzehuels/techtree/pkg/errors"
	"github.com/matzehuels/techtree/pkg/graph"
	"github.com/matzehuels/techtree/pkg/techtree"
)

// LoadTree reads the tree named by opts and returns it with its content hash.
func LoadTree(opts Options) (*graph.Tree, string, error) {
	tree := opts.Tree
	if tree == nil {
		var err error
		if tree, err = graph.ReadTreeFile(opts.TreePath); err != nil {
			return nil, "", err
		}
	}

	data, err := graph.MarshalTree(tree, graph.FormatJSON)
	if err != nil {
		return nil, "", err
	}
	return tree, cache.TreeHash(data), nil
}

// Load builds an engine from tree, using the tree's layout section with
// opts.Config applied on top, and replays opts.Done in order.
//
// A completion that names a locked node is rejected rather than silently
// ignored, since the caller asked for a state the tree cannot reach.
func Load(tree *graph.Tree, opts Options, logger *log.Logger) (*techtree.Engine, error) {
	nodes, err := tree.ToNodes()
	if err != nil {
		return nil, err
	}

	cfg := tree.Config().Merge(opts.Config)
	e, err := techtree.New(nodes, techtree.WithConfig(cfg), techtree.WithLogger(logger))
	if err != nil {
		return nil, err
	}

	for _, id := range opts.Done {
		done, err := e.IsDone(id)
		if err != nil {
			return nil, err
		}
		if done {
			continue
		}
		res, err := e.Toggle(id)
		if err != nil {
			return nil, err
		}
		if !res.Changed() {
			return nil, techerrors.New(techerrors.ErrCodeInvalidInput, "cannot complete %q: prerequisites are not done", id)
		}
	}
	return e, nil
}

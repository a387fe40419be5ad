package main

import (
	"fmt"
	"strings"

	"github.com/kbukum/pipegraph/controller"
	"github.com/kbukum/pipegraph/errors"
	"github.com/kbukum/pipegraph/graph"
	"github.com/kbukum/pipegraph/logger"
	"github.com/kbukum/pipegraph/model"
)

// Kind selects the snapshot type of a file and the builder applied to it.
type Kind string

const (
	KindPipeline Kind = "pipeline"
	KindTree     Kind = "tree"
	KindMesh     Kind = "mesh"
	KindStack    Kind = "stack"
)

var kinds = []Kind{KindPipeline, KindTree, KindMesh, KindStack}

// ParseKind validates a --kind flag value.
func ParseKind(s string) (Kind, error) {
	for _, k := range kinds {
		if strings.EqualFold(s, string(k)) {
			return k, nil
		}
	}
	return "", errors.InvalidInput("kind", fmt.Sprintf("must be one of %v", kinds))
}

// buildPipeline reports advisory validation problems before building.
func buildPipeline(p *model.Pipeline) *graph.Graph {
	if p != nil {
		if err := p.Validate(); err != nil {
			logger.Get("pipeline").Warn("pipeline snapshot has problems", logger.Fields("pipeline", p.ID, "problems", err.Message))
		}
	}
	return graph.BuildPipeline(p)
}

func buildTree(t *model.ComponentTree) *graph.Graph {
	if t == nil {
		return nil
	}
	return graph.BuildComponentTree(t.Components)
}

func meshBuilder(filter graph.MeshFilter) controller.Builder[model.Mesh] {
	return func(m *model.Mesh) *graph.Graph {
		if m == nil {
			return nil
		}
		return graph.BuildNetworkMesh(m.Edges, filter)
	}
}

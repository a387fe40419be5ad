package layout

import (
	"github.com/kbukum/pipegraph/config"
	"github.com/kbukum/pipegraph/graph"
	"github.com/kbukum/pipegraph/validation"
)

// Direction is the axis successive ranks advance along.
type Direction string

const (
	LeftRight Direction = "LR"
	RightLeft Direction = "RL"
	TopBottom Direction = "TB"
	BottomTop Direction = "BT"
)

// Horizontal reports whether ranks advance along x.
func (d Direction) Horizontal() bool { return d == LeftRight || d == RightLeft }

// Options tune the layout engine.
type Options struct {
	Direction Direction `json:"direction" validate:"oneof=LR RL TB BT"`
	// NodeSep separates adjacent nodes within a rank.
	NodeSep float64 `json:"node_sep" validate:"gte=0"`
	// RankSep separates adjacent ranks.
	RankSep float64 `json:"rank_sep" validate:"gte=0"`
	// EdgeSep separates a dummy node from its neighbors.
	EdgeSep float64 `json:"edge_sep" validate:"gte=0"`
	Margin  float64 `json:"margin" validate:"gte=0"`
	// DefaultSize is used for nodes without a valid measurement.
	DefaultSize graph.Size `json:"default_size"`
	Zoom        float64    `json:"zoom" validate:"gt=0"`
}

// DefaultOptions returns the options used by the pipeline view.
func DefaultOptions() Options {
	return Options{
		Direction:   LeftRight,
		NodeSep:     50,
		RankSep:     200,
		EdgeSep:     10,
		DefaultSize: graph.Size{Width: 200, Height: 200},
		Zoom:        1,
	}
}

// FromConfig builds options from the layout section of the configuration.
func FromConfig(c config.LayoutConfig) Options {
	return Options{
		Direction:   Direction(c.Direction),
		NodeSep:     c.NodeSep,
		RankSep:     c.RankSep,
		EdgeSep:     c.EdgeSep,
		Margin:      c.Margin,
		DefaultSize: graph.Size{Width: c.NodeWidth, Height: c.NodeHeight},
		Zoom:        c.Zoom,
	}
}

// Validate checks the options.
func (o Options) Validate() error {
	if err := validation.Validate(o); err != nil {
		return err
	}
	v := validation.New().
		Positive("default_size.width", o.DefaultSize.Width).
		Positive("default_size.height", o.DefaultSize.Height)
	if appErr := v.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

// fallback is the size of a node that has no usable measurement.
func (o Options) fallback() graph.Size {
	return graph.Size{Width: o.DefaultSize.Width * o.Zoom, Height: o.DefaultSize.Height * o.Zoom}
}

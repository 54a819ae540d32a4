package layout

// Default node box dimensions in pixels.
const (
	DefaultNodeWidth    = 136.0
	DefaultNodeHeight   = 44.0
	DefaultNodeGap      = 30.0
	DefaultLayerPadding = 34.0
)

// Config holds the fixed node box geometry used for positioning.
// Zero fields fall back to the defaults via [Config.WithDefaults].
type Config struct {
	NodeWidth    float64 `json:"nodeWidth,omitempty" toml:"nodeWidth" yaml:"nodeWidth,omitempty"`
	NodeHeight   float64 `json:"nodeHeight,omitempty" toml:"nodeHeight" yaml:"nodeHeight,omitempty"`
	NodeGap      float64 `json:"nodeGap,omitempty" toml:"nodeGap" yaml:"nodeGap,omitempty"`
	LayerPadding float64 `json:"layerPadding,omitempty" toml:"layerPadding" yaml:"layerPadding,omitempty"`
}

// DefaultConfig returns the stock geometry.
func DefaultConfig() Config {
	return Config{
		NodeWidth:    DefaultNodeWidth,
		NodeHeight:   DefaultNodeHeight,
		NodeGap:      DefaultNodeGap,
		LayerPadding: DefaultLayerPadding,
	}
}

// WithDefaults fills zero fields from [DefaultConfig].
func (c Config) WithDefaults() Config {
	d := DefaultConfig()
	if c.NodeWidth == 0 {
		c.NodeWidth = d.NodeWidth
	}
	if c.NodeHeight == 0 {
		c.NodeHeight = d.NodeHeight
	}
	if c.NodeGap == 0 {
		c.NodeGap = d.NodeGap
	}
	if c.LayerPadding == 0 {
		c.LayerPadding = d.LayerPadding
	}
	return c
}

// Merge returns c with every non-zero field of o applied on top.
func (c Config) Merge(o Config) Config {
	if o.NodeWidth != 0 {
		c.NodeWidth = o.NodeWidth
	}
	if o.NodeHeight != 0 {
		c.NodeHeight = o.NodeHeight
	}
	if o.NodeGap != 0 {
		c.NodeGap = o.NodeGap
	}
	if o.LayerPadding != 0 {
		c.LayerPadding = o.LayerPadding
	}
	return c
}

// Viewport is the size of the rendering surface.
type Viewport struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

package layout

// Config holds the geometry used to place and draw nodes and cells. All
// values are in surface pixels.
type Config struct {
	CellWidth   float64 `json:"cell_width"`
	CellHeight  float64 `json:"cell_height"`
	CellPadding float64 `json:"cell_padding"`
	RowPadding  float64 `json:"row_padding"`

	// NodeBorderFactor enlarges a node background's width beyond its key
	// strip. NodeHeightFactor sizes the background relative to a cell.
	NodeBorderFactor float64 `json:"node_border_factor"`
	NodeHeightFactor float64 `json:"node_height_factor"`

	// StagingX and StagingY position the key awaiting insertion.
	StagingX float64 `json:"staging_x"`
	StagingY float64 `json:"staging_y"`

	// The main tree starts at (OriginX, OriginY); a pending split sibling is
	// laid out beside it at (SplitOriginX, OriginY).
	OriginX      float64 `json:"origin_x"`
	OriginY      float64 `json:"origin_y"`
	SplitOriginX float64 `json:"split_origin_x"`
}

// DefaultConfig returns the standard geometry.
func DefaultConfig() Config {
	cfg := Config{
		CellWidth:        50,
		CellHeight:       50,
		CellPadding:      10,
		RowPadding:       50,
		NodeBorderFactor: 1.1,
		NodeHeightFactor: 1.5,
		StagingX:         50,
		StagingY:         50,
		OriginX:          50,
		SplitOriginX:     800,
	}
	cfg.OriginY = cfg.StagingY + cfg.CellHeight + cfg.RowPadding
	return cfg
}

// NodeWidth returns the width of a key strip holding capacity cells.
func (c Config) NodeWidth(capacity int) float64 {
	if capacity <= 0 {
		return 0
	}
	n := float64(capacity)
	return n*c.CellWidth + (n-1)*c.CellPadding
}

package viewport

// Placement is an absolute offset inside the tile, in pixels. Zero fields
// are unset.
type Placement struct {
	Left  int `json:"left,omitempty"`
	Right int `json:"right,omitempty"`
	Top   int `json:"top"`
	Width int `json:"width,omitempty"`
}

// Button is a clickable control.
type Button struct {
	Label     string    `json:"label"`
	Placement Placement `json:"placement"`
}

// Selector is the view drop-down.
type Selector struct {
	Placement Placement `json:"placement"`
	Options   []string  `json:"options"`
	Selected  string    `json:"selected"`
}

// Controls is the overlay of a tile.
type Controls struct {
	Visible bool    `json:"visible"`
	Add     Button  `json:"add"`
	Remove  *Button `json:"remove,omitempty"`

	Select              Selector `json:"select"`
	Description         string   `json:"description"`
	DescriptionMaxWidth int      `json:"description_max_width"`
}

func newControls(p *Port, host Host) *Controls {
	c := &Controls{
		Add: Button{Label: "+", Placement: Placement{Right: 10, Top: 10}},
		Select: Selector{
			Placement: Placement{Left: 10, Top: 10, Width: 130},
			Options:   host.ViewNames(),
			Selected:  p.view.Name,
		},
		Description: p.view.Description,
	}
	if host.ViewCount() > 1 {
		c.Remove = &Button{Label: "-", Placement: Placement{Right: 50, Top: 10}}
	}
	return c
}

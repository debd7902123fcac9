package scenario

// Info describes a preset for listings.
type Info struct {
	Type         Type   `json:"type"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	Pattern      string `json:"pattern"`
	DefaultFleet int    `json:"default_fleet"`
}

// BuiltIn returns the preset catalog in display order.
func BuiltIn() []Info {
	return []Info{
		{
			Type:         LawnMowing,
			Name:         "Autonomous Lawn Care Fleet",
			Description:  "Mowers tile a 200m property into square zones and mow each in back-and-forth rows.",
			Pattern:      "grid",
			DefaultFleet: 12,
		},
		{
			Type:         WarehouseLogistics,
			Name:         "Warehouse Automation Fleet",
			Description:  "Mobile robots shuttle inventory between receiving, storage, picking and shipping zones.",
			Pattern:      "waypoint",
			DefaultFleet: 20,
		},
		{
			Type:         Agriculture,
			Name:         "Precision Agriculture Fleet",
			Description:  "Farm robots split a 300m field into row bands for planting, monitoring and harvesting.",
			Pattern:      "grid",
			DefaultFleet: 8,
		},
		{
			Type:         Custom,
			Name:         "Custom Patrol Scenario",
			Description:  "Robots patrol concentric circles around a base location.",
			Pattern:      "random",
			DefaultFleet: 4,
		},
	}
}

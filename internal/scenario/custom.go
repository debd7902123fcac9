package scenario

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadCustom reads custom patrol options from a YAML file.
func LoadCustom(path string) (*CustomOptions, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	var opts CustomOptions
	if err := yaml.Unmarshal(b, &opts); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	if opts.AreaSize < 0 || opts.WaypointsPerCircle < 0 || opts.RadiusStep < 0 {
		return nil, fmt.Errorf("parse scenario %s: negative dimensions", path)
	}
	return &opts, nil
}

var fleetKeywords = []struct {
	words []string
	typ   Type
}{
	{[]string{"lawn", "mow", "garden"}, LawnMowing},
	{[]string{"warehouse", "logistics", "inventory"}, WarehouseLogistics},
	{[]string{"farm", "agri", "crop"}, Agriculture},
}

// ForFleet chooses a preset from keywords in a fleet's name, falling back to
// RecommendedScenario for its size.
func ForFleet(name string, robotCount int) Type {
	lower := strings.ToLower(name)
	for _, k := range fleetKeywords {
		for _, w := range k.words {
			if strings.Contains(lower, w) {
				return k.typ
			}
		}
	}
	return RecommendedScenario(robotCount)
}

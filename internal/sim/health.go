package sim

import (
	"sort"

	"robofleet-sim/internal/telemetry"
)

// FleetHealth summarizes robot status per fleet.
type FleetHealth struct {
	FleetID        string                        `json:"fleet_id"`
	Total          int                           `json:"total"`
	ByStatus       map[telemetry.RobotStatus]int `json:"by_status"`
	LowBattery     int                           `json:"low_battery"`
	Failed         int                           `json:"failed"`
	AverageBattery float64                       `json:"average_battery"`
	AverageHealth  float64                       `json:"average_health"`
}

// lowBatteryLevel marks robots that will soon head for a charger.
const lowBatteryLevel = 20.0

// summarize groups robot states by fleet, ordered by fleet id.
func summarize(states map[string]telemetry.RobotState) []FleetHealth {
	byFleet := make(map[string]*FleetHealth)
	for _, st := range states {
		h, ok := byFleet[st.FleetID]
		if !ok {
			h = &FleetHealth{FleetID: st.FleetID, ByStatus: make(map[telemetry.RobotStatus]int)}
			byFleet[st.FleetID] = h
		}
		h.Total++
		h.ByStatus[st.Status]++
		if st.BatteryLevel < lowBatteryLevel {
			h.LowBattery++
		}
		if st.Status == telemetry.StatusError || st.Status == telemetry.StatusOffline {
			h.Failed++
		}
		h.AverageBattery += st.BatteryLevel
		h.AverageHealth += st.HealthScore
	}
	out := make([]FleetHealth, 0, len(byFleet))
	for _, h := range byFleet {
		h.AverageBattery /= float64(h.Total)
		h.AverageHealth /= float64(h.Total)
		out = append(out, *h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FleetID < out[j].FleetID })
	return out
}

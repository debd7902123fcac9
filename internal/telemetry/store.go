package telemetry

// entry is the per-robot record held by the store.
type entry struct {
	state     RobotState
	path      *RobotPath
	pauseLeft float64 // simulated seconds left to hold at the current waypoint
}

// store keeps robot state in insertion order. It is not safe for concurrent
// use; the generator serializes access.
type store struct {
	byID  map[string]*entry
	order []string
}

func newStore() *store {
	return &store{byID: make(map[string]*entry)}
}

func (s *store) get(id string) (*entry, bool) {
	e, ok := s.byID[id]
	return e, ok
}

// put inserts or overwrites the state for st.RobotID. An overwrite keeps the
// robot's position in iteration order and drops its path.
func (s *store) put(st RobotState) *entry {
	if e, ok := s.byID[st.RobotID]; ok {
		*e = entry{state: st}
		return e
	}
	e := &entry{state: st}
	s.byID[st.RobotID] = e
	s.order = append(s.order, st.RobotID)
	return e
}

func (s *store) remove(id string) bool {
	if _, ok := s.byID[id]; !ok {
		return false
	}
	delete(s.byID, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

func (s *store) clear() {
	s.byID = make(map[string]*entry)
	s.order = nil
}

func (s *store) len() int { return len(s.order) }

// each calls fn for every robot in insertion order.
func (s *store) each(fn func(*entry)) {
	for _, id := range s.order {
		fn(s.byID[id])
	}
}

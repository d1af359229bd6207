package trips

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/kplatou/harborwatt/core/logger"
	"github.com/kplatou/harborwatt/core/model"
)

// Daily departure slots, local hours. Weekdays sail both, Saturday only
// the morning one, Sunday none.
var slotHours = [...]int{9, 14}

// MaxSlots is the number of departure slots in a day.
const MaxSlots = len(slotHours)

// Manager assigns routes to vessels day by day. Assignments are memoized
// per (vessel, date) so asking twice within a day returns the same list.
type Manager struct {
	routes []*model.Trip
	rng    *rand.Rand
	log    logger.Logger

	mu       sync.Mutex
	assigned map[assignKey][]*model.Trip
}

type assignKey struct {
	boat string
	date string
}

// NewManager creates a Manager over the pre-loaded routes. The seed fixes
// the route draw so runs are reproducible.
func NewManager(routes []*model.Trip, seed int64, log logger.Logger) (*Manager, error) {
	if len(routes) == 0 {
		return nil, fmt.Errorf("trip manager needs at least one route")
	}
	return &Manager{
		routes:   routes,
		rng:      rand.New(rand.NewSource(seed)),
		log:      log,
		assigned: make(map[assignKey][]*model.Trip),
	}, nil
}

// TripsPerDay returns how many trips a vessel sails on the given weekday:
// 2 on weekdays, 1 on Saturday, 0 on Sunday.
func TripsPerDay(d time.Weekday) int {
	switch d {
	case time.Sunday:
		return 0
	case time.Saturday:
		return 1
	default:
		return 2
	}
}

// SlotStart returns the nominal departure time of the given slot on date,
// in the date's location. Slot indexes outside the day return the zero time.
func SlotStart(date time.Time, slot int) time.Time {
	if slot < 0 || slot >= MaxSlots {
		return time.Time{}
	}
	y, m, d := date.Date()
	return time.Date(y, m, d, slotHours[slot], 0, 0, 0, date.Location())
}

// AssignDailyTrips returns the ordered routes the vessel sails on date.
// The first call for a (vessel, date) pair draws routes, repeated calls
// return the cached assignment unchanged.
func (m *Manager) AssignDailyTrips(boat *model.Boat, date time.Time) []*model.Trip {
	key := assignKey{boat: boat.Name, date: dateKey(date)}
	m.mu.Lock()
	defer m.mu.Unlock()
	if trips, ok := m.assigned[key]; ok {
		return trips
	}
	count := TripsPerDay(date.Weekday())
	trips := m.draw(count)
	m.assigned[key] = trips
	if m.log != nil && count > 0 {
		names := make([]string, len(trips))
		for i, t := range trips {
			names[i] = t.Name
		}
		m.log.Debugw("assigned daily trips", map[string]any{
			"boat": boat.Name, "date": key.date, "routes": names,
		})
	}
	return trips
}

// Assignments maps each vessel name to its ordered trips for one day.
type Assignments map[string][]*model.Trip

// AssignAll assigns (or recalls) the day's trips for every boat.
func (m *Manager) AssignAll(boats []*model.Boat, date time.Time) Assignments {
	out := make(Assignments, len(boats))
	for _, b := range boats {
		out[b.Name] = m.AssignDailyTrips(b, date)
	}
	return out
}

// TripForSlot returns the route occupying the given slot for the vessel on
// date, or nil when the vessel has no trip in that slot. It assigns the
// day first if needed.
func (m *Manager) TripForSlot(boat *model.Boat, date time.Time, slot int) *model.Trip {
	trips := m.AssignDailyTrips(boat, date)
	if slot < 0 || slot >= len(trips) {
		return nil
	}
	return trips[slot]
}

// draw picks count routes: without replacement when enough distinct routes
// exist, with replacement otherwise. Caller holds m.mu.
func (m *Manager) draw(count int) []*model.Trip {
	if count == 0 {
		return nil
	}
	if len(m.routes) >= count {
		idx := m.rng.Perm(len(m.routes))[:count]
		trips := make([]*model.Trip, count)
		for i, j := range idx {
			trips[i] = m.routes[j]
		}
		return trips
	}
	trips := make([]*model.Trip, count)
	for i := range trips {
		trips[i] = m.routes[m.rng.Intn(len(m.routes))]
	}
	return trips
}

func dateKey(t time.Time) string {
	return t.Format("2006-01-02")
}

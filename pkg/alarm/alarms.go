package alarm

import (
	"sort"
	"sync"
	"time"
)

type Alarm struct {
	Area    string    `json:"area"`
	Kind    string    `json:"kind"`
	Message string    `json:"message"`
	Since   time.Time `json:"since"`
}

func (a Alarm) key() string {
	return a.Area + "/" + a.Kind
}

// ActiveAlarms holds at most one active alarm per area and kind.
type ActiveAlarms struct {
	activeAlarms map[string]Alarm
	sync.RWMutex
}

// Add adds alarm to the active list and returns true if it was added. returns false if it already exists.
func (a *ActiveAlarms) Add(alarm Alarm) bool {
	a.Lock()
	defer a.Unlock()
	if a.activeAlarms == nil {
		a.activeAlarms = make(map[string]Alarm)
	}
	if _, ok := a.activeAlarms[alarm.key()]; ok {
		return false
	}
	a.activeAlarms[alarm.key()] = alarm
	return true
}

// Clear removes the alarms of area and returns true if any was active. An empty kind matches every kind.
func (a *ActiveAlarms) Clear(area, kind string) bool {
	hasActive := false
	a.Lock()
	for k, alarm := range a.activeAlarms {
		if alarm.Area == area && (kind == "" || alarm.Kind == kind) {
			delete(a.activeAlarms, k)
			hasActive = true
		}
	}
	a.Unlock()
	return hasActive
}

// List returns the active alarms ordered by area and kind.
func (a *ActiveAlarms) List() []Alarm {
	a.RLock()
	list := make([]Alarm, 0, len(a.activeAlarms))
	for _, alarm := range a.activeAlarms {
		list = append(list, alarm)
	}
	a.RUnlock()
	sort.Slice(list, func(i, j int) bool {
		return list[i].key() < list[j].key()
	})
	return list
}

package agenda

import (
	"strings"

	"github.com/nidus/nidus/internal/domain/careevent"
)

// JoinSet selects which event kinds a patient view includes.
type JoinSet uint8

const (
	JoinMedications  JoinSet = 1 << iota
	JoinAppointments
	JoinTasks

	JoinAll = JoinMedications | JoinAppointments | JoinTasks
)

func joinFor(kind careevent.Kind) JoinSet {
	switch kind {
	case careevent.KindMedication:
		return JoinMedications
	case careevent.KindAppointment:
		return JoinAppointments
	case careevent.KindTask:
		return JoinTasks
	default:
		return 0
	}
}

func (s JoinSet) Has(kind careevent.Kind) bool {
	j := joinFor(kind)
	return j != 0 && s&j == j
}

// Kinds returns the selected kinds in careevent.Kinds order.
func (s JoinSet) Kinds() []careevent.Kind {
	var out []careevent.Kind
	for _, k := range careevent.Kinds {
		if s.Has(k) {
			out = append(out, k)
		}
	}
	return out
}

func (s JoinSet) String() string {
	var names []string
	for _, k := range s.Kinds() {
		names = append(names, k.Plural())
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, "+")
}

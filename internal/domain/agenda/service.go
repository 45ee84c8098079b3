package agenda

import (
	"context"
	"fmt"
	"time"

	"github.com/nidus/nidus/internal/domain/careevent"
)

type Service struct {
	source RowSource
	now    func() time.Time
}

func NewService(source RowSource) *Service {
	return &Service{source: source, now: time.Now}
}

// BuildPatientView aggregates patients with their events of every kind in
// joins. Patients keep the order of their first row; events are deduplicated
// per kind by id since joining several kinds fans rows out.
func (s *Service) BuildPatientView(ctx context.Context, joins JoinSet, f Filter) (*View, error) {
	if joins&JoinAll == 0 {
		return nil, fmt.Errorf("empty join set")
	}
	rows, err := s.source.Rows(ctx, joins, f)
	if err != nil {
		return nil, err
	}
	return group(rows, joins, s.now()), nil
}

func group(rows []Row, joins JoinSet, now time.Time) *View {
	kinds := joins.Kinds()
	view := &View{
		Patients: []PatientView{},
		Totals:   make(map[careevent.Kind]int, len(kinds)),
	}
	for _, kind := range kinds {
		view.Totals[kind] = 0
	}

	index := map[int64]int{}
	seen := map[careevent.Kind]map[int64]struct{}{}
	for _, kind := range kinds {
		seen[kind] = map[int64]struct{}{}
	}

	for _, r := range rows {
		i, ok := index[r.Patient.ID]
		if !ok {
			pv := PatientView{Patient: r.Patient, Events: make(map[careevent.Kind][]map[string]interface{}, len(kinds))}
			for _, kind := range kinds {
				pv.Events[kind] = []map[string]interface{}{}
			}
			view.Patients = append(view.Patients, pv)
			i = len(view.Patients) - 1
			index[r.Patient.ID] = i
		}

		for _, kind := range kinds {
			e, ok := r.Events[kind]
			if !ok {
				continue
			}
			if _, dup := seen[kind][e.ID]; dup {
				continue
			}
			seen[kind][e.ID] = struct{}{}
			pv := &view.Patients[i]
			pv.Events[kind] = append(pv.Events[kind], e.Projection(now))
			view.Totals[kind]++
		}
	}
	return view
}

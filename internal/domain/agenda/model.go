package agenda

import (
	"encoding/json"

	"github.com/nidus/nidus/internal/domain/careevent"
)

// Patient is the patient part of an aggregated row.
type Patient struct {
	ID          int64    `json:"id"`
	Name        string   `json:"nome"`
	Age         *int32   `json:"idade"`
	Weight      *float64 `json:"peso"`
	BloodType   string   `json:"tipo_sanguineo"`
	Comorbidity *string  `json:"comorbidade"`
	CaregiverID *int64   `json:"cuidador_id"`
}

// Row is one line of the patient ⨝ events join. Events holds the joined
// event per kind; a kind is absent when its side of the join was null.
type Row struct {
	Patient Patient
	Events  map[careevent.Kind]*careevent.Event
}

// PatientView groups a patient's events by kind. Every kind in the view's
// join set is present, possibly empty.
type PatientView struct {
	Patient
	Events map[careevent.Kind][]map[string]interface{}
}

func (v PatientView) MarshalJSON() ([]byte, error) {
	out := map[string]interface{}{
		"id":             v.ID,
		"nome":           v.Name,
		"idade":          v.Age,
		"peso":           v.Weight,
		"tipo_sanguineo": v.BloodType,
		"comorbidade":    v.Comorbidity,
		"cuidador_id":    v.CaregiverID,
	}
	for kind, items := range v.Events {
		out[kind.Plural()] = items
	}
	return json.Marshal(out)
}

// View is the result of one aggregation.
type View struct {
	Patients []PatientView
	Totals   map[careevent.Kind]int
}

// Filter narrows a view to one patient and/or to the patients owned by one
// caregiver.
type Filter struct {
	PatientID   *int64
	CaregiverID *int64
}

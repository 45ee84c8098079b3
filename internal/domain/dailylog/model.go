package dailylog

import "time"

// Section is one of the three groups of columns a daily log is written in.
type Section uint8

const (
	SectionActivities Section = iota + 1
	SectionSentiment
	SectionVitals
)

func (s Section) String() string {
	switch s {
	case SectionActivities:
		return "activities"
	case SectionSentiment:
		return "sentiment"
	case SectionVitals:
		return "vitals"
	default:
		return "unknown"
	}
}

// Columns are the registros_diarios columns owned by the section. A write
// never touches columns of another section.
func (s Section) Columns() []string {
	switch s {
	case SectionActivities:
		return []string{"atividades_realizadas", "outras_atividades", "observacoes_gerais"}
	case SectionSentiment:
		return []string{"estado_geral", "observacoes_sentimentos"}
	case SectionVitals:
		return []string{"temperatura", "glicemia", "pressao_arterial", "outras_observacoes"}
	default:
		return nil
	}
}

// Entry is a stored daily log joined with its patient.
type Entry struct {
	ID          int64     `json:"id"`
	PatientID   int64     `json:"paciente_id"`
	PatientName string    `json:"paciente_nome"`
	PatientAge  *int32    `json:"paciente_idade"`
	BloodType   string    `json:"tipo_sanguineo"`
	Comorbidity *string   `json:"comorbidade"`
	RecordedAt  time.Time `json:"data_registro"`
	Formatted   string    `json:"data_formatada"`

	Activities      *string `json:"atividades_realizadas"`
	OtherActivities *string `json:"outras_atividades"`
	GeneralNotes    *string `json:"observacoes_gerais"`

	Mood           *string `json:"estado_geral"`
	SentimentNotes *string `json:"observacoes_sentimentos"`

	Temperature   *float64 `json:"temperatura"`
	Glucose       *int32   `json:"glicemia"`
	BloodPressure *string  `json:"pressao_arterial"`
	OtherNotes    *string  `json:"outras_observacoes"`
}

type ActivitiesInput struct {
	PatientID       int64   `json:"paciente_id"`
	Activities      *string `json:"atividades_realizadas"`
	OtherActivities *string `json:"outras_atividades"`
	GeneralNotes    *string `json:"observacoes_gerais"`
}

type SentimentInput struct {
	PatientID int64   `json:"paciente_id"`
	Mood      string  `json:"estado_geral"`
	Notes     *string `json:"observacoes_sentimentos"`
}

type VitalsInput struct {
	PatientID     int64    `json:"paciente_id"`
	Temperature   *float64 `json:"temperatura"`
	Glucose       *int32   `json:"glicemia"`
	BloodPressure *string  `json:"pressao_arterial"`
	OtherNotes    *string  `json:"outras_observacoes"`
}

// Write is one section write for a patient's calendar day.
type Write struct {
	PatientID int64
	Section   Section
	// Values line up with Section.Columns().
	Values []interface{}
	At     time.Time
	// DayStart and DayEnd bound the calendar day At falls in.
	DayStart, DayEnd time.Time
	// AlwaysInsert skips the same-day lookup.
	AlwaysInsert bool
}

// Result reports which row a write landed in.
type Result struct {
	ID       int64
	Inserted bool
}

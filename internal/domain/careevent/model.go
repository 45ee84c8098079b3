package careevent

import "time"

// Event is a scheduled care event. Kind selects which one of Medication,
// Appointment or Task is set.
type Event struct {
	ID          int64
	Kind        Kind
	PatientID   int64
	PatientName string
	CaregiverID int64
	ScheduledAt time.Time
	Status      Status
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Medication  *Medication
	Appointment *Appointment
	Task        *Task
}

type Medication struct {
	Name   string
	Dosage string
}

// Appointment keeps the calendar date and wall-clock time as entered;
// Event.ScheduledAt is the instant they denote in the server time zone.
type Appointment struct {
	VisitType VisitType
	Specialty string
	Doctor    string
	DoctorCRM *string
	Date      string
	Time      string
	Location  *string
	Address   *string
}

type Task struct {
	Description string
	Motivation  string
}

// Projection renders the event for clients with both the stored status and
// the status resolved at now.
func (e *Event) Projection(now time.Time) map[string]interface{} {
	out := map[string]interface{}{
		"id":              e.ID,
		"paciente_id":     e.PatientID,
		"cuidador_id":     e.CaregiverID,
		"status":          Resolve(e.ScheduledAt, e.Status, now).String(),
		"status_original": e.Status.String(),
		"created_at":      e.CreatedAt,
		"updated_at":      e.UpdatedAt,
	}
	if e.PatientName != "" {
		out["paciente_nome"] = e.PatientName
	}

	switch e.Kind {
	case KindMedication:
		out["data_hora"] = e.ScheduledAt
		if m := e.Medication; m != nil {
			out["medicamento_nome"] = m.Name
			out["dosagem"] = m.Dosage
		}
	case KindAppointment:
		out["agendada_em"] = e.ScheduledAt
		if a := e.Appointment; a != nil {
			out["tipo_consulta"] = string(a.VisitType)
			out["especialidade"] = a.Specialty
			out["medico_nome"] = a.Doctor
			out["crm_medico"] = a.DoctorCRM
			out["data_consulta"] = a.Date
			out["hora_consulta"] = a.Time
			out["local_consulta"] = a.Location
			out["endereco_consulta"] = a.Address
		}
	case KindTask:
		out["data_tarefa"] = e.ScheduledAt
		if t := e.Task; t != nil {
			out["descricao"] = t.Description
			out["motivacao"] = t.Motivation
		}
	}
	return out
}

// MedicationInput is the body of a medication scheduling request.
type MedicationInput struct {
	CaregiverID int64  `json:"cuidador_id"`
	PatientID   int64  `json:"paciente_id"`
	Name        string `json:"medicamento_nome"`
	Dosage      string `json:"dosagem"`
	ScheduledAt string `json:"data_hora"`
}

// NamedMedicationInput schedules a medication for a patient identified by
// name, with the date and time given separately.
type NamedMedicationInput struct {
	PatientName string `json:"patient_name"`
	Name        string `json:"medication_name"`
	Dosage      string `json:"dosage"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	CaregiverID int64  `json:"cuidador_id"`
}

type AppointmentInput struct {
	CaregiverID int64   `json:"cuidador_id"`
	PatientID   int64   `json:"paciente_id"`
	Specialty   string  `json:"especialidade"`
	Doctor      string  `json:"medico_nome"`
	DoctorCRM   *string `json:"crm_medico"`
	Date        string  `json:"data_consulta"`
	Time        string  `json:"hora_consulta"`
	Location    *string `json:"local_consulta"`
	Address     *string `json:"endereco_consulta"`
	VisitType   string  `json:"tipo_consulta"`
}

type TaskInput struct {
	CaregiverID int64  `json:"cuidador_id"`
	PatientID   int64  `json:"paciente_id"`
	Description string `json:"descricao"`
	Motivation  string `json:"motivacao"`
	ScheduledAt string `json:"data_tarefa"`
}

// StatusInput is the body of a status change request.
type StatusInput struct {
	Status string `json:"status"`
}

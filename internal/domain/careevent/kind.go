package careevent

import "fmt"

// Kind is the variant tag of a scheduled event.
type Kind uint8

const (
	KindMedication Kind = iota + 1
	KindAppointment
	KindTask
)

// Kinds lists every event kind in the order sweeps and views process them.
var Kinds = []Kind{KindMedication, KindAppointment, KindTask}

func (k Kind) String() string {
	switch k {
	case KindMedication:
		return "medicamento"
	case KindAppointment:
		return "consulta"
	case KindTask:
		return "tarefa"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Plural is the collection name used in responses and routes.
func (k Kind) Plural() string {
	switch k {
	case KindMedication:
		return "medicamentos"
	case KindAppointment:
		return "consultas"
	case KindTask:
		return "tarefas"
	default:
		return k.String()
	}
}

// Table is the relational table holding events of this kind.
func (k Kind) Table() string {
	switch k {
	case KindMedication:
		return "agendamentos_medicamentos"
	case KindAppointment:
		return "consultas"
	case KindTask:
		return "tarefas"
	default:
		panic(fmt.Sprintf("careevent: no table for %s", k))
	}
}

// TimeColumn is the column holding the scheduled instant.
func (k Kind) TimeColumn() string {
	switch k {
	case KindMedication:
		return "data_hora"
	case KindAppointment:
		return "agendada_em"
	case KindTask:
		return "data_tarefa"
	default:
		panic(fmt.Sprintf("careevent: no time column for %s", k))
	}
}

// ParseKind accepts the singular or plural name of a kind.
func ParseKind(v string) (Kind, error) {
	for _, k := range Kinds {
		if v == k.String() || v == k.Plural() {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown event kind %q", v)
}

// VisitType is how an appointment takes place.
type VisitType string

const (
	VisitInPerson   VisitType = "presencial"
	VisitTelehealth VisitType = "telemedicina"
	VisitHome       VisitType = "domiciliar"
)

func ParseVisitType(v string) (VisitType, error) {
	switch VisitType(v) {
	case "":
		return VisitInPerson, nil
	case VisitInPerson, VisitTelehealth, VisitHome:
		return VisitType(v), nil
	default:
		return "", fmt.Errorf("invalid tipo_consulta %q: use presencial, telemedicina or domiciliar", v)
	}
}

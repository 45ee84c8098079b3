package agenda

import (
	"context"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/doug-martin/goqu/v9/exp"

	"github.com/nidus/nidus/internal/domain/careevent"
	"github.com/nidus/nidus/internal/platform/db"
)

// RowSource runs the aggregation query.
type RowSource interface {
	Rows(ctx context.Context, joins JoinSet, f Filter) ([]Row, error)
}

var dialect = goqu.Dialect("postgres")

// joinDef describes how one kind is joined onto pacientes. Every detail
// column is selected as nullable text.
type joinDef struct {
	alias  string
	detail []interface{}
	fill   func(e *careevent.Event, d []*string)
}

func str(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

var joinDefs = map[careevent.Kind]joinDef{
	careevent.KindMedication: {
		alias:  "m",
		detail: []interface{}{goqu.I("m.medicamento_nome"), goqu.I("m.dosagem")},
		fill: func(e *careevent.Event, d []*string) {
			e.Medication = &careevent.Medication{Name: str(d[0]), Dosage: str(d[1])}
		},
	},
	careevent.KindAppointment: {
		alias: "c",
		detail: []interface{}{
			goqu.I("c.tipo_consulta"), goqu.I("c.especialidade"), goqu.I("c.medico_nome"), goqu.I("c.crm_medico"),
			goqu.L("to_char(c.data_consulta, 'YYYY-MM-DD')"), goqu.L("to_char(c.hora_consulta, 'HH24:MI:SS')"),
			goqu.I("c.local_consulta"), goqu.I("c.endereco_consulta"),
		},
		fill: func(e *careevent.Event, d []*string) {
			e.Appointment = &careevent.Appointment{
				VisitType: careevent.VisitType(str(d[0])),
				Specialty: str(d[1]),
				Doctor:    str(d[2]),
				DoctorCRM: d[3],
				Date:      str(d[4]),
				Time:      str(d[5]),
				Location:  d[6],
				Address:   d[7],
			}
		},
	},
	careevent.KindTask: {
		alias:  "t",
		detail: []interface{}{goqu.I("t.descricao"), goqu.I("t.motivacao")},
		fill: func(e *careevent.Event, d []*string) {
			e.Task = &careevent.Task{Description: str(d[0]), Motivation: str(d[1])}
		},
	},
}

func col(alias, name string) exp.IdentifierExpression {
	return goqu.I(alias + "." + name)
}

// buildQuery renders the single patient ⨝ events statement for joins.
func buildQuery(joins JoinSet, f Filter) (string, []interface{}, error) {
	sel := []interface{}{
		col("p", "id"), col("p", "nome"), col("p", "idade"), col("p", "peso"),
		col("p", "tipo_sanguineo"), col("p", "comorbidade"), col("p", "cuidador_id"),
	}
	order := []exp.OrderedExpression{col("p", "nome").Asc(), col("p", "id").Asc()}

	ds := dialect.From(goqu.T("pacientes").As("p"))
	for _, kind := range joins.Kinds() {
		jd := joinDefs[kind]
		a := jd.alias
		sel = append(sel, col(a, "id"), col(a, "cuidador_id"), col(a, kind.TimeColumn()),
			col(a, "status"), col(a, "created_at"), col(a, "updated_at"))
		sel = append(sel, jd.detail...)

		ds = ds.LeftJoin(goqu.T(kind.Table()).As(a), goqu.On(col(a, "paciente_id").Eq(col("p", "id"))))
		order = append(order, col(a, kind.TimeColumn()).Desc(), col(a, "id").Desc())
	}

	if f.PatientID != nil {
		ds = ds.Where(col("p", "id").Eq(*f.PatientID))
	}
	if f.CaregiverID != nil {
		ds = ds.Where(col("p", "cuidador_id").Eq(*f.CaregiverID))
	}

	return ds.Select(sel...).Order(order...).Prepared(true).ToSQL()
}

type sourcePG struct {
	conn db.Queryable
}

func NewRowSourcePG(conn db.Queryable) RowSource {
	return &sourcePG{conn: conn}
}

// joined holds the nullable scan targets of one kind's side of the join.
type joined struct {
	id, caregiverID          *int64
	at, createdAt, updatedAt *time.Time
	status                   *string
	detail                   []*string
}

func (j *joined) dest() []interface{} {
	out := []interface{}{&j.id, &j.caregiverID, &j.at, &j.status, &j.createdAt, &j.updatedAt}
	for i := range j.detail {
		out = append(out, &j.detail[i])
	}
	return out
}

func (j *joined) event(kind careevent.Kind, p Patient) (*careevent.Event, error) {
	if j.id == nil {
		return nil, nil
	}
	status, err := careevent.ParseStatus(str(j.status))
	if err != nil {
		return nil, fmt.Errorf("%s %d: %w", kind, *j.id, err)
	}
	e := &careevent.Event{
		ID:          *j.id,
		Kind:        kind,
		PatientID:   p.ID,
		PatientName: p.Name,
		Status:      status,
	}
	if j.caregiverID != nil {
		e.CaregiverID = *j.caregiverID
	}
	if j.at != nil {
		e.ScheduledAt = *j.at
	}
	if j.createdAt != nil {
		e.CreatedAt = *j.createdAt
	}
	if j.updatedAt != nil {
		e.UpdatedAt = *j.updatedAt
	}
	joinDefs[kind].fill(e, j.detail)
	return e, nil
}

func (s *sourcePG) Rows(ctx context.Context, joins JoinSet, f Filter) ([]Row, error) {
	query, args, err := buildQuery(joins, f)
	if err != nil {
		return nil, fmt.Errorf("build agenda query: %w", err)
	}

	rows, err := s.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, db.Classify(err, "agenda")
	}
	defer rows.Close()

	kinds := joins.Kinds()
	var out []Row
	for rows.Next() {
		var r Row
		dest := []interface{}{&r.Patient.ID, &r.Patient.Name, &r.Patient.Age, &r.Patient.Weight,
			&r.Patient.BloodType, &r.Patient.Comorbidity, &r.Patient.CaregiverID}

		sides := make([]*joined, len(kinds))
		for i, kind := range kinds {
			sides[i] = &joined{detail: make([]*string, len(joinDefs[kind].detail))}
			dest = append(dest, sides[i].dest()...)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, db.Classify(err, "agenda")
		}

		r.Events = make(map[careevent.Kind]*careevent.Event, len(kinds))
		for i, kind := range kinds {
			e, err := sides[i].event(kind, r.Patient)
			if err != nil {
				return nil, err
			}
			if e != nil {
				r.Events[kind] = e
			}
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, db.Classify(err, "agenda")
	}
	return out, nil
}

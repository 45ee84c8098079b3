package careevent

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/nidus/nidus/internal/platform/db"
)

type storePG struct {
	conn db.Queryable
}

func NewStorePG(conn db.Queryable) Store {
	return &storePG{conn: conn}
}

// kindSQL holds the per-kind column lists. Common columns come first in
// every select, detail columns after.
type kindSQL struct {
	detailCols   string
	insertCols   string
	insertValues string
	insertArgs   func(e *Event) []interface{}
	scanDetail   func(e *Event) []interface{}
}

var kinds = map[Kind]kindSQL{
	KindMedication: {
		detailCols:   `t.medicamento_nome, t.dosagem`,
		insertCols:   `cuidador_id, paciente_id, data_hora, status, medicamento_nome, dosagem`,
		insertValues: `$1, $2, $3, $4, $5, $6`,
		insertArgs: func(e *Event) []interface{} {
			return []interface{}{e.Medication.Name, e.Medication.Dosage}
		},
		scanDetail: func(e *Event) []interface{} {
			e.Medication = &Medication{}
			return []interface{}{&e.Medication.Name, &e.Medication.Dosage}
		},
	},
	KindAppointment: {
		detailCols: `t.tipo_consulta, t.especialidade, t.medico_nome, t.crm_medico,
			to_char(t.data_consulta, 'YYYY-MM-DD'), to_char(t.hora_consulta, 'HH24:MI:SS'),
			t.local_consulta, t.endereco_consulta`,
		insertCols: `cuidador_id, paciente_id, agendada_em, status, tipo_consulta, especialidade,
			medico_nome, crm_medico, data_consulta, hora_consulta, local_consulta, endereco_consulta`,
		insertValues: `$1, $2, $3, $4, $5, $6, $7, $8, $9::date, $10::time, $11, $12`,
		insertArgs: func(e *Event) []interface{} {
			a := e.Appointment
			return []interface{}{string(a.VisitType), a.Specialty, a.Doctor, a.DoctorCRM,
				a.Date, a.Time, a.Location, a.Address}
		},
		scanDetail: func(e *Event) []interface{} {
			e.Appointment = &Appointment{}
			a := e.Appointment
			return []interface{}{&a.VisitType, &a.Specialty, &a.Doctor, &a.DoctorCRM,
				&a.Date, &a.Time, &a.Location, &a.Address}
		},
	},
	KindTask: {
		detailCols:   `t.descricao, t.motivacao`,
		insertCols:   `cuidador_id, paciente_id, data_tarefa, status, descricao, motivacao`,
		insertValues: `$1, $2, $3, $4, $5, $6`,
		insertArgs: func(e *Event) []interface{} {
			return []interface{}{e.Task.Description, e.Task.Motivation}
		},
		scanDetail: func(e *Event) []interface{} {
			e.Task = &Task{}
			return []interface{}{&e.Task.Description, &e.Task.Motivation}
		},
	},
}

func sqlFor(kind Kind) (kindSQL, error) {
	ks, ok := kinds[kind]
	if !ok {
		return kindSQL{}, fmt.Errorf("unknown event kind %d", kind)
	}
	return ks, nil
}

func selectCols(kind Kind, ks kindSQL) string {
	return `t.id, t.paciente_id, COALESCE(p.nome, ''), t.cuidador_id, t.` + kind.TimeColumn() +
		`, t.status, t.created_at, t.updated_at, ` + ks.detailCols
}

func scanEvent(row pgx.Row, kind Kind, ks kindSQL) (*Event, error) {
	e := &Event{Kind: kind}
	var status string
	dest := []interface{}{&e.ID, &e.PatientID, &e.PatientName, &e.CaregiverID, &e.ScheduledAt,
		&status, &e.CreatedAt, &e.UpdatedAt}
	dest = append(dest, ks.scanDetail(e)...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	s, err := ParseStatus(status)
	if err != nil {
		return nil, fmt.Errorf("%s %d: %w", kind, e.ID, err)
	}
	e.Status = s
	return e, nil
}

func (r *storePG) Create(ctx context.Context, e *Event) error {
	ks, err := sqlFor(e.Kind)
	if err != nil {
		return err
	}

	e.Status = StatusPending
	args := append([]interface{}{e.CaregiverID, e.PatientID, e.ScheduledAt, e.Status.String()}, ks.insertArgs(e)...)
	err = r.conn.QueryRow(ctx,
		`INSERT INTO `+e.Kind.Table()+` (`+ks.insertCols+`)
		VALUES (`+ks.insertValues+`)
		RETURNING id, created_at, updated_at`,
		args...).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
	return db.Classify(err, e.Kind.String())
}

func (r *storePG) Get(ctx context.Context, kind Kind, id int64) (*Event, error) {
	ks, err := sqlFor(kind)
	if err != nil {
		return nil, err
	}
	e, err := scanEvent(r.conn.QueryRow(ctx,
		`SELECT `+selectCols(kind, ks)+`
		FROM `+kind.Table()+` t
		LEFT JOIN pacientes p ON p.id = t.paciente_id
		WHERE t.id = $1`, id), kind, ks)
	if err != nil {
		return nil, db.Classify(err, kind.String())
	}
	return e, nil
}

func (r *storePG) UpdateStatus(ctx context.Context, kind Kind, id int64, status Status) (*Event, error) {
	ks, err := sqlFor(kind)
	if err != nil {
		return nil, err
	}
	e, err := scanEvent(r.conn.QueryRow(ctx,
		`WITH t AS (
			UPDATE `+kind.Table()+` SET status = $2, updated_at = NOW()
			WHERE id = $1
			RETURNING *
		)
		SELECT `+selectCols(kind, ks)+`
		FROM t
		LEFT JOIN pacientes p ON p.id = t.paciente_id`, id, status.String()), kind, ks)
	if err != nil {
		return nil, db.Classify(err, kind.String())
	}
	return e, nil
}

func (r *storePG) ListByPatient(ctx context.Context, kind Kind, patientID int64) ([]*Event, error) {
	return r.list(ctx, kind, `WHERE t.paciente_id = $1`, patientID)
}

func (r *storePG) ListAll(ctx context.Context, kind Kind) ([]*Event, error) {
	return r.list(ctx, kind, ``)
}

func (r *storePG) list(ctx context.Context, kind Kind, where string, args ...interface{}) ([]*Event, error) {
	ks, err := sqlFor(kind)
	if err != nil {
		return nil, err
	}
	rows, err := r.conn.Query(ctx,
		`SELECT `+selectCols(kind, ks)+`
		FROM `+kind.Table()+` t
		LEFT JOIN pacientes p ON p.id = t.paciente_id
		`+where+`
		ORDER BY p.nome, t.`+kind.TimeColumn()+` DESC, t.id DESC`, args...)
	if err != nil {
		return nil, db.Classify(err, kind.Plural())
	}
	defer rows.Close()

	items := []*Event{}
	for rows.Next() {
		e, err := scanEvent(rows, kind, ks)
		if err != nil {
			return nil, db.Classify(err, kind.Plural())
		}
		items = append(items, e)
	}
	if err := rows.Err(); err != nil {
		return nil, db.Classify(err, kind.Plural())
	}
	return items, nil
}

func (r *storePG) PromoteOverdue(ctx context.Context, kind Kind, now time.Time) (int64, error) {
	if _, err := sqlFor(kind); err != nil {
		return 0, err
	}
	tag, err := r.conn.Exec(ctx,
		`UPDATE `+kind.Table()+` SET status = $1, updated_at = NOW()
		WHERE status = $2 AND `+kind.TimeColumn()+` < $3`,
		StatusLate.String(), StatusPending.String(), now)
	if err != nil {
		return 0, db.Classify(err, kind.Plural())
	}
	return tag.RowsAffected(), nil
}

func (r *storePG) FindPatientByName(ctx context.Context, name string) (*PatientRef, error) {
	var p PatientRef
	err := r.conn.QueryRow(ctx,
		`SELECT id, cuidador_id FROM pacientes WHERE nome = $1 ORDER BY id LIMIT 1`, name).
		Scan(&p.ID, &p.CaregiverID)
	if err != nil {
		return nil, db.Classify(err, "paciente")
	}
	return &p, nil
}

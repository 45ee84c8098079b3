package dailylog

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/nidus/nidus/internal/platform/db"
)

type storePG struct {
	conn db.Conn
}

func NewStorePG(conn db.Conn) Store {
	return &storePG{conn: conn}
}

const entryColumns = `rd.id, rd.paciente_id, p.nome, p.idade, p.tipo_sanguineo, p.comorbidade, rd.data_registro,
	rd.atividades_realizadas, rd.outras_atividades, rd.observacoes_gerais,
	rd.estado_geral, rd.observacoes_sentimentos,
	rd.temperatura, rd.glicemia, rd.pressao_arterial, rd.outras_observacoes`

func scanEntry(row pgx.Row) (*Entry, error) {
	var e Entry
	err := row.Scan(&e.ID, &e.PatientID, &e.PatientName, &e.PatientAge, &e.BloodType, &e.Comorbidity, &e.RecordedAt,
		&e.Activities, &e.OtherActivities, &e.GeneralNotes,
		&e.Mood, &e.SentimentNotes,
		&e.Temperature, &e.Glucose, &e.BloodPressure, &e.OtherNotes)
	return &e, err
}

func updateSQL(cols []string) string {
	set := make([]string, len(cols))
	for i, c := range cols {
		set[i] = fmt.Sprintf("%s = $%d", c, i+2)
	}
	return `UPDATE registros_diarios SET ` + strings.Join(set, ", ") + ` WHERE id = $1`
}

func insertSQL(cols []string) string {
	params := make([]string, len(cols)+2)
	for i := range params {
		params[i] = fmt.Sprintf("$%d", i+1)
	}
	return `INSERT INTO registros_diarios (paciente_id, ` + strings.Join(cols, ", ") + `, data_registro)
		VALUES (` + strings.Join(params, ", ") + `) RETURNING id`
}

func (r *storePG) Save(ctx context.Context, w Write) (Result, error) {
	cols := w.Section.Columns()
	if len(cols) == 0 || len(cols) != len(w.Values) {
		return Result{}, fmt.Errorf("dailylog: %d values for section %s", len(w.Values), w.Section)
	}

	var res Result
	err := db.WithTx(ctx, r.conn, func(tx pgx.Tx) error {
		// Concurrent writes for the same patient and day must land in one row.
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, w.PatientID); err != nil {
			return err
		}

		if !w.AlwaysInsert {
			err := tx.QueryRow(ctx,
				`SELECT id FROM registros_diarios
				WHERE paciente_id = $1 AND data_registro >= $2 AND data_registro < $3
				ORDER BY data_registro DESC, id DESC
				LIMIT 1`, w.PatientID, w.DayStart, w.DayEnd).Scan(&res.ID)
			if err == nil {
				_, err = tx.Exec(ctx, updateSQL(cols), append([]interface{}{res.ID}, w.Values...)...)
				return err
			}
			if !db.IsNoRows(err) {
				return err
			}
		}

		args := append([]interface{}{w.PatientID}, w.Values...)
		args = append(args, w.At)
		res.Inserted = true
		return tx.QueryRow(ctx, insertSQL(cols), args...).Scan(&res.ID)
	})
	if err != nil {
		return Result{}, db.Classify(err, "registro diario")
	}
	return res, nil
}

func (r *storePG) List(ctx context.Context, patientID *int64, limit, offset int) ([]*Entry, int, error) {
	where := ``
	args := []interface{}{}
	if patientID != nil {
		where = `WHERE rd.paciente_id = $1`
		args = append(args, *patientID)
	}

	var total int
	err := r.conn.QueryRow(ctx,
		`SELECT COUNT(*) FROM registros_diarios rd `+where, args...).Scan(&total)
	if err != nil {
		return nil, 0, db.Classify(err, "registros diarios")
	}

	n := len(args)
	rows, err := r.conn.Query(ctx,
		`SELECT `+entryColumns+`
		FROM registros_diarios rd
		JOIN pacientes p ON p.id = rd.paciente_id
		`+where+`
		ORDER BY rd.data_registro DESC, rd.id DESC
		LIMIT $`+fmt.Sprint(n+1)+` OFFSET $`+fmt.Sprint(n+2),
		append(args, limit, offset)...)
	if err != nil {
		return nil, 0, db.Classify(err, "registros diarios")
	}
	defer rows.Close()

	items := []*Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, 0, db.Classify(err, "registros diarios")
		}
		items = append(items, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, db.Classify(err, "registros diarios")
	}
	return items, total, nil
}

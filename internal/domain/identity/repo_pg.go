package identity

import (
	"context"
	"fmt"
	"strings"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/jackc/pgx/v5"

	"github.com/nidus/nidus/internal/platform/apperr"
	"github.com/nidus/nidus/internal/platform/db"
)

type storePG struct {
	conn db.Conn
}

func NewStorePG(conn db.Conn) Store {
	return &storePG{conn: conn}
}

func accountRole(role Role) error {
	if role != RoleCaregiver && role != RoleFamily {
		return fmt.Errorf("identity: %s is not an account role", role)
	}
	return nil
}

const accountCols = `id, nome, email, telefone, endereco, to_char(data_nascimento, 'YYYY-MM-DD'), genero, data_registro`

const caregiverCols = accountCols + `, formacao, registro_profissional, status_validacao`

func colsFor(role Role) string {
	if role == RoleCaregiver {
		return caregiverCols
	}
	return accountCols
}

func scanAccount(row pgx.Row, role Role) (*Account, error) {
	var a Account
	dest := []interface{}{&a.ID, &a.Name, &a.Email, &a.Phone, &a.Address, &a.BirthDate, &a.Gender, &a.RegisteredAt}
	if role == RoleCaregiver {
		dest = append(dest, &a.Education, &a.Registration, &a.ValidationStatus)
	}
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return &a, nil
}

var patientCols = []interface{}{"id", "nome", "idade", "email", "peso", "tipo_sanguineo", "comorbidade", "cuidador_id", "data_registro"}

const patientColsSQL = `id, nome, idade, email, peso, tipo_sanguineo, comorbidade, cuidador_id, data_registro`

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.Name, &p.Age, &p.Email, &p.Weight, &p.BloodType, &p.Comorbidity, &p.CaregiverID, &p.RegisteredAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func (r *storePG) CreateAccount(ctx context.Context, role Role, a *Account, hash string) error {
	if err := accountRole(role); err != nil {
		return err
	}
	err := r.conn.QueryRow(ctx,
		`INSERT INTO `+role.Table()+` (nome, email, telefone, endereco, data_nascimento, genero, senha)
		VALUES ($1, $2, $3, $4, $5::date, $6, $7)
		RETURNING id, data_registro`,
		a.Name, a.Email, a.Phone, a.Address, a.BirthDate, a.Gender, hash,
	).Scan(&a.ID, &a.RegisteredAt)
	return db.Classify(err, role.String())
}

func (r *storePG) CreatePatient(ctx context.Context, p *Patient, hash *string) error {
	err := r.conn.QueryRow(ctx,
		`INSERT INTO pacientes (nome, idade, email, peso, senha, tipo_sanguineo, comorbidade, cuidador_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, data_registro`,
		p.Name, p.Age, p.Email, p.Weight, hash, p.BloodType, p.Comorbidity, p.CaregiverID,
	).Scan(&p.ID, &p.RegisteredAt)
	return db.Classify(err, "paciente")
}

func (r *storePG) FindCredentials(ctx context.Context, role Role, identifier string) (*Credentials, error) {
	where := `email = $1`
	if role != RolePatient {
		where = `email = $1 OR telefone = $1`
	}
	return r.credentials(ctx, role, where, identifier)
}

func (r *storePG) CredentialsByEmail(ctx context.Context, role Role, email string) (*Credentials, error) {
	return r.credentials(ctx, role, `email = $1`, email)
}

func (r *storePG) credentials(ctx context.Context, role Role, where, arg string) (*Credentials, error) {
	var c Credentials
	err := r.conn.QueryRow(ctx,
		`SELECT id, nome, senha FROM `+role.Table()+` WHERE `+where+` ORDER BY id LIMIT 1`, arg).
		Scan(&c.ID, &c.Name, &c.Hash)
	if err != nil {
		return nil, db.Classify(err, role.String())
	}
	return &c, nil
}

func (r *storePG) SetPassword(ctx context.Context, role Role, id int64, hash string) error {
	tag, err := r.conn.Exec(ctx, `UPDATE `+role.Table()+` SET senha = $2 WHERE id = $1`, id, hash)
	if err != nil {
		return db.Classify(err, role.String())
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFoundf("%s not found", role)
	}
	return nil
}

func (r *storePG) GetAccount(ctx context.Context, role Role, id int64) (*Account, error) {
	if err := accountRole(role); err != nil {
		return nil, err
	}
	a, err := scanAccount(r.conn.QueryRow(ctx,
		`SELECT `+colsFor(role)+` FROM `+role.Table()+` WHERE id = $1`, id), role)
	if err != nil {
		return nil, db.Classify(err, role.String())
	}
	return a, nil
}

func (r *storePG) UpdateAccount(ctx context.Context, role Role, a *Account) error {
	if err := accountRole(role); err != nil {
		return err
	}
	tag, err := r.conn.Exec(ctx,
		`UPDATE `+role.Table()+`
		SET nome = $2, telefone = $3, endereco = $4, data_nascimento = $5::date, genero = $6,
			email = COALESCE($7, email)
		WHERE id = $1`,
		a.ID, a.Name, a.Phone, a.Address, a.BirthDate, a.Gender, nullIfEmpty(a.Email))
	if err != nil {
		return db.Classify(err, role.String())
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFoundf("%s not found", role)
	}
	return nil
}

func (r *storePG) UpdateProfessional(ctx context.Context, caregiverID int64, education string, registration *string) error {
	tag, err := r.conn.Exec(ctx,
		`UPDATE cuidador
		SET formacao = $2, registro_profissional = $3, status_validacao = 'Pendente'
		WHERE id = $1`, caregiverID, education, registration)
	if err != nil {
		return db.Classify(err, "cuidador")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFoundf("cuidador not found")
	}
	return nil
}

func (r *storePG) GetPatient(ctx context.Context, id int64) (*Patient, error) {
	p, err := scanPatient(r.conn.QueryRow(ctx,
		`SELECT `+patientColsSQL+` FROM pacientes WHERE id = $1`, id))
	if err != nil {
		return nil, db.Classify(err, "paciente")
	}
	return p, nil
}

func (r *storePG) UpdatePatient(ctx context.Context, p *Patient) error {
	var bloodType interface{}
	if strings.TrimSpace(p.BloodType) != "" {
		bloodType = p.BloodType
	}
	tag, err := r.conn.Exec(ctx,
		`UPDATE pacientes
		SET nome = $2, tipo_sanguineo = COALESCE($3, tipo_sanguineo), idade = $4, peso = $5, comorbidade = $6
		WHERE id = $1`,
		p.ID, p.Name, bloodType, p.Age, p.Weight, p.Comorbidity)
	if err != nil {
		return db.Classify(err, "paciente")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFoundf("paciente not found")
	}
	return nil
}

// patientListQuery is shared by every patient picker endpoint.
func patientListQuery(caregiverID *int64) (string, []interface{}, error) {
	ds := goqu.Dialect("postgres").
		From("pacientes").
		Select(patientCols...).
		Order(goqu.C("nome").Asc(), goqu.C("id").Asc())
	if caregiverID != nil {
		ds = ds.Where(goqu.C("cuidador_id").Eq(*caregiverID))
	}
	return ds.Prepared(true).ToSQL()
}

func (r *storePG) ListPatients(ctx context.Context, caregiverID *int64) ([]*Patient, error) {
	query, args, err := patientListQuery(caregiverID)
	if err != nil {
		return nil, fmt.Errorf("build patient query: %w", err)
	}
	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, db.Classify(err, "pacientes")
	}
	defer rows.Close()

	items := []*Patient{}
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, db.Classify(err, "pacientes")
		}
		items = append(items, p)
	}
	if err := rows.Err(); err != nil {
		return nil, db.Classify(err, "pacientes")
	}
	return items, nil
}

type cascadeStep struct {
	table string
	sql   string
}

// eventsOf deletes the events of one kind a caregiver scheduled or that
// belong to a patient the caregiver owns.
func eventsOf(table string) cascadeStep {
	return cascadeStep{table, `DELETE FROM ` + table + `
		WHERE cuidador_id = $1 OR paciente_id IN (SELECT id FROM pacientes WHERE cuidador_id = $1)`}
}

// cascades are ordered children first so no foreign key blocks a delete.
var cascades = map[Role][]cascadeStep{
	RoleCaregiver: {
		{"registros_diarios", `DELETE FROM registros_diarios rd USING pacientes p
			WHERE rd.paciente_id = p.id AND p.cuidador_id = $1`},
		eventsOf("tarefas"),
		eventsOf("consultas"),
		eventsOf("agendamentos_medicamentos"),
		{"pacientes", `DELETE FROM pacientes WHERE cuidador_id = $1`},
		{"cuidador", `DELETE FROM cuidador WHERE id = $1`},
	},
	RolePatient: {
		{"registros_diarios", `DELETE FROM registros_diarios WHERE paciente_id = $1`},
		{"tarefas", `DELETE FROM tarefas WHERE paciente_id = $1`},
		{"consultas", `DELETE FROM consultas WHERE paciente_id = $1`},
		{"agendamentos_medicamentos", `DELETE FROM agendamentos_medicamentos WHERE paciente_id = $1`},
		{"pacientes", `DELETE FROM pacientes WHERE id = $1`},
	},
	RoleFamily: {
		{"familiares", `DELETE FROM familiares WHERE id = $1`},
	},
}

func (r *storePG) Delete(ctx context.Context, role Role, id int64) (*DeletionReport, error) {
	steps, ok := cascades[role]
	if !ok {
		return nil, fmt.Errorf("identity: no deletion cascade for %s", role)
	}

	report := &DeletionReport{Role: role, ID: id, Removed: make(map[string]int64, len(steps))}
	err := db.WithTx(ctx, r.conn, func(tx pgx.Tx) error {
		var found int64
		err := tx.QueryRow(ctx, `SELECT id FROM `+role.Table()+` WHERE id = $1 FOR UPDATE`, id).Scan(&found)
		if err != nil {
			return db.Classify(err, role.String())
		}
		for _, s := range steps {
			tag, err := tx.Exec(ctx, s.sql, id)
			if err != nil {
				return fmt.Errorf("delete %s: %w", s.table, err)
			}
			report.Removed[s.table] = tag.RowsAffected()
		}
		return nil
	})
	if err != nil {
		return nil, db.Classify(err, role.String())
	}
	return report, nil
}

package identity

import "fmt"

// Role is the kind of account a request acts on.
type Role uint8

const (
	RoleCaregiver Role = iota + 1
	RoleFamily
	RolePatient
)

func (r Role) String() string {
	switch r {
	case RoleCaregiver:
		return "cuidador"
	case RoleFamily:
		return "familiar"
	case RolePatient:
		return "paciente"
	default:
		return fmt.Sprintf("Role(%d)", uint8(r))
	}
}

// Table is the relational table holding accounts of this role.
func (r Role) Table() string {
	switch r {
	case RoleCaregiver:
		return "cuidador"
	case RoleFamily:
		return "familiares"
	case RolePatient:
		return "pacientes"
	default:
		panic(fmt.Sprintf("identity: no table for %s", r))
	}
}

// IDKey names the id field in login responses.
func (r Role) IDKey() string {
	return r.String() + "_id"
}

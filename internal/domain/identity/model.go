package identity

import "time"

// Account is a caregiver or family member. The professional fields are only
// ever set for caregivers.
type Account struct {
	ID           int64     `json:"id"`
	Name         string    `json:"nome"`
	Email        string    `json:"email"`
	Phone        *string   `json:"telefone"`
	Address      *string   `json:"endereco"`
	BirthDate    *string   `json:"data_nascimento"`
	Gender       *string   `json:"genero"`
	RegisteredAt time.Time `json:"data_registro"`

	Education        *string `json:"formacao,omitempty"`
	Registration     *string `json:"registro_profissional,omitempty"`
	ValidationStatus *string `json:"status_validacao,omitempty"`
}

type Patient struct {
	ID           int64     `json:"id"`
	Name         string    `json:"nome"`
	Age          *int32    `json:"idade"`
	Email        *string   `json:"email"`
	Weight       *float64  `json:"peso"`
	BloodType    string    `json:"tipo_sanguineo"`
	Comorbidity  *string   `json:"comorbidade"`
	CaregiverID  *int64    `json:"cuidador_id"`
	RegisteredAt time.Time `json:"data_registro"`
}

// Credentials is what login needs from a stored account.
type Credentials struct {
	ID   int64
	Name string
	Hash *string
}

type AccountInput struct {
	Name      string  `json:"nome"`
	Email     string  `json:"email"`
	Phone     *string `json:"telefone"`
	Address   *string `json:"endereco"`
	BirthDate *string `json:"data_nascimento"`
	Gender    *string `json:"genero"`
	Password  string  `json:"senha"`
}

type PatientInput struct {
	Name        string   `json:"nome"`
	Age         *int32   `json:"idade"`
	Email       *string  `json:"email"`
	Password    *string  `json:"senha"`
	Weight      *float64 `json:"peso"`
	BloodType   string   `json:"tipo_sanguineo"`
	Comorbidity *string  `json:"comorbidade"`
	CaregiverID *int64   `json:"cuidador_id"`
}

type LoginInput struct {
	Identifier string `json:"identificador"`
	Password   string `json:"senha"`
}

type PasswordChangeInput struct {
	Email   string `json:"email"`
	Current string `json:"senhaAtual"`
	New     string `json:"novaSenha"`
}

// AccountProfileInput updates a caregiver or family profile. numero is the
// older name of telefone and is used when telefone is absent.
type AccountProfileInput struct {
	ID        int64   `json:"id"`
	Name      string  `json:"nome"`
	Phone     *string `json:"telefone"`
	Number    *string `json:"numero"`
	Address   *string `json:"endereco"`
	BirthDate *string `json:"data_nascimento"`
	Gender    *string `json:"genero"`
	Email     *string `json:"email"`
}

type PatientProfileInput struct {
	ID          int64    `json:"id"`
	Name        string   `json:"nome"`
	Age         *int32   `json:"idade"`
	Weight      *float64 `json:"peso"`
	BloodType   *string  `json:"tipo_sanguineo"`
	Comorbidity *string  `json:"comorbidade"`
}

// ProfessionalInput submits a caregiver's qualifications for validation.
type ProfessionalInput struct {
	CaregiverID  int64   `json:"cuidador_id"`
	Education    string  `json:"formacao"`
	Registration *string `json:"registro_profissional"`
	Declaration  bool    `json:"declaracao_apto"`
}

type DeleteInput struct {
	UserID       int64  `json:"userId"`
	Confirmation string `json:"confirmacao"`
}

// DeletionReport lists how many rows each table lost in a cascade.
type DeletionReport struct {
	Role    Role             `json:"-"`
	ID      int64            `json:"id"`
	Removed map[string]int64 `json:"removidos"`
}

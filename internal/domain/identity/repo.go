package identity

import "context"

// Store persists accounts and patients. Methods taking a Role accept
// RoleCaregiver and RoleFamily only.
type Store interface {
	CreateAccount(ctx context.Context, role Role, a *Account, hash string) error
	CreatePatient(ctx context.Context, p *Patient, hash *string) error

	// FindCredentials looks an account up by email, or by phone for
	// caregivers and family members.
	FindCredentials(ctx context.Context, role Role, identifier string) (*Credentials, error)
	CredentialsByEmail(ctx context.Context, role Role, email string) (*Credentials, error)
	SetPassword(ctx context.Context, role Role, id int64, hash string) error

	GetAccount(ctx context.Context, role Role, id int64) (*Account, error)
	UpdateAccount(ctx context.Context, role Role, a *Account) error
	UpdateProfessional(ctx context.Context, caregiverID int64, education string, registration *string) error
	GetPatient(ctx context.Context, id int64) (*Patient, error)
	UpdatePatient(ctx context.Context, p *Patient) error
	ListPatients(ctx context.Context, caregiverID *int64) ([]*Patient, error)

	// Delete removes the account and everything that references it in one
	// transaction, children first.
	Delete(ctx context.Context, role Role, id int64) (*DeletionReport, error)
}

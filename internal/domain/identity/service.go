package identity

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/nidus/nidus/internal/platform/apperr"
)

const invalidCredentials = "invalid credentials"

type Service struct {
	store        Store
	verifier     CredentialVerifier
	confirmation string
}

// NewService builds the identity service. confirmation is the sentinel a
// deletion request must echo back.
func NewService(store Store, verifier CredentialVerifier, confirmation string) *Service {
	return &Service{store: store, verifier: verifier, confirmation: confirmation}
}

func blank(v string) bool {
	return strings.TrimSpace(v) == ""
}

func trimmed(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	if t == "" {
		return nil
	}
	return &t
}

var dateLayouts = []string{"2006-01-02", "2/1/2006"}

// normalizeDate accepts YYYY-MM-DD or DD/MM/YYYY and returns YYYY-MM-DD.
func normalizeDate(v *string) (*string, error) {
	v = trimmed(v)
	if v == nil {
		return nil, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, *v); err == nil {
			s := t.Format("2006-01-02")
			return &s, nil
		}
	}
	return nil, apperr.Validationf("invalid data_nascimento %q: use YYYY-MM-DD or DD/MM/YYYY", *v)
}

// -- Registration --

func (s *Service) RegisterAccount(ctx context.Context, role Role, in AccountInput) (*Account, error) {
	if blank(in.Name) || blank(in.Email) || blank(in.Password) {
		return nil, apperr.Validationf("nome, email and senha are required")
	}
	birth, err := normalizeDate(in.BirthDate)
	if err != nil {
		return nil, err
	}
	hash, err := s.verifier.Hash(in.Password)
	if err != nil {
		return nil, apperr.InternalWrap("hash password", err)
	}

	a := &Account{
		Name:      strings.TrimSpace(in.Name),
		Email:     strings.TrimSpace(in.Email),
		Phone:     trimmed(in.Phone),
		Address:   trimmed(in.Address),
		BirthDate: birth,
		Gender:    trimmed(in.Gender),
	}
	if err := s.store.CreateAccount(ctx, role, a, hash); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Service) RegisterPatient(ctx context.Context, in PatientInput) (*Patient, error) {
	if blank(in.Name) || blank(in.BloodType) {
		return nil, apperr.Validationf("nome and tipo_sanguineo are required")
	}

	// Passwords are hashed exactly as sent, like every other credential
	// path; a blank one means the patient has no login.
	var hash *string
	if in.Password != nil && !blank(*in.Password) {
		h, err := s.verifier.Hash(*in.Password)
		if err != nil {
			return nil, apperr.InternalWrap("hash password", err)
		}
		hash = &h
	}

	p := &Patient{
		Name:        strings.TrimSpace(in.Name),
		Age:         in.Age,
		Email:       trimmed(in.Email),
		Weight:      in.Weight,
		BloodType:   strings.TrimSpace(in.BloodType),
		Comorbidity: trimmed(in.Comorbidity),
		CaregiverID: in.CaregiverID,
	}
	if err := s.store.CreatePatient(ctx, p, hash); err != nil {
		return nil, err
	}
	return p, nil
}

// -- Credentials --

// Login verifies a password. Unknown identifiers and wrong passwords fail
// with the same error.
func (s *Service) Login(ctx context.Context, role Role, in LoginInput) (*Credentials, error) {
	if blank(in.Identifier) || blank(in.Password) {
		return nil, apperr.Validationf("identificador and senha are required")
	}
	c, err := s.store.FindCredentials(ctx, role, strings.TrimSpace(in.Identifier))
	if apperr.Is(err, apperr.NotFound) {
		return nil, apperr.Unauthorizedf(invalidCredentials)
	}
	if err != nil {
		return nil, err
	}
	if c.Hash == nil {
		return nil, apperr.Unauthorizedf(invalidCredentials)
	}
	if err := s.verifier.Verify(*c.Hash, in.Password); err != nil {
		if errors.Is(err, ErrCredentialMismatch) {
			return nil, apperr.Unauthorizedf(invalidCredentials)
		}
		return nil, apperr.InternalWrap("verify password", err)
	}
	return c, nil
}

func (s *Service) ChangePassword(ctx context.Context, role Role, in PasswordChangeInput) error {
	if blank(in.Email) || blank(in.Current) || blank(in.New) {
		return apperr.Validationf("email, senhaAtual and novaSenha are required")
	}
	c, err := s.store.CredentialsByEmail(ctx, role, strings.TrimSpace(in.Email))
	if err != nil {
		return err
	}
	if c.Hash == nil {
		return apperr.Unauthorizedf("current password is incorrect")
	}
	if err := s.verifier.Verify(*c.Hash, in.Current); err != nil {
		if errors.Is(err, ErrCredentialMismatch) {
			return apperr.Unauthorizedf("current password is incorrect")
		}
		return apperr.InternalWrap("verify password", err)
	}

	hash, err := s.verifier.Hash(in.New)
	if err != nil {
		return apperr.InternalWrap("hash password", err)
	}
	return s.store.SetPassword(ctx, role, c.ID, hash)
}

// -- Profiles --

func (s *Service) GetAccount(ctx context.Context, role Role, id int64) (*Account, error) {
	if id <= 0 {
		return nil, apperr.Validationf("invalid id")
	}
	return s.store.GetAccount(ctx, role, id)
}

func (s *Service) UpdateAccount(ctx context.Context, role Role, in AccountProfileInput) (*Account, error) {
	if in.ID <= 0 || blank(in.Name) {
		return nil, apperr.Validationf("id and nome are required")
	}
	birth, err := normalizeDate(in.BirthDate)
	if err != nil {
		return nil, err
	}
	phone := trimmed(in.Phone)
	if phone == nil {
		phone = trimmed(in.Number)
	}

	a := &Account{
		ID:        in.ID,
		Name:      strings.TrimSpace(in.Name),
		Phone:     phone,
		Address:   trimmed(in.Address),
		BirthDate: birth,
		Gender:    trimmed(in.Gender),
	}
	if e := trimmed(in.Email); e != nil {
		a.Email = *e
	}
	if err := s.store.UpdateAccount(ctx, role, a); err != nil {
		return nil, err
	}
	return s.store.GetAccount(ctx, role, in.ID)
}

func (s *Service) SubmitProfessional(ctx context.Context, in ProfessionalInput) error {
	if in.CaregiverID <= 0 || blank(in.Education) || !in.Declaration {
		return apperr.Validationf("cuidador_id, formacao and declaracao_apto are required")
	}
	return s.store.UpdateProfessional(ctx, in.CaregiverID, strings.TrimSpace(in.Education), trimmed(in.Registration))
}

func (s *Service) GetPatient(ctx context.Context, id int64) (*Patient, error) {
	if id <= 0 {
		return nil, apperr.Validationf("invalid id")
	}
	return s.store.GetPatient(ctx, id)
}

func (s *Service) UpdatePatient(ctx context.Context, in PatientProfileInput) (*Patient, error) {
	if in.ID <= 0 || blank(in.Name) {
		return nil, apperr.Validationf("id and nome are required")
	}
	p := &Patient{
		ID:          in.ID,
		Name:        strings.TrimSpace(in.Name),
		Age:         in.Age,
		Weight:      in.Weight,
		Comorbidity: trimmed(in.Comorbidity),
	}
	if bt := trimmed(in.BloodType); bt != nil {
		p.BloodType = *bt
	}
	if err := s.store.UpdatePatient(ctx, p); err != nil {
		return nil, err
	}
	return s.store.GetPatient(ctx, in.ID)
}

// ListPatients returns every patient, or only those owned by caregiverID.
func (s *Service) ListPatients(ctx context.Context, caregiverID *int64) ([]*Patient, error) {
	return s.store.ListPatients(ctx, caregiverID)
}

// -- Deletion --

func (s *Service) Delete(ctx context.Context, role Role, in DeleteInput) (*DeletionReport, error) {
	if in.UserID <= 0 {
		return nil, apperr.Validationf("userId is required")
	}
	if in.Confirmation != s.confirmation {
		return nil, apperr.Validationf("deletion must be confirmed")
	}
	return s.store.Delete(ctx, role, in.UserID)
}

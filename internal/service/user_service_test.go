package service

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"clinic-api/internal/domain"
)

type mockUserRepo struct {
	usersByID    map[string]domain.User
	usersByEmail map[string]string
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{
		usersByID:    make(map[string]domain.User),
		usersByEmail: make(map[string]string),
	}
}

func (m *mockUserRepo) Create(_ context.Context, user domain.User) error {
	m.usersByID[user.ID] = user
	m.usersByEmail[user.Email] = user.ID
	return nil
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (domain.User, error) {
	id, ok := m.usersByEmail[email]
	if !ok {
		return domain.User{}, pgx.ErrNoRows
	}
	return m.usersByID[id], nil
}

func (m *mockUserRepo) SetConfirmed(_ context.Context, id string) error {
	user, ok := m.usersByID[id]
	if !ok {
		return pgx.ErrNoRows
	}
	user.IsConfirmed = true
	m.usersByID[id] = user
	return nil
}

func (m *mockUserRepo) UpdateConfirmationCode(_ context.Context, id, code string) error {
	user, ok := m.usersByID[id]
	if !ok {
		return pgx.ErrNoRows
	}
	user.ConfirmationCode = code
	m.usersByID[id] = user
	return nil
}

type mockSender struct {
	failSend    bool
	codeCalls   int
	noticeCalls int
	lastEmail   string
	lastCode    string
	lastBooking domain.Booking
}

func (m *mockSender) SendConfirmationCode(_ context.Context, toEmail, code string) error {
	if m.failSend {
		return errors.New("smtp down")
	}
	m.codeCalls++
	m.lastEmail = toEmail
	m.lastCode = code
	return nil
}

func (m *mockSender) SendAppointmentNotice(_ context.Context, toEmail string, booking domain.Booking) error {
	if m.failSend {
		return errors.New("smtp down")
	}
	m.noticeCalls++
	m.lastEmail = toEmail
	m.lastBooking = booking
	return nil
}

func signupInput(emailAddr string) SignupInput {
	return SignupInput{
		FirstName:   "Ana",
		LastName:    "García",
		Email:       emailAddr,
		Password:    "pw123456",
		Role:        "patient",
		DateOfBirth: "1990-05-04",
	}
}

func TestUserService_Signup(t *testing.T) {
	repo := newMockUserRepo()
	sender := &mockSender{}
	svc := NewUserService(zap.NewNop(), repo, sender)

	user, err := svc.Signup(context.Background(), signupInput("ana@example.com"))
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	if user.IsConfirmed {
		t.Fatalf("new user must start unconfirmed")
	}

	stored, err := repo.GetByEmail(context.Background(), "ana@example.com")
	if err != nil {
		t.Fatalf("get stored user: %v", err)
	}
	if stored.PasswordHash == "" || stored.PasswordHash == "pw123456" {
		t.Fatalf("password must be stored hashed, got %q", stored.PasswordHash)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("pw123456")); err != nil {
		t.Fatalf("hash does not verify: %v", err)
	}

	n, err := strconv.Atoi(stored.ConfirmationCode)
	if err != nil || n < 100000 || n > 999999 {
		t.Fatalf("confirmation code out of range: %q", stored.ConfirmationCode)
	}
	if sender.codeCalls != 1 || sender.lastCode != stored.ConfirmationCode {
		t.Fatalf("sender got code %q, stored %q", sender.lastCode, stored.ConfirmationCode)
	}
	if sender.lastEmail != "ana@example.com" {
		t.Fatalf("code sent to %q", sender.lastEmail)
	}
}

func TestUserService_SignupDuplicate(t *testing.T) {
	repo := newMockUserRepo()
	svc := NewUserService(zap.NewNop(), repo, &mockSender{})

	if _, err := svc.Signup(context.Background(), signupInput("ana@example.com")); err != nil {
		t.Fatalf("first signup: %v", err)
	}

	input := signupInput("ana@example.com")
	input.FirstName = "Otra"
	if _, err := svc.Signup(context.Background(), input); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
	if len(repo.usersByID) != 1 {
		t.Fatalf("duplicate signup must not create users, have %d", len(repo.usersByID))
	}
	stored, _ := repo.GetByEmail(context.Background(), "ana@example.com")
	if stored.FirstName != "Ana" {
		t.Fatalf("duplicate signup must not alter the existing user")
	}
}

func TestUserService_SignupMailFailureStillPersists(t *testing.T) {
	repo := newMockUserRepo()
	svc := NewUserService(zap.NewNop(), repo, &mockSender{failSend: true})

	if _, err := svc.Signup(context.Background(), signupInput("ana@example.com")); err != nil {
		t.Fatalf("signup with failing sender: %v", err)
	}
	if _, err := repo.GetByEmail(context.Background(), "ana@example.com"); err != nil {
		t.Fatalf("user must be persisted regardless of mail outcome: %v", err)
	}
}

func TestUserService_ConfirmEmail(t *testing.T) {
	repo := newMockUserRepo()
	sender := &mockSender{}
	svc := NewUserService(zap.NewNop(), repo, sender)

	if _, err := svc.Signup(context.Background(), signupInput("ana@example.com")); err != nil {
		t.Fatalf("signup: %v", err)
	}
	code := sender.lastCode

	wrong := "100000"
	if wrong == code {
		wrong = "100001"
	}
	if err := svc.ConfirmEmail(context.Background(), "ana@example.com", wrong); !errors.Is(err, ErrInvalidConfirmation) {
		t.Fatalf("wrong code: expected ErrInvalidConfirmation, got %v", err)
	}
	stored, _ := repo.GetByEmail(context.Background(), "ana@example.com")
	if stored.IsConfirmed {
		t.Fatalf("wrong code must not confirm")
	}

	if err := svc.ConfirmEmail(context.Background(), "nadie@example.com", code); !errors.Is(err, ErrInvalidConfirmation) {
		t.Fatalf("unknown email: expected ErrInvalidConfirmation, got %v", err)
	}

	if err := svc.ConfirmEmail(context.Background(), "ana@example.com", code); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	stored, _ = repo.GetByEmail(context.Background(), "ana@example.com")
	if !stored.IsConfirmed {
		t.Fatalf("user must be confirmed")
	}

	// idempotente una vez confirmado
	if err := svc.ConfirmEmail(context.Background(), "ana@example.com", code); err != nil {
		t.Fatalf("re-confirm: %v", err)
	}
}

func TestUserService_Authenticate(t *testing.T) {
	repo := newMockUserRepo()
	sender := &mockSender{}
	svc := NewUserService(zap.NewNop(), repo, sender)

	if _, err := svc.Signup(context.Background(), signupInput("ana@example.com")); err != nil {
		t.Fatalf("signup: %v", err)
	}

	if _, err := svc.Authenticate(context.Background(), "nadie@example.com", "pw123456"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown email: expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Authenticate(context.Background(), "ana@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("bad password: expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Authenticate(context.Background(), "ana@example.com", "pw123456"); !errors.Is(err, ErrEmailNotConfirmed) {
		t.Fatalf("unconfirmed: expected ErrEmailNotConfirmed, got %v", err)
	}

	if err := svc.ConfirmEmail(context.Background(), "ana@example.com", sender.lastCode); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	user, err := svc.Authenticate(context.Background(), "ana@example.com", "pw123456")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if user.Email != "ana@example.com" {
		t.Fatalf("unexpected user: %+v", user)
	}
}

func TestUserService_ResendCode(t *testing.T) {
	repo := newMockUserRepo()
	sender := &mockSender{}
	svc := NewUserService(zap.NewNop(), repo, sender)

	if err := svc.ResendCode(context.Background(), "nadie@example.com"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("unknown email: expected ErrUserNotFound, got %v", err)
	}

	if _, err := svc.Signup(context.Background(), signupInput("ana@example.com")); err != nil {
		t.Fatalf("signup: %v", err)
	}
	firstCode := sender.lastCode

	if err := svc.ResendCode(context.Background(), "ana@example.com"); err != nil {
		t.Fatalf("resend: %v", err)
	}
	stored, _ := repo.GetByEmail(context.Background(), "ana@example.com")
	if stored.ConfirmationCode != sender.lastCode {
		t.Fatalf("stored code %q, sent %q", stored.ConfirmationCode, sender.lastCode)
	}
	if sender.codeCalls != 2 {
		t.Fatalf("expected 2 code sends, got %d", sender.codeCalls)
	}

	// el código anterior deja de servir si el nuevo difiere
	if firstCode != stored.ConfirmationCode {
		if err := svc.ConfirmEmail(context.Background(), "ana@example.com", firstCode); !errors.Is(err, ErrInvalidConfirmation) {
			t.Fatalf("old code: expected ErrInvalidConfirmation, got %v", err)
		}
	}

	if err := svc.ConfirmEmail(context.Background(), "ana@example.com", stored.ConfirmationCode); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if err := svc.ResendCode(context.Background(), "ana@example.com"); !errors.Is(err, ErrAlreadyConfirmed) {
		t.Fatalf("confirmed: expected ErrAlreadyConfirmed, got %v", err)
	}
}

func TestUserService_ResendCodeMailFailure(t *testing.T) {
	repo := newMockUserRepo()
	sender := &mockSender{}
	svc := NewUserService(zap.NewNop(), repo, sender)

	if _, err := svc.Signup(context.Background(), signupInput("ana@example.com")); err != nil {
		t.Fatalf("signup: %v", err)
	}

	sender.failSend = true
	if err := svc.ResendCode(context.Background(), "ana@example.com"); !errors.Is(err, ErrEmailSendFailure) {
		t.Fatalf("expected ErrEmailSendFailure, got %v", err)
	}
}

func TestGenerateConfirmationCode_Range(t *testing.T) {
	for i := 0; i < 200; i++ {
		code, err := generateConfirmationCode()
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		n, err := strconv.Atoi(code)
		if err != nil || len(code) != 6 || n < 100000 || n > 999999 {
			t.Fatalf("code out of range: %q", code)
		}
	}
}

package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"clinic-api/internal/domain"
	"clinic-api/internal/email"
	"clinic-api/internal/repository"
)

// UserService coordina reglas de negocio para cuentas de usuario.
type UserService struct {
	logger      *zap.Logger
	users       repository.UserRepository
	emailSender email.Sender
}

func NewUserService(logger *zap.Logger, users repository.UserRepository, emailSender email.Sender) *UserService {
	return &UserService{
		logger:      logger,
		users:       users,
		emailSender: emailSender,
	}
}

var (
	ErrEmailTaken          = errors.New("email already exists")
	ErrInvalidConfirmation = errors.New("invalid code or email")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrEmailNotConfirmed   = errors.New("email not confirmed")
	ErrUserNotFound        = errors.New("user not found")
	ErrAlreadyConfirmed    = errors.New("email already confirmed")
	ErrEmailSendFailure    = errors.New("email send failed")
)

// mailTimeout acota cada transacción SMTP para que un transporte lento
// no bloquee el request completo.
const mailTimeout = 5 * time.Second

const uniqueViolationCode = "23505"

type SignupInput struct {
	FirstName   string
	LastName    string
	Email       string
	Password    string
	Role        string
	DateOfBirth string
}

// Signup crea la cuenta sin confirmar y envía el código por correo.
// La persistencia no depende del resultado del envío: si el correo falla
// se registra el warning y el código puede reenviarse con ResendCode.
func (s *UserService) Signup(ctx context.Context, input SignupInput) (domain.User, error) {
	if s.users == nil {
		return domain.User{}, errors.New("user service not configured")
	}

	emailAddr := strings.TrimSpace(input.Email)
	if emailAddr == "" {
		return domain.User{}, ErrInvalidCredentials
	}

	if _, err := s.users.GetByEmail(ctx, emailAddr); err == nil {
		return domain.User{}, ErrEmailTaken
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, err
	}

	hashBytes, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return domain.User{}, err
	}

	code, err := generateConfirmationCode()
	if err != nil {
		return domain.User{}, err
	}

	user := domain.User{
		ID:               uuid.NewString(),
		Email:            emailAddr,
		FirstName:        strings.TrimSpace(input.FirstName),
		LastName:         strings.TrimSpace(input.LastName),
		PasswordHash:     string(hashBytes),
		DateOfBirth:      strings.TrimSpace(input.DateOfBirth),
		Role:             strings.TrimSpace(input.Role),
		ConfirmationCode: code,
		IsConfirmed:      false,
		CreatedAt:        time.Now().UTC(),
	}

	if err := s.users.Create(ctx, user); err != nil {
		// el índice único cubre la carrera entre chequeo e inserción
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return domain.User{}, ErrEmailTaken
		}
		return domain.User{}, err
	}

	if err := s.sendCode(ctx, user.Email, code); err != nil {
		s.logger.Warn("send confirmation code failed",
			zap.Error(err), zap.String("email", user.Email))
	}

	return user, nil
}

// ConfirmEmail marca la cuenta como confirmada si el código coincide.
// No distingue email desconocido de código incorrecto.
func (s *UserService) ConfirmEmail(ctx context.Context, emailAddr, code string) error {
	if s.users == nil {
		return errors.New("user service not configured")
	}

	emailAddr = strings.TrimSpace(emailAddr)
	code = strings.TrimSpace(code)
	if emailAddr == "" || code == "" {
		return ErrInvalidConfirmation
	}

	user, err := s.users.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrInvalidConfirmation
		}
		return err
	}

	if user.ConfirmationCode == "" {
		return ErrInvalidConfirmation
	}
	if subtle.ConstantTimeCompare([]byte(user.ConfirmationCode), []byte(code)) != 1 {
		return ErrInvalidConfirmation
	}

	// re-confirmar con el mismo código es idempotente
	if user.IsConfirmed {
		return nil
	}
	return s.users.SetConfirmed(ctx, user.ID)
}

// ResendCode regenera el código de confirmación y lo reenvía.
// Aquí el fallo del correo sí es fatal: reenviar el código es todo el trabajo.
func (s *UserService) ResendCode(ctx context.Context, emailAddr string) error {
	if s.users == nil {
		return errors.New("user service not configured")
	}

	emailAddr = strings.TrimSpace(emailAddr)
	if emailAddr == "" {
		return ErrUserNotFound
	}

	user, err := s.users.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrUserNotFound
		}
		return err
	}
	if user.IsConfirmed {
		return ErrAlreadyConfirmed
	}

	code, err := generateConfirmationCode()
	if err != nil {
		return err
	}
	if err := s.users.UpdateConfirmationCode(ctx, user.ID, code); err != nil {
		return err
	}

	if err := s.sendCode(ctx, user.Email, code); err != nil {
		s.logger.Warn("resend confirmation code failed",
			zap.Error(err), zap.String("email", user.Email))
		return ErrEmailSendFailure
	}
	return nil
}

// Authenticate valida credenciales y estado de confirmación.
// Devuelve el mismo error para email desconocido y contraseña incorrecta.
func (s *UserService) Authenticate(ctx context.Context, emailAddr, password string) (domain.User, error) {
	if s.users == nil {
		return domain.User{}, errors.New("user service not configured")
	}

	emailAddr = strings.TrimSpace(emailAddr)
	if emailAddr == "" || password == "" {
		return domain.User{}, ErrInvalidCredentials
	}

	user, err := s.users.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, ErrInvalidCredentials
		}
		return domain.User{}, err
	}
	if user.PasswordHash == "" {
		return domain.User{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return domain.User{}, ErrInvalidCredentials
	}
	if !user.IsConfirmed {
		return domain.User{}, ErrEmailNotConfirmed
	}
	return user, nil
}

// Profile relee la cuenta por email; el token pudo sobrevivir a la cuenta.
func (s *UserService) Profile(ctx context.Context, emailAddr string) (domain.User, error) {
	if s.users == nil {
		return domain.User{}, errors.New("user service not configured")
	}

	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(emailAddr))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, err
	}
	return user, nil
}

func (s *UserService) sendCode(ctx context.Context, toEmail, code string) error {
	if s.emailSender == nil {
		return ErrEmailSendFailure
	}
	mailCtx, cancel := context.WithTimeout(ctx, mailTimeout)
	defer cancel()
	return s.emailSender.SendConfirmationCode(mailCtx, toEmail, code)
}

// generateConfirmationCode elige un código uniforme en [100000, 999999].
func generateConfirmationCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(n.Int64()+100000, 10), nil
}

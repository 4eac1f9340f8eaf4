package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"clinic-api/internal/domain"
	"clinic-api/internal/email"
	"clinic-api/internal/repository"
)

// BookingService registra citas y notifica al doctor por correo.
type BookingService struct {
	logger      *zap.Logger
	bookings    repository.BookingRepository
	emailSender email.Sender
	doctorEmail string
}

func NewBookingService(logger *zap.Logger, bookings repository.BookingRepository, emailSender email.Sender, doctorEmail string) *BookingService {
	return &BookingService{
		logger:      logger,
		bookings:    bookings,
		emailSender: emailSender,
		doctorEmail: doctorEmail,
	}
}

type BookingInput struct {
	Name       string
	Address    string
	Speciality string
	Date       string
	Phone      string
}

// Book persiste la cita y luego intenta la notificación. La cita queda
// registrada aunque el correo falle; el fallo solo se loguea.
func (s *BookingService) Book(ctx context.Context, input BookingInput) (domain.Booking, error) {
	if s.bookings == nil {
		return domain.Booking{}, errors.New("booking service not configured")
	}

	booking := domain.Booking{
		ID:         uuid.NewString(),
		Name:       strings.TrimSpace(input.Name),
		Address:    strings.TrimSpace(input.Address),
		Speciality: strings.TrimSpace(input.Speciality),
		Date:       strings.TrimSpace(input.Date),
		Phone:      strings.TrimSpace(input.Phone),
		CreatedAt:  time.Now().UTC(),
	}

	if err := s.bookings.Create(ctx, booking); err != nil {
		return domain.Booking{}, err
	}

	if s.emailSender != nil {
		mailCtx, cancel := context.WithTimeout(ctx, mailTimeout)
		defer cancel()
		if err := s.emailSender.SendAppointmentNotice(mailCtx, s.doctorEmail, booking); err != nil {
			s.logger.Warn("send appointment notice failed",
				zap.Error(err), zap.String("booking_id", booking.ID))
		}
	}

	return booking, nil
}

package email

import (
	"context"
	"errors"

	"clinic-api/internal/domain"
)

// Sender define la interfaz para envío de correos transaccionales.
type Sender interface {
	SendConfirmationCode(ctx context.Context, toEmail string, code string) error
	SendAppointmentNotice(ctx context.Context, toEmail string, booking domain.Booking) error
}

type disabledSender struct {
	reason string
}

func NewDisabledSender(reason string) Sender {
	return &disabledSender{reason: reason}
}

func (s *disabledSender) SendConfirmationCode(_ context.Context, _ string, _ string) error {
	return s.err()
}

func (s *disabledSender) SendAppointmentNotice(_ context.Context, _ string, _ domain.Booking) error {
	return s.err()
}

func (s *disabledSender) err() error {
	if s.reason == "" {
		return errors.New("email sender disabled")
	}
	return errors.New(s.reason)
}

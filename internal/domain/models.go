package domain

import "time"

// User representa una cuenta de paciente o doctor en la clínica.
// PasswordHash y ConfirmationCode nunca se serializan en respuestas.
type User struct {
	ID               string    `json:"id"`
	Email            string    `json:"email"`
	FirstName        string    `json:"firstName"`
	LastName         string    `json:"lastName"`
	PasswordHash     string    `json:"-"`
	DateOfBirth      string    `json:"dob"`
	Role             string    `json:"role"`
	ConfirmationCode string    `json:"-"`
	IsConfirmed      bool      `json:"isConfirmed"`
	CreatedAt        time.Time `json:"created_at"`
}

// Booking representa una solicitud de cita médica.
type Booking struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Address    string    `json:"address"`
	Speciality string    `json:"speciality"`
	Date       string    `json:"date"`
	Phone      string    `json:"phone"`
	CreatedAt  time.Time `json:"created_at"`
}

package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"clinic-api/internal/service"
)

// BookingHandler mantiene dependencias para endpoints de citas.
type BookingHandler struct {
	logger      *zap.Logger
	bookingServ *service.BookingService
}

func NewBookingHandler(logger *zap.Logger, bookingServ *service.BookingService) *BookingHandler {
	return &BookingHandler{
		logger:      logger,
		bookingServ: bookingServ,
	}
}

// CreateAppointment maneja POST /appointment.
func (h *BookingHandler) CreateAppointment(c *gin.Context) {
	var req struct {
		Name       string `json:"name"`
		Address    string `json:"address"`
		Speciality string `json:"speciality"`
		Date       string `json:"date"`
		Phone      string `json:"phone"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid appointment request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if field, missing := missingField(
		requiredField{"name", req.Name},
		requiredField{"address", req.Address},
		requiredField{"speciality", req.Speciality},
		requiredField{"date", req.Date},
		requiredField{"phone", req.Phone},
	); missing {
		c.JSON(http.StatusBadRequest, gin.H{"error": field + " cannot be blank"})
		return
	}

	_, err := h.bookingServ.Book(c.Request.Context(), service.BookingInput{
		Name:       req.Name,
		Address:    req.Address,
		Speciality: req.Speciality,
		Date:       req.Date,
		Phone:      req.Phone,
	})
	if err != nil {
		h.logger.Error("book appointment failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not book appointment"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Appointment booked successfully"})
}

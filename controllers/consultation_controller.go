// controllers/consultation_controller.go
package controllers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"agency-backend/config"
	"agency-backend/models"
	"agency-backend/paystack"
	"agency-backend/services"
	"agency-backend/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// durationPrices binds each session length to its fixed price tier. The
// client-submitted cost must match; the amount actually charged is whatever
// the gateway confirms.
var durationPrices = map[string]float64{
	"30 Minutes": 15000,
	"45 Minutes": 35000,
	"60 Minutes": 50000,
}

type CreateConsultationPayload struct {
	FullName          string `json:"fullName"`
	Email             string `json:"email"`
	Company           string `json:"company"`
	Role              string `json:"role"`
	Phone             string `json:"phone"`
	Whatsapp          string `json:"whatsapp"`
	Country           string `json:"country"`
	Location          string `json:"location"`
	Address           string `json:"address"`
	Mode              string `json:"mode"`
	Date              string `json:"date"`
	Time              string `json:"time"`
	Duration          string `json:"duration"`
	Cost              string `json:"cost"`
	ReferenceWebsites string `json:"referenceWebsites"`
	ProjectDetails    string `json:"projectDetails"`
}

type ConsultationPreparedPayload struct {
	ID               uint   `json:"id"`
	ConsultationLink string `json:"consultation_link"`
}

type ReschedulePayload struct {
	ID   uint   `json:"id"`
	Date string `json:"date"`
	Time string `json:"time"`
}

type ConsultationController struct {
	Gateway       *paystack.Client
	Consultations *services.ConsultationService
	Slots         *services.SlotService
	Recon         *services.ReconciliationService
	// SiteURL supplies the public site URL for payment redirects. Injected
	// like every other collaborator so handlers never touch the DB global.
	SiteURL func() string
}

func NewConsultationController(
	gateway *paystack.Client,
	consultations *services.ConsultationService,
	slots *services.SlotService,
	recon *services.ReconciliationService,
) *ConsultationController {
	return &ConsultationController{
		Gateway:       gateway,
		Consultations: consultations,
		Slots:         slots,
		Recon:         recon,
		SiteURL:       siteURLFromSettings,
	}
}

// CreateConsultationBooking validates the form and opens a payment session.
// No booking row is written here; that only happens once the gateway
// confirms the charge.
func (ctrl *ConsultationController) CreateConsultationBooking(c *gin.Context) {
	var payload CreateConsultationPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	if missing := missingRequiredFields(payload); len(missing) > 0 {
		log.Printf("warning: consultation form missing fields: %s", strings.Join(missing, ", "))
		utils.JSONError(c, http.StatusBadRequest,
			fmt.Sprintf("Missing required field(s): %s", strings.Join(missing, ", ")))
		return
	}

	amount, err := parseAmount(payload.Cost)
	if err != nil || amount <= 0 {
		log.Printf("warning: invalid cost value from frontend: %q", payload.Cost)
		utils.JSONError(c, http.StatusBadRequest,
			"Invalid cost value. Please provide a valid number (e.g., 15000).")
		return
	}

	tier, ok := durationPrices[payload.Duration]
	if !ok {
		utils.JSONError(c, http.StatusBadRequest, "Invalid session duration.")
		return
	}
	if amount != tier {
		log.Printf("warning: submitted cost %v does not match %s tier %v", amount, payload.Duration, tier)
		utils.JSONError(c, http.StatusBadRequest,
			"Cost does not match the selected session duration.")
		return
	}

	initReq := paystack.InitializeRequest{
		Email:       payload.Email,
		Amount:      int64(amount * 100),
		CallbackURL: ctrl.callbackURL(),
		Metadata: paystack.Metadata{
			FullName:          payload.FullName,
			Company:           payload.Company,
			Role:              payload.Role,
			Phone:             payload.Phone,
			Whatsapp:          payload.Whatsapp,
			Country:           payload.Country,
			Location:          payload.Location,
			Address:           payload.Address,
			Mode:              payload.Mode,
			Date:              payload.Date,
			Time:              payload.Time,
			Duration:          payload.Duration,
			Cost:              payload.Cost,
			ReferenceWebsites: payload.ReferenceWebsites,
			ProjectDetails:    payload.ProjectDetails,
		},
	}

	data, err := ctrl.Gateway.Initialize(c.Request.Context(), initReq)
	if err != nil {
		var gwErr *paystack.GatewayError
		if errors.As(err, &gwErr) {
			log.Printf("Failed to initialize payment: %v", gwErr)
			utils.JSONError(c, http.StatusBadRequest, gwErr.Message)
			return
		}
		log.Printf("Error initializing payment: %v", err)
		utils.JSONError(c, http.StatusInternalServerError,
			"An error occurred during payment initialization.")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":           true,
		"message":           "Payment initialized successfully. Redirect user to Paystack.",
		"authorization_url": data.AuthorizationURL,
		"reference":         data.Reference,
	})
}

// VerifyTransaction is the redirect-based confirmation fallback. It reports
// gateway state back to the customer and, behind the scenes, performs the
// same idempotent insert the webhook would.
func (ctrl *ConsultationController) VerifyTransaction(c *gin.Context) {
	reference := strings.TrimSpace(c.Query("reference"))
	if reference == "" {
		utils.JSONError(c, http.StatusBadRequest,
			"Transaction reference is required for verification.")
		return
	}

	result, err := ctrl.Recon.VerifyAndReconcile(c.Request.Context(), reference)
	if err != nil {
		if errors.Is(err, services.ErrPaymentNotSuccessful) {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"message": fmt.Sprintf("Transaction status: %s. Please try again.", result.Status),
				"data":    result,
			})
			return
		}
		var gwErr *paystack.GatewayError
		if errors.As(err, &gwErr) {
			utils.JSONError(c, http.StatusBadRequest, gwErr.Message)
			return
		}
		log.Printf("Error verifying transaction %s: %v", reference, err)
		utils.JSONError(c, http.StatusInternalServerError,
			"An internal server error occurred during transaction verification.")
		return
	}

	utils.JSONSuccess(c, http.StatusOK,
		"Your consultation has been successfully booked. A confirmation has been sent to your email. Please check your inbox for updates.",
		result)
}

func (ctrl *ConsultationController) GetConsultationBookings(c *gin.Context) {
	list, err := ctrl.Consultations.ListAll()
	if err != nil {
		log.Printf("Failed to fetch consultation bookings: %v", err)
		utils.JSONError(c, http.StatusInternalServerError,
			"Failed to retrieve consultation bookings.")
		return
	}
	utils.JSONSuccess(c, http.StatusOK, "Consultation bookings retrieved successfully.", list)
}

func (ctrl *ConsultationController) GetAvailableSlots(c *gin.Context) {
	date := strings.TrimSpace(c.Query("date"))
	if date == "" {
		utils.JSONError(c, http.StatusBadRequest, "date query parameter is required")
		return
	}

	slots, err := ctrl.Slots.SlotsForDate(date)
	if err != nil {
		if errors.Is(err, services.ErrInvalidDate) {
			utils.JSONError(c, http.StatusBadRequest, "Invalid date. Use YYYY-MM-DD.")
			return
		}
		log.Printf("Failed to compute slots for %s: %v", date, err)
		utils.JSONError(c, http.StatusInternalServerError, "Failed to compute available slots.")
		return
	}
	utils.JSONSuccess(c, http.StatusOK, "Available slots computed successfully.", slots)
}

func (ctrl *ConsultationController) ConsultationPrepared(c *gin.Context) {
	var payload ConsultationPreparedPayload
	if err := c.ShouldBindJSON(&payload); err != nil || payload.ID == 0 || strings.TrimSpace(payload.ConsultationLink) == "" {
		utils.JSONError(c, http.StatusBadRequest, "Missing consultation ID or consultation link.")
		return
	}

	if err := ctrl.Recon.PrepareConsultation(payload.ID, payload.ConsultationLink); err != nil {
		switch {
		case errors.Is(err, services.ErrNotFound):
			utils.JSONError(c, http.StatusNotFound, "Consultation booking not found.")
		case errors.Is(err, services.ErrIncompleteBooking):
			utils.JSONError(c, http.StatusBadRequest, err.Error())
		case errors.Is(err, services.ErrNotificationFailed):
			log.Printf("Failed to send prepared email for booking %d: %v", payload.ID, err)
			utils.JSONError(c, http.StatusInternalServerError, "Failed to send consultation email.")
		default:
			log.Printf("Error in ConsultationPrepared: %v", err)
			utils.JSONError(c, http.StatusInternalServerError, "Failed to send consultation reply.")
		}
		return
	}

	utils.JSONSuccess(c, http.StatusOK, "Consultation Prepared email sent successfully.", nil)
}

func (ctrl *ConsultationController) RescheduleConsultation(c *gin.Context) {
	var payload ReschedulePayload
	if err := c.ShouldBindJSON(&payload); err != nil || payload.ID == 0 ||
		strings.TrimSpace(payload.Date) == "" || strings.TrimSpace(payload.Time) == "" {
		utils.JSONError(c, http.StatusBadRequest, "Missing consultation ID, date, or time.")
		return
	}

	result, err := ctrl.Recon.Reschedule(payload.ID, payload.Date, payload.Time)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			utils.JSONError(c, http.StatusNotFound, "Consultation booking not found.")
			return
		}
		log.Printf("Error rescheduling booking %d: %v", payload.ID, err)
		utils.JSONError(c, http.StatusInternalServerError,
			"An internal server error occurred while updating the consultation booking.")
		return
	}

	if result.EmailErr != nil {
		c.JSON(http.StatusOK, gin.H{
			"success":    true,
			"message":    "Consultation booking updated, but failed to send reschedule email.",
			"emailError": result.EmailErr.Error(),
		})
		return
	}

	utils.JSONSuccess(c, http.StatusOK,
		"Consultation booking updated and reschedule email sent successfully.", nil)
}

func missingRequiredFields(p CreateConsultationPayload) []string {
	required := []struct {
		name  string
		value string
	}{
		{"fullName", p.FullName},
		{"email", p.Email},
		{"company", p.Company},
		{"role", p.Role},
		{"phone", p.Phone},
		{"country", p.Country},
		{"location", p.Location},
		{"address", p.Address},
		{"mode", p.Mode},
		{"date", p.Date},
		{"time", p.Time},
		{"duration", p.Duration},
		{"cost", p.Cost},
	}

	missing := make([]string, 0)
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	return missing
}

// parseAmount strips currency formatting ("₦15,000") before parsing.
func parseAmount(raw string) (float64, error) {
	cleaned := strings.NewReplacer("₦", "", ",", "", " ", "").Replace(strings.TrimSpace(raw))
	return strconv.ParseFloat(cleaned, 64)
}

// callbackURL builds the post-payment redirect target from the configured
// site URL. The gateway appends ?reference=... itself.
func (ctrl *ConsultationController) callbackURL() string {
	if ctrl.SiteURL == nil {
		return ""
	}
	site := strings.TrimRight(strings.TrimSpace(ctrl.SiteURL()), "/")
	if site == "" {
		return ""
	}
	return site + "/book-a-consultation"
}

func siteURLFromSettings() string {
	var settings models.WebsiteSetting
	if err := config.DB.First(&settings).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("warning: failed to load website settings: %v", err)
		}
		return ""
	}
	return settings.SiteURL
}

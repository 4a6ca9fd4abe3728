package controllers

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"agency-backend/paystack"

	"github.com/gin-gonic/gin"
)

// ChargeReconciler is what the webhook hands verified events to.
type ChargeReconciler interface {
	ProcessChargeSuccess(event paystack.Event, sourceIP string) error
}

type WebhookController struct {
	Verifier *paystack.Verifier
	Recon    ChargeReconciler
}

func NewWebhookController(verifier *paystack.Verifier, recon ChargeReconciler) *WebhookController {
	return &WebhookController{Verifier: verifier, Recon: recon}
}

// HandlePaystackWebhook authenticates the callback and acknowledges it
// before reconciliation runs, so the gateway's retry timer never waits on
// our database or SMTP. The signature is computed over the raw body bytes
// exactly as received.
func (ctrl *WebhookController) HandlePaystackWebhook(c *gin.Context) {
	rawBody, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Unable to read request body"})
		return
	}

	sourceIP := c.ClientIP()
	signature := c.GetHeader("X-Paystack-Signature")

	if err := ctrl.Verifier.Verify(rawBody, signature, sourceIP); err != nil {
		if errors.Is(err, paystack.ErrUntrustedSource) {
			log.Printf("warning: webhook from unauthorized IP: %s", sourceIP)
			c.JSON(http.StatusForbidden, gin.H{"success": false, "message": "Forbidden: Invalid source IP"})
			return
		}
		log.Printf("warning: invalid Paystack signature from %s", sourceIP)
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Invalid signature"})
		return
	}

	var event paystack.Event
	if err := json.Unmarshal(rawBody, &event); err != nil {
		// authenticated but unparseable; retrying will not help the gateway
		log.Printf("warning: unparseable webhook body from %s: %v", sourceIP, err)
		c.String(http.StatusOK, "Webhook received")
		return
	}

	// ack first, reconcile after
	c.String(http.StatusOK, "Webhook received")

	go func() {
		if err := ctrl.Recon.ProcessChargeSuccess(event, sourceIP); err != nil {
			log.Printf("Webhook reconciliation failed for %s: %v", event.Data.Reference, err)
		}
	}()
}

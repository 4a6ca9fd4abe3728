package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"agency-backend/config"
	"agency-backend/controllers"
	"agency-backend/paystack"
	"agency-backend/routes"
	"agency-backend/services"
	"agency-backend/utils"
)

func main() {
	// Load .env (optional)
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  .env not found or couldn't load it; continuing with environment variables")
	}

	// Gateway credentials are required; nothing works without them
	paystackCfg, err := config.LoadPaystackConfig()
	if err != nil {
		log.Fatalf("❌ ERROR: %v. Cannot initialize payment gateway.", err)
	}
	log.Println("✅ Paystack configuration loaded.")

	if err := config.ConnectDatabase(); err != nil {
		log.Fatalf("❌ Database connect failed: %v", err)
	}
	db := config.DB
	if db == nil {
		log.Fatal("❌ config.DB is nil after ConnectDatabase()")
	}
	log.Println("✅ Database connection established and migrations applied.")

	gateway := paystack.NewClient(paystackCfg.BaseURL, paystackCfg.SecretKey)
	verifier := paystack.NewVerifier(paystackCfg.WebhookSecret, paystackCfg.WebhookIPs)
	mailer := utils.NewSMTPMailerFromEnv()

	// Initialize services
	consultationService := services.NewConsultationService(db)
	slotService := services.NewSlotService(db)
	webhookEventService := services.NewWebhookEventService(db)
	reconService := services.NewReconciliationService(
		consultationService,
		webhookEventService,
		mailer,
		gateway,
		os.Getenv("ADMIN_EMAIL"),
	)

	// Initialize controllers
	consultationController := controllers.NewConsultationController(
		gateway, consultationService, slotService, reconService,
	)
	webhookController := controllers.NewWebhookController(verifier, reconService)

	router := routes.SetupRouter(consultationController, webhookController)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	addr := ":" + port

	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("🚀 Server starting on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ ListenAndServe(): %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Println("⚠️  Shutdown signal received, shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("❌ Server forced to shutdown: %v", err)
	}

	log.Println("✅ Server stopped gracefully")
}

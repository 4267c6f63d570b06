package main

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"stitchworks/internal/database"
	"stitchworks/internal/domain/auth"
	"stitchworks/internal/domain/notification"
)

func main() {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		dsn = "stitchworks.db"
	}

	db, err := database.Connect(dsn)
	if err != nil {
		log.Fatal().Err(err).Msg("db connection failed")
	}

	log.Info().Msg("running AutoMigrate")
	if err := db.AutoMigrate(&auth.User{}, &notification.Notification{}); err != nil {
		log.Fatal().Err(err).Msg("AutoMigrate failed")
	}

	log.Info().Msg("cleaning old data")
	db.Exec("DELETE FROM notifications")
	db.Exec("DELETE FROM users")

	log.Info().Msg("creating users")
	adminHash, _ := auth.HashPassword("admin123")
	admin := auth.User{
		ID:           uuid.NewString(),
		Email:        "admin@stitchworks.test",
		Name:         "Factory Admin",
		PasswordHash: adminHash,
		Role:         auth.RoleSuperAdmin,
		CreatedAt:    time.Now().UTC(),
	}
	if err := db.Create(&admin).Error; err != nil {
		log.Fatal().Err(err).Msg("create admin")
	}

	customerHash, _ := auth.HashPassword("customer123")
	customer := auth.User{
		ID:           uuid.NewString(),
		Email:        "customer@stitchworks.test",
		Name:         "Sample Customer",
		PasswordHash: customerHash,
		Role:         auth.RoleCustomer,
		CreatedAt:    time.Now().UTC(),
	}
	if err := db.Create(&customer).Error; err != nil {
		log.Fatal().Err(err).Msg("create customer")
	}

	log.Info().Msg("creating notifications")
	orderA := "ORD-2031"
	orderB := "ORD-2030"
	enquiry := "ENQ-0412"
	request := "REQ-0098"

	samples := []notification.Notification{
		{
			Type:    notification.TypeNewOrder,
			Title:   "New Order",
			Message: fmt.Sprintf("Order %s from Ada Obi - Polo Shirt x250", orderA),
			OrderID: &orderA,
		},
		{
			Type:    notification.TypePaymentSubmitted,
			Title:   "Payment Submitted",
			Message: fmt.Sprintf("Payment submitted for order %s by Ada Obi", orderA),
			OrderID: &orderA,
		},
		{
			Type:    notification.TypePaymentProofUploaded,
			Title:   "Payment Proof Uploaded",
			Message: fmt.Sprintf("Payment proof uploaded for order %s", orderB),
			OrderID: &orderB,
		},
		{
			Type:    notification.TypeLowStock,
			Title:   "Low Stock Alert",
			Message: "Plain White Tee (L) is running low: 12 remaining",
		},
		{
			Type:    notification.TypeCustomRequest,
			Title:   "New Custom Tailoring Request",
			Message: fmt.Sprintf("Custom request %s from Bode Ayeni", request),
			OrderID: &request,
		},
		{
			Type:    notification.TypeNewEnquiry,
			Title:   "New Custom Order Enquiry",
			Message: fmt.Sprintf("New enquiry %s from Chidinma Eze - Agbada x4", enquiry),
			OrderID: &enquiry,
		},
	}

	for i := range samples {
		samples[i].ID = uuid.NewString()
		samples[i].Read = i%3 == 2 // a few already read
		samples[i].CreatedAt = time.Now().UTC().Add(-time.Duration(len(samples)-i) * time.Hour)
		if err := db.Create(&samples[i]).Error; err != nil {
			log.Fatal().Err(err).Msg("create notification")
		}
	}

	log.Info().
		Str("admin", admin.Email).
		Int("notifications", len(samples)).
		Msg("seed complete")
}

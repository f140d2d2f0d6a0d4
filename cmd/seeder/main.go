package main

import (
	"fmt"
	"log"
	"time"

	"github.com/adityarh/antarin/internal/config"
	"github.com/adityarh/antarin/internal/model"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func main() {
	cfg := config.Load()

	// Force DB logging off to avoid noise
	db, err := gorm.Open(postgres.Open(cfg.DB.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	log.Println("✅ Connected to Database")

	// Common password for all seeded accounts
	password := "password123"
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("❌ Failed to hash password: %v", err)
	}

	seedAdmin(db, string(hashedPassword), password)
	seedRiders(db, string(hashedPassword), password)
	seedDrivers(db, string(hashedPassword), password)

	log.Println("🎉 Seeding completed!")
}

func seedAdmin(db *gorm.DB, hashed, plain string) {
	email := "ops@antarin.id"
	phone := "+628110000001"

	var existing model.User
	if err := db.Where("phone = ?", phone).First(&existing).Error; err == nil {
		return
	}

	now := time.Now()
	admin := model.User{
		ID:              uuid.New(),
		Name:            "Antarin Ops",
		Phone:           phone,
		Email:           &email,
		Password:        hashed,
		Role:            model.RoleAdmin,
		AuthProvider:    model.AuthProviderPhone,
		PhoneVerifiedAt: &now,
		RequireOTP:      true, // operators always step up with a code
	}
	if err := db.Create(&admin).Error; err != nil {
		log.Printf("❌ Failed to create admin: %v", err)
		return
	}
	log.Printf("✅ Created admin: %s | Phone: %s | Pass: %s", email, phone, plain)
}

func seedRiders(db *gorm.DB, hashed, plain string) {
	log.Println("🌱 Seeding 5 riders...")

	for i := 1; i <= 5; i++ {
		phone := fmt.Sprintf("+62812000000%d", i)

		var existing model.User
		if err := db.Where("phone = ?", phone).First(&existing).Error; err == nil {
			continue
		}

		now := time.Now()
		rider := model.User{
			ID:              uuid.New(),
			Name:            fmt.Sprintf("Rider %d", i),
			Phone:           phone,
			Password:        hashed,
			Role:            model.RoleRider,
			AuthProvider:    model.AuthProviderPhone,
			PhoneVerifiedAt: &now, // verified immediately
		}
		if err := db.Create(&rider).Error; err != nil {
			log.Printf("❌ Failed to create rider %d: %v", i, err)
			continue
		}

		// Open a funded wallet so demo orders settle
		wallet := model.Wallet{UserID: rider.ID, Balance: 100_000}
		if err := db.Create(&wallet).Error; err != nil {
			log.Printf("❌ Failed to create wallet for rider %d: %v", i, err)
		}

		log.Printf("✅ Created rider: %s | Phone: %s | Pass: %s | Coins: %d", rider.Name, phone, plain, wallet.Balance)
	}
}

func seedDrivers(db *gorm.DB, hashed, plain string) {
	log.Println("🌱 Seeding 3 approved drivers...")

	vehicles := []model.VehicleType{model.VehicleMotorbike, model.VehicleMotorbike, model.VehicleCar}

	for i := 1; i <= 3; i++ {
		phone := fmt.Sprintf("+62813000000%d", i)

		var existing model.User
		if err := db.Where("phone = ?", phone).First(&existing).Error; err == nil {
			continue
		}

		now := time.Now()
		driver := model.User{
			ID:              uuid.New(),
			Name:            fmt.Sprintf("Driver %d", i),
			Phone:           phone,
			Password:        hashed,
			Role:            model.RoleDriver,
			AuthProvider:    model.AuthProviderPhone,
			PhoneVerifiedAt: &now,
		}
		if err := db.Create(&driver).Error; err != nil {
			log.Printf("❌ Failed to create driver %d: %v", i, err)
			continue
		}

		profile := model.DriverProfile{
			UserID:        driver.ID,
			VehicleType:   vehicles[i-1],
			VehiclePlate:  fmt.Sprintf("B %d234 ABC", i),
			LicenseNumber: fmt.Sprintf("SIM-%04d-%04d", i, i*1111),
			Status:        model.DriverStatusApproved,
			IsAvailable:   true, // online and ready for dispatch
		}
		if err := db.Create(&profile).Error; err != nil {
			log.Printf("❌ Failed to create driver profile %d: %v", i, err)
			continue
		}

		wallet := model.Wallet{UserID: driver.ID, Balance: 0}
		if err := db.Create(&wallet).Error; err != nil {
			log.Printf("❌ Failed to create wallet for driver %d: %v", i, err)
		}

		log.Printf("✅ Created driver: %s | Phone: %s | Pass: %s | Vehicle: %s", driver.Name, phone, plain, profile.VehicleType)
	}
}

// Package main seeds a development database with custodians, channels,
// bank circuits and branch records so the router has something to work with.
package main

import (
	"log"

	"upiroute/internal/config"
	"upiroute/internal/models"
	"upiroute/internal/repositories"
)

func main() {
	config.LoadEnv()

	if err := repositories.InitDB(); err != nil {
		log.Fatal("Failed to initialize database:", err)
	}
	defer func() {
		if repositories.DB != nil {
			sqlDB, err := repositories.DB.DB()
			if err != nil {
				log.Printf("⚠️ Failed to get SQL DB instance: %v", err)
			} else if err := sqlDB.Close(); err != nil {
				log.Printf("⚠️ Failed to close PostgreSQL connection: %v", err)
			}
		}
		if repositories.CacheService != nil {
			if err := repositories.CacheService.Close(); err != nil {
				log.Printf("⚠️ Failed to close Redis connection: %v", err)
			}
		}
	}()

	var count int64
	repositories.DB.Model(&models.Custodian{}).Count(&count)
	if count > 0 {
		log.Println("Database already seeded")
		return
	}

	custodians := []models.Custodian{
		{Name: "Sharma Holdings", Active: true},
		{Name: "Verma Trading Co", Active: true},
		{Name: "Iyer Enterprises", Active: true},
	}
	if err := repositories.DB.Create(&custodians).Error; err != nil {
		log.Fatal("Failed to seed custodians:", err)
	}

	channels := []models.Channel{
		{
			CustodianID: custodians[0].ID, BankName: "HDFC", BranchCode: "HDFC0000240",
			VPA: "sharma.collect@okhdfcbank", DailyLimit: 200000,
			AmountTier: models.TierSmall, MinAmount: 100, MaxAmount: 2000,
			GeoCity: "Mumbai", GeoState: "Maharashtra",
			PerformanceMultiplier: 1, SuccessRatePct: 100, Status: models.ChannelStatusActive,
		},
		{
			CustodianID: custodians[0].ID, BankName: "ICICI", BranchCode: "ICIC0001124",
			VPA: "sharma.biz@icici", DailyLimit: 500000,
			AmountTier: models.TierMedium, MinAmount: 1000, MaxAmount: 20000,
			GeoCity: "Mumbai", GeoState: "Maharashtra",
			PerformanceMultiplier: 1, SuccessRatePct: 100, Status: models.ChannelStatusActive,
		},
		{
			CustodianID: custodians[1].ID, BankName: "SBI", BranchCode: "SBIN0005943",
			VPA: "verma.pay@sbi", DailyLimit: 300000,
			AmountTier: models.TierMedium, MinAmount: 500, MaxAmount: 10000,
			GeoCity: "Delhi", GeoState: "Delhi",
			PerformanceMultiplier: 1, SuccessRatePct: 100, Status: models.ChannelStatusActive,
		},
		{
			CustodianID: custodians[1].ID, BankName: "AXIS", BranchCode: "UTIB0000007",
			VPA: "verma.trade@axisbank", DailyLimit: 1000000,
			AmountTier: models.TierLarge, MinAmount: 10000, MaxAmount: 100000,
			GeoCity: "Delhi", GeoState: "Delhi",
			PerformanceMultiplier: 1, SuccessRatePct: 100, Status: models.ChannelStatusActive,
		},
		{
			CustodianID: custodians[2].ID, BankName: "HDFC", BranchCode: "HDFC0001522",
			VPA: "iyer.collect@okhdfcbank", DailyLimit: 400000,
			AmountTier: models.TierMedium, MinAmount: 500, MaxAmount: 15000,
			GeoCity: "Chennai", GeoState: "Tamil Nadu",
			PerformanceMultiplier: 1, SuccessRatePct: 100, Status: models.ChannelStatusActive,
		},
	}
	if err := repositories.DB.Create(&channels).Error; err != nil {
		log.Fatal("Failed to seed channels:", err)
	}

	circuits := []models.BankCircuit{
		{BankName: "HDFC", State: models.CircuitClosed},
		{BankName: "ICICI", State: models.CircuitClosed},
		{BankName: "SBI", State: models.CircuitClosed},
		{BankName: "AXIS", State: models.CircuitClosed},
	}
	if err := repositories.DB.Create(&circuits).Error; err != nil {
		log.Fatal("Failed to seed bank circuits:", err)
	}

	branches := []models.BankBranch{
		{BranchCode: "HDFC0000240", BankName: "HDFC", City: "Mumbai", State: "Maharashtra"},
		{BranchCode: "ICIC0001124", BankName: "ICICI", City: "Mumbai", State: "Maharashtra"},
		{BranchCode: "SBIN0005943", BankName: "SBI", City: "Delhi", State: "Delhi"},
		{BranchCode: "UTIB0000007", BankName: "AXIS", City: "Delhi", State: "Delhi"},
		{BranchCode: "HDFC0001522", BankName: "HDFC", City: "Chennai", State: "Tamil Nadu"},
	}
	if err := repositories.DB.Create(&branches).Error; err != nil {
		log.Fatal("Failed to seed bank branches:", err)
	}

	log.Println("✅ Seed data created successfully!")
}

package cmd

import (
	"fmt"
	"log"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	gormPostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with sample accounts and profiles for development and testing purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		sqlxDB, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		db, err := gorm.Open(gormPostgres.New(gormPostgres.Config{Conn: sqlxDB.DB}), &gorm.Config{})
		if err != nil {
			log.Fatalf("failed to open gorm connection: %v", err)
		}

		if clearData {
			for _, table := range []string{"security_events", "approval_requests", "profiles", "users"} {
				if err := db.Exec("DELETE FROM " + table).Error; err != nil {
					log.Fatalf("failed to clear %s: %v", table, err)
				}
			}
			fmt.Println("Cleared existing data")
		}

		hash, _ := bcrypt.GenerateFromPassword([]byte("Str0ng&Secure!"), bcrypt.DefaultCost)

		seedUser(db, seedAccount{
			Username:  "tariro",
			Email:     "tariro@example.com",
			FirstName: "Tariro",
			LastName:  "Moyo",
			UserType:  "customer",
			Phone:     "+263771234567",
			Address:   "12 Samora Machel Ave, Harare",
			Hash:      string(hash),
		})

		seedUser(db, seedAccount{
			Username:  "tendai",
			Email:     "tendai@example.com",
			FirstName: "Tendai",
			LastName:  "Chikore",
			UserType:  "blogger",
			Phone:     "0772345678",
			Address:   "4 Second St, Bulawayo",
			Hash:      string(hash),
		})

		seedUser(db, seedAccount{
			Username:  "admin",
			Email:     "admin@blitztechelectronics.co.zw",
			FirstName: "Rudo",
			LastName:  "Ncube",
			UserType:  "employee",
			Phone:     "263773456789",
			IsStaff:   true,
			Hash:      string(hash),
		})
	},
}

type seedAccount struct {
	Username  string
	Email     string
	FirstName string
	LastName  string
	UserType  string
	Phone     string
	Address   string
	IsStaff   bool
	Hash      string
}

func seedUser(db *gorm.DB, acct seedAccount) {
	var exists int
	row := db.Raw("SELECT 1 FROM users WHERE username = ?", acct.Username).Row()
	if err := row.Scan(&exists); err == nil {
		fmt.Printf("user %s already exists, skipping\n", acct.Username)
		return
	}

	now := time.Now()
	if err := db.Exec(
		`INSERT INTO users (username, email, first_name, last_name, password_hash, is_active, is_staff, failed_login_count, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, true, ?, 0, ?, ?)`,
		acct.Username, acct.Email, acct.FirstName, acct.LastName, acct.Hash, acct.IsStaff, now, now,
	).Error; err != nil {
		log.Fatalf("failed to insert user %s: %v", acct.Username, err)
	}

	var userID int64
	if err := db.Raw("SELECT id FROM users WHERE username = ?", acct.Username).Row().Scan(&userID); err != nil {
		log.Fatalf("failed to read back user %s: %v", acct.Username, err)
	}

	completed := acct.FirstName != "" && acct.Phone != "" && (acct.Address != "" || acct.UserType == "employee")
	if err := db.Exec(
		`INSERT INTO profiles (user_id, user_type, phone, address, profile_completed, approvals, social_provider, marketing_emails, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, 'manual', false, ?, ?)`,
		userID, acct.UserType, acct.Phone, acct.Address, completed, `{"shop":true,"crm":false,"blog":false}`, now, now,
	).Error; err != nil {
		log.Fatalf("failed to insert profile for %s: %v", acct.Username, err)
	}

	fmt.Printf("Seeded %s user: %s\n", acct.UserType, acct.Email)
}

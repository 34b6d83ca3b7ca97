// Migration script to hash plain-text passwords left in users.crypted_password
// cmd/migrate-passwords/main.go
package main

import (
	"flag"
	"log"

	"assignment-management-api/config"
	"assignment-management-api/models"
	"assignment-management-api/utils"

	"github.com/joho/godotenv"
)

func main() {
	// Load .env
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	dryRun := flag.Bool("dry-run", false, "report the accounts that would be migrated")
	flag.Parse()

	config.InitDB()

	var users []models.User
	if err := config.DB.Where("deleted_at IS NULL").Find(&users).Error; err != nil {
		log.Fatal("Failed to fetch users:", err)
	}

	migrated, weak := 0, 0
	for _, user := range users {
		if user.CryptedPassword == "" || utils.IsPasswordHashed(user.CryptedPassword) {
			continue
		}
		if ok, reason := utils.ValidatePassword(user.CryptedPassword); !ok {
			weak++
			log.Printf("Weak password for user %s: %s; ask them to reset it", user.Name, reason)
		}
		if *dryRun {
			log.Printf("Would hash password for user %s", user.Name)
			continue
		}

		hashedPassword, err := utils.HashPassword(user.CryptedPassword)
		if err != nil {
			log.Printf("Failed to hash password for user %s: %v\n", user.Name, err)
			continue
		}

		if err := config.DB.Model(&models.User{}).Where("id = ?", user.ID).
			Update("crypted_password", hashedPassword).Error; err != nil {
			log.Printf("Failed to update password for user %s: %v\n", user.Name, err)
			continue
		}
		migrated++
	}

	log.Printf("Password migration completed: %d of %d account(s) updated, %d weak", migrated, len(users), weak)
}

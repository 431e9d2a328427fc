package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"golang.org/x/crypto/bcrypt"

	"crowdwatch/internal/model"
	"crowdwatch/internal/repository/sqlite"
)

func main() {
	dbPath := flag.String("db", filepath.Join("data", "crowdwatch.db"), "Database path")
	email := flag.String("email", "", "Seed account email (optional)")
	username := flag.String("username", "admin", "Seed account username")
	password := flag.String("password", "", "Seed account password")
	flag.Parse()

	if err := os.MkdirAll(filepath.Dir(*dbPath), 0755); err != nil {
		log.Fatalf("Failed to create database directory: %v", err)
	}

	db, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	fmt.Printf("Schema applied to %s\n", *dbPath)

	if *email == "" {
		return
	}
	if *password == "" {
		log.Fatal("Seeding an account requires -password")
	}

	users := sqlite.NewUserRepository(db)
	if _, err := users.GetByEmail(*email); err == nil {
		fmt.Printf("Account %s already exists, skipping seed\n", *email)
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(*password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}

	id, err := users.Insert(&model.User{
		Username:     *username,
		Email:        *email,
		PasswordHash: string(hashed),
	})
	if err != nil {
		log.Fatalf("Failed to seed account: %v", err)
	}

	fmt.Printf("Seeded account %s (id %d)\n", *email, id)
}

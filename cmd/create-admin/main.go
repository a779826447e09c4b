package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"

	"github.com/crecheapp/creche-backend/internal/config"
	"github.com/crecheapp/creche-backend/internal/database"
	"github.com/crecheapp/creche-backend/internal/logger"
	"github.com/crecheapp/creche-backend/internal/model"
	"github.com/crecheapp/creche-backend/internal/repository"
	"github.com/crecheapp/creche-backend/internal/service"
	"golang.org/x/term"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx := context.Background()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Initialize Services ───────────────────────────────────────────
	institutionRepo := repository.NewInstitutionRepository(pool)
	profileRepo := repository.NewProfileRepository(pool)
	studentRepo := repository.NewStudentRepository(pool)
	authService := service.NewAuthService(cfg, nil, profileRepo, log)
	profileService := service.NewProfileService(repository.NewTransactor(pool), profileRepo, studentRepo, authService, log)

	// ─── CLI Input ─────────────────────────────────────────────────────
	reader := bufio.NewReader(os.Stdin)

	fmt.Println("=== Create Institution Administrator ===")

	// Institution
	fmt.Print("Enter Institution ID (empty to create a new one): ")
	idStr, _ := reader.ReadString('\n')
	idStr = strings.TrimSpace(idStr)

	var institution *model.Institution
	if idStr != "" {
		id, err := strconv.Atoi(idStr)
		if err != nil {
			fmt.Println("Error: Institution ID must be a number")
			return
		}
		institution, err = institutionRepo.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				fmt.Printf("Error: Institution %d not found\n", id)
				return
			}
			log.Fatal().Err(err).Msg("Failed to load institution")
		}
	} else {
		fmt.Print("Enter Institution Name: ")
		name, _ := reader.ReadString('\n')
		name = strings.TrimSpace(name)
		if name == "" {
			fmt.Println("Error: Institution name is required")
			return
		}
		institution = &model.Institution{Name: name}
		if err := institutionRepo.Create(ctx, institution); err != nil {
			log.Fatal().Err(err).Msg("Failed to create institution")
		}
		fmt.Printf("Created institution '%s' with ID: %d\n", institution.Name, institution.ID)
	}

	// Name
	fmt.Print("Enter Name: ")
	name, _ := reader.ReadString('\n')
	name = strings.TrimSpace(name)
	if name == "" {
		fmt.Println("Error: Name is required")
		return
	}

	// Email
	fmt.Print("Enter Email: ")
	email, _ := reader.ReadString('\n')
	email = strings.TrimSpace(email)
	if email == "" {
		fmt.Println("Error: Email is required")
		return
	}

	// Password
	fmt.Print("Enter Password: ")
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		fmt.Println("\nError reading password")
		return
	}
	password := string(bytePassword)
	fmt.Println() // Newline after password input
	if len(password) < 6 {
		fmt.Println("Error: Password must be at least 6 characters")
		return
	}

	// ─── Logic ─────────────────────────────────────────────────────────
	viewer := model.Viewer{InstitutionID: institution.ID, Role: model.RoleAdmin}
	admin, err := profileService.Create(ctx, viewer, &model.CreateProfileRequest{
		Name:     name,
		Email:    email,
		Role:     model.RoleAdmin,
		Password: password,
	})
	if err != nil {
		if errors.Is(err, service.ErrEmailTaken) {
			fmt.Printf("Error: Email %s is already registered\n", email)
			return
		}
		log.Fatal().Err(err).Msg("Failed to create admin")
	}

	fmt.Printf("\nSuccess! Admin '%s' (%s) created with ID: %d\n", admin.Name, admin.Email, admin.ID)
}

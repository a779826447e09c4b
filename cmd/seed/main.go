package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/crecheapp/creche-backend/internal/config"
	"github.com/crecheapp/creche-backend/internal/database"
	"github.com/crecheapp/creche-backend/internal/logger"
	"github.com/crecheapp/creche-backend/internal/model"
	"github.com/crecheapp/creche-backend/internal/repository"
	"github.com/crecheapp/creche-backend/internal/service"
)

type seedClass struct {
	name     string
	ageGroup string
	shift    model.Shift
	capacity int
	ageYears int
}

var classes = []seedClass{
	{"Berçário A", "0 a 1 ano", model.ShiftFullDay, 12, 0},
	{"Maternal I", "1 a 2 anos", model.ShiftMorning, 15, 1},
	{"Maternal II", "2 a 3 anos", model.ShiftAfternoon, 18, 2},
	{"Pré I", "4 anos", model.ShiftFullDay, 20, 4},
}

var firstNames = []string{
	"Ana", "Bruno", "Carla", "Davi", "Elisa", "Felipe", "Gabriela", "Heitor",
	"Isabela", "João", "Laura", "Miguel", "Natália", "Otávio", "Pietra", "Rafael",
	"Sofia", "Theo", "Valentina", "Yuri",
}

var lastNames = []string{"Silva", "Souza", "Oliveira", "Santos", "Pereira", "Costa", "Almeida", "Ribeiro"}

func main() {
	var institutionID, perClass int
	flag.IntVar(&institutionID, "institution", 1, "Institution ID to seed")
	flag.IntVar(&perClass, "students", 8, "Students per class")
	flag.Parse()

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	tx := repository.NewTransactor(pool)
	profileRepo := repository.NewProfileRepository(pool)
	classRepo := repository.NewClassRepository(pool)
	studentRepo := repository.NewStudentRepository(pool)

	if _, err := repository.NewInstitutionRepository(pool).GetByID(ctx, institutionID); err != nil {
		log.Fatal().Err(err).Int("institution_id", institutionID).Msg("Institution not found, run create-admin first")
	}

	authService := service.NewAuthService(cfg, nil, profileRepo, log)
	classService := service.NewClassService(classRepo, profileRepo)
	studentService := service.NewStudentService(tx, studentRepo, classRepo, profileRepo, authService, log)

	viewer := model.Viewer{InstitutionID: institutionID, Role: model.RoleAdmin}

	existing, err := classService.List(ctx, viewer)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to list classes")
	}
	byName := make(map[string]int, len(existing))
	for _, c := range existing {
		byName[c.Name] = c.ID
	}

	fmt.Printf("=== Seeding %d classes with %d students each ===\n", len(classes), perClass)

	today := time.Now()
	seq := 0
	for _, sc := range classes {
		classID, ok := byName[sc.name]
		if !ok {
			c, err := classService.Create(ctx, viewer, &model.ClassRequest{
				Name:     sc.name,
				AgeGroup: sc.ageGroup,
				Shift:    sc.shift,
				Capacity: sc.capacity,
			})
			if err != nil {
				log.Fatal().Err(err).Str("class", sc.name).Msg("Failed to create class")
			}
			classID = c.ID
			fmt.Printf("Created class %s with ID: %d\n", sc.name, classID)
		} else {
			fmt.Printf("Found existing class %s with ID: %d\n", sc.name, classID)
		}

		for i := 0; i < perClass && i < sc.capacity; i++ {
			first := firstNames[seq%len(firstNames)]
			last := lastNames[seq%len(lastNames)]
			seq++

			gender := model.GenderFemale
			if seq%2 == 0 {
				gender = model.GenderMale
			}
			birth := today.AddDate(-sc.ageYears, -(seq % 11), -(seq % 27))

			st, err := studentService.Create(ctx, viewer, &model.StudentRequest{
				Name:      first + " " + last,
				BirthDate: birth.Format(model.DateLayout),
				Gender:    gender,
				ClassID:   &classID,
			})
			if err != nil {
				if errors.Is(err, service.ErrClassFull) {
					fmt.Printf("Class %s is full, skipping\n", sc.name)
					break
				}
				log.Fatal().Err(err).Msg("Failed to create student")
			}

			email := fmt.Sprintf("resp.%s.%d@example.com", strings.ToLower(last), st.ID)
			res, err := studentService.LinkGuardian(ctx, viewer, st.ID, &model.LinkGuardianRequest{
				Name:                 "Responsável " + last,
				Email:                email,
				Password:             "password123",
				Relationship:         "Mãe",
				FinancialResponsible: true,
			})
			if err != nil {
				log.Fatal().Err(err).Int("student_id", st.ID).Msg("Failed to link guardian")
			}
			fmt.Printf("  %s (ID %d) -> guardian %s (ID %d)\n", st.Name, st.ID, email, res.Guardian.ProfileID)
		}
	}

	fmt.Println("Seeding completed. Guardian password: password123")
}

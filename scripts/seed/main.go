package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/election-survey-api/internal/models"
	"github.com/noah-isme/election-survey-api/pkg/config"
	"github.com/noah-isme/election-survey-api/pkg/database"
	"github.com/noah-isme/election-survey-api/pkg/logger"
)

// seedNamespace derives stable ids so re-running the seed never duplicates rows.
var seedNamespace = uuid.MustParse("6f1c3f1e-8a8e-4a53-9d43-2d0a6f8a51c4")

type seedUser struct {
	Username string
	Password string
	Name     string
	Email    string
	Role     models.UserRole
}

type seedRegion struct {
	Name        string
	Description string
	Lat, Lng    float64
}

type seedQuestion struct {
	Text    string
	Options []string
}

var (
	seedUsers = []seedUser{
		{Username: "admin", Password: "admin123", Name: "Administrator", Email: "admin@example.com", Role: models.RoleAdmin},
		{Username: "researcher", Password: "researcher123", Name: "Maria Silva", Email: "maria@example.com", Role: models.RoleResearcher},
	}

	seedRegions = []seedRegion{
		{Name: "Centro", Description: "Região central da cidade", Lat: -23.5505, Lng: -46.6333},
		{Name: "Liberdade", Description: "Bairro da Liberdade", Lat: -23.5475, Lng: -46.6361},
		{Name: "Vila Madalena", Description: "Região da Vila Madalena", Lat: -23.5329, Lng: -46.6395},
	}

	seedQuestions = []seedQuestion{
		{
			Text: "Se as eleições fossem hoje, em quem você votaria para prefeito?",
			Options: []string{
				"Candidato A - João Silva",
				"Candidato B - Maria Santos",
				"Candidato C - Pedro Oliveira",
				"Nulo/Branco",
				"Não sei/Não opinou",
			},
		},
		{Text: "Como você avalia a gestão atual do prefeito?", Options: []string{"Ótima", "Boa", "Regular", "Ruim", "Péssima"}},
		{Text: "Qual é a principal prioridade para a cidade?", Options: []string{"Saúde", "Educação", "Segurança", "Transporte", "Habitação"}},
	}
)

func main() {
	var schemaPath string
	flag.StringVar(&schemaPath, "schema", "", "Optional SQL schema file applied before seeding (e.g. migrations/0001_init.sql)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	if schemaPath != "" {
		schema, err := os.ReadFile(schemaPath)
		if err != nil {
			logr.Fatal("failed to read schema", zap.String("path", schemaPath), zap.Error(err))
		}
		if _, err := db.ExecContext(ctx, string(schema)); err != nil {
			logr.Fatal("failed to apply schema", zap.Error(err))
		}
		logr.Info("schema applied", zap.String("path", schemaPath))
	}

	if err := seed(ctx, db, logr); err != nil {
		logr.Fatal("seeding failed", zap.Error(err))
	}
	logr.Info("database seeded", zap.String("admin", "admin/admin123"), zap.String("researcher", "researcher/researcher123"))
}

func seed(ctx context.Context, db *sqlx.DB, logr *zap.Logger) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	ids := make(map[string]string, len(seedUsers))
	for _, u := range seedUsers {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hash password for %s: %w", u.Username, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO users (id, username, email, password_hash, role, name, created_at)
VALUES ($1, $2, $3, $4, $5, $6, NOW()) ON CONFLICT (username) DO NOTHING`,
			stableID("user", u.Username), u.Username, u.Email, string(hash), u.Role, u.Name); err != nil {
			return fmt.Errorf("insert user %s: %w", u.Username, err)
		}
		var id string
		if err := tx.GetContext(ctx, &id, `SELECT id FROM users WHERE username = $1`, u.Username); err != nil {
			return fmt.Errorf("load user %s: %w", u.Username, err)
		}
		ids[u.Username] = id
	}
	logr.Info("users ready", zap.Int("count", len(seedUsers)))

	regionIDs := make([]string, 0, len(seedRegions))
	for _, r := range seedRegions {
		coords, err := json.Marshal(models.GeoPoint{Lat: r.Lat, Lng: r.Lng})
		if err != nil {
			return err
		}
		id := stableID("region", r.Name)
		if _, err := tx.ExecContext(ctx, `INSERT INTO regions (id, name, description, coordinates, city, state, created_at)
VALUES ($1, $2, $3, $4, 'São Paulo', 'SP', NOW()) ON CONFLICT (id) DO NOTHING`,
			id, r.Name, r.Description, string(coords)); err != nil {
			return fmt.Errorf("insert region %s: %w", r.Name, err)
		}
		regionIDs = append(regionIDs, id)
	}
	logr.Info("regions ready", zap.Int("count", len(regionIDs)))

	demographics, err := json.Marshal(models.TargetDemographics{
		AgeRanges:       []string{"18-25", "26-35", "36-45", "46-55", "56-65", "65+"},
		Genders:         []string{"Masculino", "Feminino", "Não binário"},
		EducationLevels: []string{"Fundamental", "Médio", "Superior", "Pós-graduação"},
	})
	if err != nil {
		return err
	}
	surveyID := stableID("survey", "municipal-2024")
	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctx, `INSERT INTO surveys (id, title, description, status, start_date, end_date, created_by, demographics, created_at, updated_at)
VALUES ($1, $2, $3, 'active', $4, $5, $6, $7, NOW(), NOW()) ON CONFLICT (id) DO NOTHING`,
		surveyID, "Pesquisa Eleitoral Municipal 2024", "Pesquisa de intenção de voto para prefeito",
		now, now.AddDate(0, 0, 30), ids["admin"], string(demographics)); err != nil {
		return fmt.Errorf("insert survey: %w", err)
	}

	for i, q := range seedQuestions {
		options, err := json.Marshal(q.Options)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO questions (id, survey_id, question, type, options, required, "order", created_at)
VALUES ($1, $2, $3, 'radio', $4, TRUE, $5, NOW()) ON CONFLICT (id) DO NOTHING`,
			stableID("question", fmt.Sprintf("%s-%d", surveyID, i+1)), surveyID, q.Text, string(options), i+1); err != nil {
			return fmt.Errorf("insert question %d: %w", i+1, err)
		}
	}
	logr.Info("survey ready", zap.String("survey_id", surveyID), zap.Int("questions", len(seedQuestions)))

	for i, regionID := range regionIDs {
		if _, err := tx.ExecContext(ctx, `INSERT INTO survey_assignments (id, survey_id, region_id, researcher_id, target_responses, completed_responses, status, assigned_at, due_date)
VALUES ($1, $2, $3, $4, $5, 0, 'pending', NOW(), $6) ON CONFLICT (id) DO NOTHING`,
			stableID("assignment", surveyID+regionID), surveyID, regionID, ids["researcher"],
			50+i*10, now.AddDate(0, 0, 7+i)); err != nil {
			return fmt.Errorf("insert assignment for region %s: %w", regionID, err)
		}
	}
	logr.Info("assignments ready", zap.Int("count", len(regionIDs)))

	return tx.Commit()
}

func stableID(kind, key string) string {
	return uuid.NewSHA1(seedNamespace, []byte(kind+":"+key)).String()
}

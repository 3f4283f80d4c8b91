// Command seed populates a development database with the bootstrap
// platform admin and a handful of Bucharest institutions.  Re-running it
// is safe: existing rows are left untouched.
package main

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/joho/godotenv"

	"github.com/ecotrack/waste-admin/internal/config"
	"github.com/ecotrack/waste-admin/internal/database"
	"github.com/ecotrack/waste-admin/internal/model"
	"github.com/ecotrack/waste-admin/internal/repository"
	"github.com/ecotrack/waste-admin/internal/utils"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	users := repository.NewUserRepo(db)
	institutions := repository.NewInstitutionRepo(db)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	const adminEmail = "admin@test.ro"
	const adminPassword = "admin123" // change in production

	if _, err := users.GetByEmail(ctx, adminEmail); err == nil {
		log.Printf("admin user already exists: %s", adminEmail)
	} else if errors.Is(err, repository.ErrUserNotFound) {
		hash, err := utils.HashPassword(adminPassword, cfg.BcryptCost)
		if err != nil {
			log.Fatalf("hash password: %v", err)
		}
		if _, err := users.Create(ctx, adminEmail, hash, model.RolePlatformAdmin, true); err != nil {
			log.Fatalf("create admin: %v", err)
		}
		log.Printf("created PLATFORM_ADMIN %s (password %s)", adminEmail, adminPassword)
	} else {
		log.Fatalf("lookup admin: %v", err)
	}

	seed := []model.Institution{
		{Name: "Primăria Sector 3", Type: model.InstitutionPrimarieSector, TerritoryLevel: model.TerritorySector, TerritoryCode: "S3"},
		{Name: "Primăria Sector 6", Type: model.InstitutionPrimarieSector, TerritoryLevel: model.TerritorySector, TerritoryCode: "S6"},
		{Name: "Primăria Municipiului București", Type: model.InstitutionPMB, TerritoryLevel: model.TerritoryMunicipiu, TerritoryCode: "B"},
		{Name: "Operator Salubrizare Sector 3", Type: model.InstitutionOperatorSalubrizare, TerritoryLevel: model.TerritorySector, TerritoryCode: "S3"},
	}
	for _, inst := range seed {
		exists, err := institutions.ExistsByNameAndCode(ctx, inst.Name, inst.TerritoryCode)
		if err != nil {
			log.Fatalf("check institution %q: %v", inst.Name, err)
		}
		if exists {
			log.Printf("institution already exists: %s", inst.Name)
			continue
		}
		inst.IsActive = true
		if err := institutions.Create(ctx, &inst); err != nil {
			log.Fatalf("create institution %q: %v", inst.Name, err)
		}
		log.Printf("created institution %s (%s)", inst.Name, inst.TerritoryCode)
	}

	log.Println("seed complete")
}

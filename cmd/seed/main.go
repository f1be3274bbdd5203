package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"directoryhub/backend/internal/config"
	"directoryhub/backend/internal/logging"
	"directoryhub/backend/internal/repository"
	"directoryhub/backend/internal/services"
	"directoryhub/backend/internal/tenancy"
	"directoryhub/backend/pkg/models"
)

const seedUser = "seed-script"

func main() {
	var configPath, domain string

	cmd := &cobra.Command{
		Use:          "seed",
		Short:        "Create the schema, a tenant and example directories",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), configPath, domain)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "Path to config file")
	cmd.Flags().StringVar(&domain, "domain", "localhost", "Email domain of the tenant to seed")

	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, configPath, domain string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger := logging.NewLogger(cfg.IsDev(), cfg.LogLevel)
	defer logger.Sync()

	pool, err := repository.Connect(ctx, cfg.DSN())
	if err != nil {
		return err
	}
	defer pool.Close()

	store := repository.NewPostgresRepository(pool, logger)
	if err := store.Migrate(ctx); err != nil {
		return err
	}

	if err := seed(ctx, store, domain, logger); err != nil {
		return fmt.Errorf("seeding failed: %w", err)
	}
	logger.Info("Seeding complete")
	return nil
}

type seedDirectory struct {
	Name        string
	Description string
	Answers     models.InterviewAnswers
	Listing     *services.SubmitListingInput
}

var seedDirectories = []seedDirectory{
	{
		Name:        "Coffee Shops",
		Description: "Independent cafes and roasters.",
		Answers: models.InterviewAnswers{
			DirectoryType:        "Coffee shops",
			ExampleOrganizations: "Blue Bottle, Stumptown",
			RequiredFields:       "address, website",
			OptionalFields:       "opening hours, description",
		},
		Listing: &services.SubmitListingInput{
			Title: "Heart Coffee",
			Data: map[string]interface{}{
				"address": "2211 E Burnside St, Portland",
				"website": "https://heartroasters.com",
			},
		},
	},
	{
		Name:        "Veterinary Clinics",
		Description: "Animal hospitals and vets.",
		Answers: models.InterviewAnswers{
			DirectoryType:  "Veterinary clinics",
			RequiredFields: "phone, address",
			OptionalFields: "emergency hours, email",
		},
	},
}

// seed ensures the tenant for domain and its example directories exist. It is
// safe to run repeatedly.
func seed(ctx context.Context, store repository.Repository, domain string, logger *logging.Logger) error {
	tenant, err := store.GetTenantByDomain(ctx, domain)
	if err != nil {
		logger.Info("Creating tenant", "domain", domain)
		tenant = &models.Tenant{Name: domain, Domain: domain}
		if err := store.CreateTenant(ctx, tenant); err != nil {
			return err
		}
	} else {
		logger.Info("Found existing tenant", "id", tenant.ID)
	}
	ctx = tenancy.WithTenant(ctx, tenant.ID)

	existing, err := store.ListDirectories(ctx)
	if err != nil {
		return err
	}
	bySlug := make(map[string]bool, len(existing))
	for _, d := range existing {
		bySlug[d.Slug] = true
	}

	directories := services.NewDirectoryService(store, logger)
	listings := services.NewListingService(store, store, logger)

	for _, sd := range seedDirectories {
		if bySlug[services.Slugify(sd.Name)] {
			logger.Info("Skipping existing directory", "name", sd.Name)
			continue
		}

		schema, err := json.Marshal(services.MockSchema(sd.Answers))
		if err != nil {
			return err
		}
		dir, err := directories.Create(ctx, services.CreateDirectoryInput{
			Name:        sd.Name,
			Description: sd.Description,
			Schema:      schema,
			CreatedBy:   seedUser,
		})
		if err != nil {
			return err
		}
		logger.Info("Seeded directory", "name", dir.Name, "id", dir.ID)

		if sd.Listing == nil {
			continue
		}
		in := *sd.Listing
		in.DirectoryID = dir.ID
		in.SubmittedBy = seedUser
		listing, err := listings.Submit(ctx, in)
		if err != nil {
			return err
		}
		logger.Info("Seeded pending listing", "title", listing.Title, "id", listing.ID)
	}
	return nil
}

package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"

	"github.com/zanvidmar/najdeno/internal/config"
	"github.com/zanvidmar/najdeno/internal/db"
	"github.com/zanvidmar/najdeno/internal/store"
)

// seedFile is the YAML shape consumed by the seed command. Existing rows are
// skipped, so seeding is safe to repeat.
type seedFile struct {
	Categories []string `yaml:"categories"`
	Locations  []string `yaml:"locations"`
	Users      []struct {
		FullName string `yaml:"full_name"`
		Email    string `yaml:"email"`
		Password string `yaml:"password"`
		Role     string `yaml:"role"`
	} `yaml:"users"`
}

func cmdSeed(args []string) {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fs := flag.NewFlagSet("seed", flag.ExitOnError)
	dbPath := fs.String("db", cfg.DBPath, "path to SQLite database file")
	seedPath := fs.String("file", "seed.yaml", "path to seed file")
	fs.Parse(args)

	data, err := os.ReadFile(*seedPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	var seed seedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		fmt.Fprintf(os.Stderr, "Error: parsing seed file: %v\n", err)
		os.Exit(1)
	}

	database, err := db.Open(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer database.Close()

	if err := db.Migrate(database); err != nil {
		fmt.Fprintf(os.Stderr, "Error: running migrations: %v\n", err)
		os.Exit(1)
	}

	if err := applySeed(context.Background(), database, seed); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Seed applied.")
}

func applySeed(ctx context.Context, database *sql.DB, seed seedFile) error {
	existing, err := store.ListCategories(ctx, database)
	if err != nil {
		return err
	}
	haveCategory := make(map[string]bool, len(existing))
	for _, c := range existing {
		haveCategory[c.Name] = true
	}
	for _, name := range seed.Categories {
		if haveCategory[name] {
			continue
		}
		if _, err := store.CreateCategory(ctx, database, name); err != nil {
			return fmt.Errorf("seeding category %q: %w", name, err)
		}
	}

	locations, err := store.ListLocations(ctx, database)
	if err != nil {
		return err
	}
	haveLocation := make(map[string]bool, len(locations))
	for _, l := range locations {
		haveLocation[l.Name] = true
	}
	for _, name := range seed.Locations {
		if haveLocation[name] {
			continue
		}
		if _, err := store.CreateLocation(ctx, database, name); err != nil {
			return fmt.Errorf("seeding location %q: %w", name, err)
		}
	}

	for _, u := range seed.Users {
		existing, err := store.GetUserByEmail(ctx, database, u.Email)
		if err != nil {
			return err
		}
		if existing != nil {
			continue
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hashing password for %q: %w", u.Email, err)
		}
		role := u.Role
		if role == "" {
			role = "user"
		}
		if _, err := store.CreateUser(ctx, database, u.FullName, u.Email, string(hash), role); err != nil {
			return fmt.Errorf("seeding user %q: %w", u.Email, err)
		}
	}

	return nil
}

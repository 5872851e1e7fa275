// Command libadmin is the operator tool for bootstrap tasks that have no
// place behind the HTTP surface: creating the first admin account and bulk
// importing catalog records from CSV.
package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/atinyakov/BookKeeper/internal/crypto"
	"github.com/atinyakov/BookKeeper/internal/migrate"
	"github.com/atinyakov/BookKeeper/internal/models"
	"github.com/atinyakov/BookKeeper/internal/repository/postgres"
)

var databaseDSN string

var rootCmd = &cobra.Command{
	Use:   "libadmin",
	Short: "Operator tooling for the BookKeeper store",
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		_ = godotenv.Load()
		if databaseDSN == "" {
			databaseDSN = os.Getenv("DATABASE_DSN")
		}
	},
}

var createAdminCmd = &cobra.Command{
	Use:   "create-admin <email>",
	Short: "Create an admin account, prompting for the password",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		email := strings.TrimSpace(strings.ToLower(args[0]))
		if email == "" || !strings.Contains(email, "@") {
			return fmt.Errorf("invalid email %q", args[0])
		}

		firstName, _ := cmd.Flags().GetString("first-name")
		lastName, _ := cmd.Flags().GetString("last-name")

		fmt.Print("Password: ")
		password, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err != nil {
			return fmt.Errorf("read password: %w", err)
		}
		if len(password) < 6 {
			return errors.New("password must be at least 6 characters")
		}

		hash, err := crypto.HashPassword(string(password))
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		store, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer store.Close()

		users := postgres.NewUserRepo(store)
		user := newAdminUser(email, firstName, lastName, hash, time.Now().UTC())
		if err := users.Create(ctx, user); err != nil {
			return fmt.Errorf("create admin: %w", err)
		}

		fmt.Printf("Admin %s created (%s)\n", email, user.ID)
		return nil
	},
}

var importBooksCmd = &cobra.Command{
	Use:   "import-books <file.csv>",
	Short: "Bulk import books from a CSV file",
	Long: `Import catalog records from a CSV file with a header row and the
columns: title,author,isbn,year,publisher,category,location.
Year and the trailing columns may be empty.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		ctx := cmd.Context()
		store, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer store.Close()
		books := postgres.NewBookRepo(store)

		reader := csv.NewReader(f)
		reader.FieldsPerRecord = 7

		// header row
		if _, err := reader.Read(); err != nil {
			return fmt.Errorf("read header: %w", err)
		}

		imported, skipped := 0, 0
		for line := 2; ; line++ {
			record, err := reader.Read()
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				return fmt.Errorf("line %d: %w", line, err)
			}

			book, err := bookFromRecord(record)
			if err != nil {
				fmt.Fprintf(os.Stderr, "line %d skipped: %v\n", line, err)
				skipped++
				continue
			}
			if err := books.Create(ctx, book); err != nil {
				fmt.Fprintf(os.Stderr, "line %d skipped: %v\n", line, err)
				skipped++
				continue
			}
			imported++
		}

		fmt.Printf("Imported %d books, skipped %d\n", imported, skipped)
		return nil
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending schema migrations",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return migrate.Up(cmd.Context(), databaseDSN)
	},
}

// newAdminUser builds a ready-to-insert admin record. The repository inserts
// timestamps verbatim, so they must be set here.
func newAdminUser(email, firstName, lastName, hash string, now time.Time) *models.User {
	return &models.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
		FirstName:    firstName,
		LastName:     lastName,
		Role:         models.RoleAdmin,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func bookFromRecord(record []string) (*models.Book, error) {
	title := strings.TrimSpace(record[0])
	author := strings.TrimSpace(record[1])
	isbn := strings.TrimSpace(record[2])
	if title == "" || author == "" || isbn == "" {
		return nil, errors.New("title, author and isbn are required")
	}

	book := &models.Book{
		ID:        uuid.New(),
		Title:     title,
		Author:    author,
		ISBN:      isbn,
		Publisher: optional(record[4]),
		Category:  optional(record[5]),
		Location:  optional(record[6]),
	}

	if y := strings.TrimSpace(record[3]); y != "" {
		year, err := strconv.Atoi(y)
		if err != nil {
			return nil, fmt.Errorf("bad year %q", y)
		}
		book.Year = &year
	}
	return book, nil
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func openStore(ctx context.Context) (*postgres.DB, error) {
	if databaseDSN == "" {
		return nil, errors.New("database DSN is required (--dsn or DATABASE_DSN)")
	}
	return postgres.New(ctx, databaseDSN)
}

func main() {
	rootCmd.PersistentFlags().StringVarP(&databaseDSN, "dsn", "d", "", "PostgreSQL connection string")
	createAdminCmd.Flags().String("first-name", "Admin", "admin first name")
	createAdminCmd.Flags().String("last-name", "", "admin last name")

	rootCmd.AddCommand(createAdminCmd, importBooksCmd, migrateCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

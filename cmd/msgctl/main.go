// Command msgctl is an administrative helper for a messagely deployment.
// It talks to the database directly, so it is meant to be run on a host
// with access to the server's DSN.
//
// Usage:
//
//	msgctl register -d <dsn> -u <username> [-f first] [-l last] [-p phone]
//	msgctl migrate  -d <dsn>
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"
	"golang.org/x/term"

	"github.com/Kayvinh/messagely/internal/server/config"
	"github.com/Kayvinh/messagely/internal/server/repositories/repomanager"
	"github.com/Kayvinh/messagely/internal/server/services"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "register":
		err = runRegister(os.Args[2:])
	case "migrate":
		err = runMigrate(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}

	if err != nil {
		log.Fatalf("msgctl: %v", err)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: msgctl <register|migrate> [flags]")
}

func runMigrate(args []string) error {
	cfg := &config.Config{}
	cfg.LoadDefaults()

	fs := flag.NewFlagSet("migrate", flag.ExitOnError)
	dsn := fs.String("d", cfg.DatabaseDSN, "database DSN")
	if err := fs.Parse(args); err != nil {
		return err
	}

	db, err := sql.Open("pgx", *dsn)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	m := repomanager.NewPostgresRepositoryManager()
	if err := m.RunMigrations(context.Background(), db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	fmt.Println("migrations applied")
	return nil
}

func runRegister(args []string) error {
	cfg := &config.Config{}
	cfg.LoadDefaults()

	fs := flag.NewFlagSet("register", flag.ExitOnError)
	dsn := fs.String("d", cfg.DatabaseDSN, "database DSN")
	username := fs.String("u", "", "username to register")
	first := fs.String("f", "", "first name")
	last := fs.String("l", "", "last name")
	phone := fs.String("p", "", "phone number")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *username == "" {
		return fmt.Errorf("username is required")
	}

	password, err := promptPassword()
	if err != nil {
		return err
	}

	db, err := sql.Open("pgx", *dsn)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	us := services.NewUserService(db, repomanager.NewPostgresRepositoryManager(), cfg)

	user, err := us.Register(context.Background(), services.RegisterParams{
		Username:  *username,
		Password:  password,
		FirstName: *first,
		LastName:  *last,
		Phone:     *phone,
	})
	if err != nil {
		return fmt.Errorf("registering %q: %w", *username, err)
	}

	fmt.Printf("registered %s (joined %s)\n", user.Username, user.JoinedAt.Format("2006-01-02 15:04:05"))
	return nil
}

// promptPassword reads the password twice from the terminal without echo
// and makes sure both entries match.
func promptPassword() (string, error) {
	fmt.Fprint(os.Stderr, "Enter password: ")
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}

	fmt.Fprint(os.Stderr, "Repeat password: ")
	pw2, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}

	if string(pw) != string(pw2) {
		return "", fmt.Errorf("passwords do not match")
	}
	if len(pw) == 0 {
		return "", fmt.Errorf("password must not be empty")
	}
	return string(pw), nil
}

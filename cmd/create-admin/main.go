package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/gestaozabele/participa/internal/db"
	"github.com/gestaozabele/participa/internal/identity"
	"github.com/gestaozabele/participa/internal/user"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})

	if err := run(os.Args[1:]); err != nil {
		log.Fatal().Err(err).Msg("falha ao criar administrador")
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("create-admin", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var (
		name     = fs.String("name", "", "nome exibido")
		email    = fs.String("email", "", "e-mail de acesso")
		password = fs.String("password", "", "senha em texto claro")
		citizen  = fs.Bool("citizen", false, "também conceder papel de cidadão")
		token    = fs.Bool("token", false, "emitir um token de acesso para o usuário criado")
	)

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *name == "" || *email == "" || *password == "" {
		fmt.Fprintln(os.Stderr, "uso: create-admin --name \"Nome\" --email admin@cidade.gov --password segredo [--citizen] [--token]")
		return errors.New("name, email e password são obrigatórios")
	}

	_ = godotenv.Load()

	dsn := strings.TrimSpace(os.Getenv("DB_DSN"))
	if dsn == "" {
		dsn = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	}
	if dsn == "" {
		return errors.New("defina DB_DSN ou DATABASE_URL")
	}

	ctx := context.Background()

	pool, err := db.NewPool(ctx, dsn)
	if err != nil {
		return fmt.Errorf("db: %w", err)
	}
	defer pool.Close()

	hash, err := argon2id.CreateHash(*password, argon2id.DefaultParams)
	if err != nil {
		return fmt.Errorf("hash: %w", err)
	}

	repo := user.NewRepository(pool)
	id, err := repo.Create(ctx, *name, *email, hash, user.RoleFlags{
		IsCitizen: *citizen,
		IsAdmin:   true,
	})
	if err != nil {
		return err
	}

	log.Info().Int64("id", id).Str("email", *email).Msg("administrador criado")

	if *token {
		secret := strings.TrimSpace(os.Getenv("JWT_SECRET"))
		if len(secret) < 32 {
			return errors.New("JWT_SECRET deve ter pelo menos 32 caracteres para emitir token")
		}

		roles := []string{identity.RoleAdmin}
		if *citizen {
			roles = append(roles, identity.RoleCitizen)
		}

		manager := identity.NewJWTManager(secret, 24*time.Hour)
		access, _, err := manager.GenerateAccessToken(id, roles)
		if err != nil {
			return fmt.Errorf("token: %w", err)
		}
		fmt.Println(access)
	}

	return nil
}

package main

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/gestaozabele/participa/internal/db"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
    id            BIGSERIAL PRIMARY KEY,
    name          TEXT NOT NULL,
    email         TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    is_citizen    BOOLEAN NOT NULL DEFAULT TRUE,
    is_admin      BOOLEAN NOT NULL DEFAULT FALSE,
    created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS categories (
    id   BIGSERIAL PRIMARY KEY,
    name TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS platforms (
    id       BIGSERIAL PRIMARY KEY,
    name     TEXT NOT NULL,
    base_url TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS initiatives (
    id              BIGSERIAL PRIMARY KEY,
    title           VARCHAR(255) NOT NULL,
    description     TEXT NOT NULL,
    place           VARCHAR(64) NOT NULL,
    status          TEXT NOT NULL DEFAULT 'In corso',
    signature_count INTEGER NOT NULL DEFAULT 0,
    created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
    expiration_date TIMESTAMPTZ,
    author_id       BIGINT NOT NULL REFERENCES users(id),
    category_id     BIGINT NOT NULL REFERENCES categories(id),
    platform_id     BIGINT REFERENCES platforms(id),
    external_url    TEXT,
    CONSTRAINT initiatives_status_check CHECK (
        status IN ('In corso', 'Approvata', 'Respinta', 'Scaduta', 'Archiviata')
    )
);

CREATE INDEX IF NOT EXISTS idx_initiatives_status ON initiatives (status);
CREATE INDEX IF NOT EXISTS idx_initiatives_category ON initiatives (category_id);
CREATE INDEX IF NOT EXISTS idx_initiatives_expiration ON initiatives (expiration_date)
    WHERE expiration_date IS NOT NULL;

CREATE TABLE IF NOT EXISTS replies (
    id            BIGSERIAL PRIMARY KEY,
    initiative_id BIGINT NOT NULL UNIQUE REFERENCES initiatives(id) ON DELETE CASCADE,
    author_id     BIGINT NOT NULL REFERENCES users(id),
    reply_text    TEXT NOT NULL,
    new_status    TEXT NOT NULL,
    created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS attachments (
    id            BIGSERIAL PRIMARY KEY,
    file_name     TEXT NOT NULL,
    file_path     TEXT NOT NULL,
    file_type     TEXT NOT NULL,
    initiative_id BIGINT REFERENCES initiatives(id) ON DELETE CASCADE,
    reply_id      BIGINT REFERENCES replies(id) ON DELETE CASCADE,
    CONSTRAINT attachments_single_parent CHECK (
        (initiative_id IS NOT NULL AND reply_id IS NULL) OR
        (initiative_id IS NULL AND reply_id IS NOT NULL)
    )
);

CREATE INDEX IF NOT EXISTS idx_attachments_initiative ON attachments (initiative_id)
    WHERE initiative_id IS NOT NULL;
CREATE INDEX IF NOT EXISTS idx_attachments_reply ON attachments (reply_id)
    WHERE reply_id IS NOT NULL;

CREATE TABLE IF NOT EXISTS signatures (
    user_id       BIGINT NOT NULL REFERENCES users(id),
    initiative_id BIGINT NOT NULL REFERENCES initiatives(id) ON DELETE CASCADE,
    created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
    PRIMARY KEY (user_id, initiative_id)
);

CREATE TABLE IF NOT EXISTS follows (
    user_id       BIGINT NOT NULL REFERENCES users(id),
    initiative_id BIGINT NOT NULL REFERENCES initiatives(id) ON DELETE CASCADE,
    created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
    PRIMARY KEY (user_id, initiative_id)
);

CREATE TABLE IF NOT EXISTS notifications (
    id         BIGSERIAL PRIMARY KEY,
    user_id    BIGINT NOT NULL REFERENCES users(id),
    text       TEXT NOT NULL,
    link_ref   TEXT NOT NULL DEFAULT '',
    is_read    BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_notifications_user ON notifications (user_id, is_read, created_at DESC);

CREATE TABLE IF NOT EXISTS budgets (
    id              BIGSERIAL PRIMARY KEY,
    title           TEXT NOT NULL,
    expiration_date DATE NOT NULL,
    creator_id      BIGINT NOT NULL REFERENCES users(id),
    created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS budget_options (
    budget_id BIGINT NOT NULL REFERENCES budgets(id) ON DELETE CASCADE,
    position  INTEGER NOT NULL,
    text      TEXT NOT NULL,
    PRIMARY KEY (budget_id, position)
);

CREATE TABLE IF NOT EXISTS budget_votes (
    user_id    BIGINT NOT NULL REFERENCES users(id),
    budget_id  BIGINT NOT NULL REFERENCES budgets(id) ON DELETE CASCADE,
    position   INTEGER NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    PRIMARY KEY (user_id, budget_id),
    FOREIGN KEY (budget_id, position) REFERENCES budget_options(budget_id, position)
);
`

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})

	_ = godotenv.Load()

	dsn := strings.TrimSpace(os.Getenv("DB_DSN"))
	if dsn == "" {
		dsn = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	}
	if dsn == "" {
		log.Fatal().Msg("defina DB_DSN ou DATABASE_URL")
	}

	ctx := context.Background()

	pool, err := db.NewPool(ctx, dsn)
	if err != nil {
		log.Fatal().Err(err).Msg("não foi possível conectar ao banco")
	}
	defer pool.Close()

	if _, err := pool.Exec(ctx, schema); err != nil {
		log.Fatal().Err(err).Msg("falha ao aplicar o schema")
	}

	log.Info().Msg("schema aplicado com sucesso")
}

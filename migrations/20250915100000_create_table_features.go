package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(upFeatures, downFeatures)
}

func upFeatures(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS public.features (
	id              UUID                        NOT NULL,
	name            TEXT                        NOT NULL,
	flag_in_counts  JSONB                       NOT NULL DEFAULT '{}'::JSONB,
	opt_out_counts  JSONB                       NOT NULL DEFAULT '{}'::JSONB,
	failure_count   BIGINT                      NOT NULL DEFAULT 0,
	created_at      TIMESTAMP WITH TIME ZONE    NOT NULL,
	updated_at      TIMESTAMP WITH TIME ZONE    NOT NULL,
	CONSTRAINT pk_features PRIMARY KEY (id),
	CONSTRAINT uq_features_name UNIQUE (name)
);`)
	if err != nil {
		return err
	}
	return nil
}

func downFeatures(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS public.features;")
	if err != nil {
		return err
	}
	return nil
}

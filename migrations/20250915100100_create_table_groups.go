package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(upGroups, downGroups)
}

func upGroups(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS public.groups (
	id           BIGSERIAL                   NOT NULL,
	name         TEXT                        NOT NULL,
	record_type  TEXT                        NOT NULL,
	created_at   TIMESTAMP WITH TIME ZONE    NOT NULL,
	CONSTRAINT pk_groups PRIMARY KEY (id),
	CONSTRAINT uq_groups_record_type_name UNIQUE (record_type, name)
);`)
	if err != nil {
		return err
	}
	return nil
}

func downGroups(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS public.groups;")
	if err != nil {
		return err
	}
	return nil
}

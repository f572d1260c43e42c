package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(upMemberships, downMemberships)
}

func upMemberships(ctx context.Context, tx *sql.Tx) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS public.memberships (
	id           BIGSERIAL                   NOT NULL,
	group_id     BIGINT                      NOT NULL,
	member_type  TEXT                        NOT NULL,
	member_id    BIGINT                      NOT NULL,
	created_at   TIMESTAMP WITH TIME ZONE    NOT NULL,
	CONSTRAINT pk_memberships PRIMARY KEY (id),
	CONSTRAINT fk_memberships_group FOREIGN KEY (group_id) REFERENCES public.groups (id) ON DELETE CASCADE,
	CONSTRAINT uq_memberships_member UNIQUE (group_id, member_type, member_id)
);`,
		`CREATE INDEX IF NOT EXISTS ix_memberships_member ON public.memberships (member_type, member_id);`,
	}
	for _, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func downMemberships(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS public.memberships;")
	if err != nil {
		return err
	}
	return nil
}

package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(upFlags, downFlags)
}

// одна таблица на все виды флагов, уникальность по виду через частичные индексы
func upFlags(ctx context.Context, tx *sql.Tx) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS public.flags (
	id           BIGSERIAL                   NOT NULL,
	feature_id   UUID                        NOT NULL,
	kind         TEXT                        NOT NULL,
	record_type  TEXT                        NOT NULL,
	record_id    BIGINT                      NOT NULL DEFAULT 0,
	percentage   INTEGER                     NOT NULL DEFAULT 0,
	group_name   TEXT                        NOT NULL DEFAULT '',
	group_id     BIGINT                      NULL,
	created_at   TIMESTAMP WITH TIME ZONE    NOT NULL,
	CONSTRAINT pk_flags PRIMARY KEY (id),
	CONSTRAINT fk_flags_feature FOREIGN KEY (feature_id) REFERENCES public.features (id) ON DELETE CASCADE,
	CONSTRAINT fk_flags_group FOREIGN KEY (group_id) REFERENCES public.groups (id) ON DELETE CASCADE,
	CONSTRAINT ck_flags_kind CHECK (kind IN ('flag_in', 'opt_out', 'percentage', 'code_group', 'database_group')),
	CONSTRAINT ck_flags_percentage CHECK (percentage BETWEEN 0 AND 100)
);`,
		`CREATE UNIQUE INDEX IF NOT EXISTS uq_flags_flag_in
	ON public.flags (feature_id, record_type, record_id) WHERE kind = 'flag_in';`,
		`CREATE UNIQUE INDEX IF NOT EXISTS uq_flags_opt_out
	ON public.flags (feature_id, record_id) WHERE kind = 'opt_out';`,
		`CREATE UNIQUE INDEX IF NOT EXISTS uq_flags_percentage
	ON public.flags (feature_id, record_type) WHERE kind = 'percentage';`,
		`CREATE UNIQUE INDEX IF NOT EXISTS uq_flags_code_group
	ON public.flags (feature_id, record_type, group_name) WHERE kind = 'code_group';`,
		`CREATE UNIQUE INDEX IF NOT EXISTS uq_flags_database_group
	ON public.flags (feature_id, group_id) WHERE kind = 'database_group';`,
		`CREATE INDEX IF NOT EXISTS ix_flags_feature_kind ON public.flags (feature_id, kind);`,
	}
	for _, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func downFlags(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS public.flags;")
	if err != nil {
		return err
	}
	return nil
}

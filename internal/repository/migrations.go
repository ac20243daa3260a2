package repository

import (
	"context"
	"fmt"

	"github.com/bassista/go_courses/internal/logger"
)

const schemaUp = `
CREATE TABLE IF NOT EXISTS courses (
    id UUID PRIMARY KEY,
    name VARCHAR(255) NOT NULL,
    description TEXT NOT NULL,
    max_capacity INTEGER NOT NULL,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_max_capacity CHECK (max_capacity > 0)
);

CREATE TABLE IF NOT EXISTS students (
    id UUID PRIMARY KEY,
    name VARCHAR(255) NOT NULL,
    email VARCHAR(255) NOT NULL,
    course_id UUID NOT NULL REFERENCES courses(id) ON DELETE CASCADE,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT uq_students_email_course UNIQUE (email, course_id)
);

CREATE INDEX IF NOT EXISTS idx_students_course_id ON students(course_id);
`

// Migrate creates the schema if it does not exist yet. It is idempotent.
func (r *PostgresRepository) Migrate(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, schemaUp); err != nil {
		return fmt.Errorf("postgres: migration failed: %w", err)
	}
	logger.WithComponent("postgres-repo").Info("schema is up to date")
	return nil
}

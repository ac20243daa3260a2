package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bassista/go_courses/internal/logger"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
	pgStringTooLong       = "22001"
)

// querier is implemented by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PoolOptions configures the pgx connection pool.
type PoolOptions struct {
	DSN      string
	MaxConns int32
	MinConns int32
}

// PostgresRepository is the relational persistence gateway. Referential integrity
// (cascade delete, unique (email, course_id)) is enforced by the schema.
type PostgresRepository struct {
	pgStore
	pool *pgxpool.Pool
}

type pgStore struct {
	q querier
	// lockRows makes FindCourse take a row lock; only set for transaction-bound stores.
	lockRows bool
}

// NewPostgresRepository opens and pings a pgx pool.
func NewPostgresRepository(ctx context.Context, opts PoolOptions) (*PostgresRepository, error) {
	poolConfig, err := pgxpool.ParseConfig(opts.DSN)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to parse connection string: %w", err)
	}
	if opts.MaxConns > 0 {
		poolConfig.MaxConns = opts.MaxConns
	}
	if opts.MinConns > 0 {
		poolConfig.MinConns = opts.MinConns
	}
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: failed to ping database: %w", err)
	}

	logger.WithComponent("postgres-repo").Infof("connected to postgres (max conns %d)", poolConfig.MaxConns)
	return &PostgresRepository{pgStore: pgStore{q: pool}, pool: pool}, nil
}

func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func (r *PostgresRepository) Close() {
	r.pool.Close()
}

// WithinTx runs fn in a READ COMMITTED transaction. FindCourse inside fn locks the
// course row, serializing concurrent mutations of the same course.
func (r *PostgresRepository) WithinTx(ctx context.Context, fn func(tx Store) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted, AccessMode: pgx.ReadWrite})
	if err != nil {
		return fmt.Errorf("postgres: begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
	}()

	if err := fn(&pgStore{q: tx, lockRows: true}); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			logger.WithComponent("postgres-repo").Errorf("rollback failed: %v", rbErr)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: commit: %w", err)
	}
	return nil
}

func (s *pgStore) InsertCourse(ctx context.Context, c *Course) error {
	id := uuid.NewString()
	err := s.q.QueryRow(ctx, `
		INSERT INTO courses (id, name, description, max_capacity)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at
	`, id, c.Name, c.Description, c.MaxCapacity).Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert course: %w", classify(err, ErrCourseNotFound))
	}
	c.ID = id
	c.Students = []Student{}
	return nil
}

func (s *pgStore) FindCourse(ctx context.Context, id string) (Course, error) {
	if !isUUID(id) {
		return Course{}, ErrCourseNotFound
	}

	query := `
		SELECT id::text, name, description, max_capacity, created_at, updated_at
		FROM courses WHERE id = $1`
	if s.lockRows {
		query += " FOR UPDATE"
	}

	var c Course
	err := s.q.QueryRow(ctx, query, id).
		Scan(&c.ID, &c.Name, &c.Description, &c.MaxCapacity, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Course{}, ErrCourseNotFound
		}
		return Course{}, fmt.Errorf("find course: %w", err)
	}

	students, err := s.queryStudents(ctx, `
		SELECT id::text, name, email, course_id::text, created_at
		FROM students WHERE course_id = $1
		ORDER BY created_at, id`, id)
	if err != nil {
		return Course{}, err
	}
	c.Students = students
	return c, nil
}

func (s *pgStore) ListCourses(ctx context.Context) ([]Course, error) {
	rows, err := s.q.Query(ctx, `
		SELECT id::text, name, description, max_capacity, created_at, updated_at
		FROM courses ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	defer rows.Close()

	courses := make([]Course, 0)
	index := map[string]int{}
	for rows.Next() {
		var c Course
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.MaxCapacity, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan course: %w", err)
		}
		c.Students = []Student{}
		index[c.ID] = len(courses)
		courses = append(courses, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}

	students, err := s.queryStudents(ctx, `
		SELECT id::text, name, email, course_id::text, created_at
		FROM students ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	for _, st := range students {
		// a course inserted between the two queries is simply not listed yet
		if i, ok := index[st.CourseID]; ok {
			courses[i].Students = append(courses[i].Students, st)
		}
	}
	return courses, nil
}

func (s *pgStore) ListCourseIDs(ctx context.Context) ([]string, error) {
	rows, err := s.q.Query(ctx, `SELECT id::text FROM courses ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list course ids: %w", err)
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan course id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *pgStore) UpdateCourse(ctx context.Context, c *Course) error {
	if !isUUID(c.ID) {
		return ErrCourseNotFound
	}
	err := s.q.QueryRow(ctx, `
		UPDATE courses
		SET name = $2, description = $3, max_capacity = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING created_at, updated_at
	`, c.ID, c.Name, c.Description, c.MaxCapacity).Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrCourseNotFound
		}
		return fmt.Errorf("update course: %w", err)
	}
	return nil
}

func (s *pgStore) DeleteCourse(ctx context.Context, id string) error {
	if !isUUID(id) {
		return ErrCourseNotFound
	}
	tag, err := s.q.Exec(ctx, `DELETE FROM courses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete course: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCourseNotFound
	}
	return nil
}

func (s *pgStore) InsertStudent(ctx context.Context, st *Student) error {
	if !isUUID(st.CourseID) {
		return ErrCourseNotFound
	}
	id := uuid.NewString()
	err := s.q.QueryRow(ctx, `
		INSERT INTO students (id, name, email, course_id)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`, id, st.Name, st.Email, st.CourseID).Scan(&st.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert student: %w", classify(err, ErrCourseNotFound))
	}
	st.ID = id
	return nil
}

func (s *pgStore) FindStudent(ctx context.Context, id string) (Student, error) {
	if !isUUID(id) {
		return Student{}, ErrStudentNotFound
	}
	var st Student
	err := s.q.QueryRow(ctx, `
		SELECT id::text, name, email, course_id::text, created_at
		FROM students WHERE id = $1
	`, id).Scan(&st.ID, &st.Name, &st.Email, &st.CourseID, &st.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Student{}, ErrStudentNotFound
		}
		return Student{}, fmt.Errorf("find student: %w", err)
	}
	return st, nil
}

func (s *pgStore) StudentEmailExists(ctx context.Context, courseID, email string) (bool, error) {
	if !isUUID(courseID) {
		return false, nil
	}
	var exists bool
	err := s.q.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM students WHERE course_id = $1 AND email = $2)
	`, courseID, email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check student email: %w", err)
	}
	return exists, nil
}

func (s *pgStore) DeleteStudent(ctx context.Context, id string) error {
	if !isUUID(id) {
		return ErrStudentNotFound
	}
	tag, err := s.q.Exec(ctx, `DELETE FROM students WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete student: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrStudentNotFound
	}
	return nil
}

func (s *pgStore) ListStudents(ctx context.Context, courseID string) ([]Student, error) {
	if !isUUID(courseID) {
		return nil, ErrCourseNotFound
	}
	var exists bool
	if err := s.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM courses WHERE id = $1)`, courseID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check course: %w", err)
	}
	if !exists {
		return nil, ErrCourseNotFound
	}
	return s.queryStudents(ctx, `
		SELECT id::text, name, email, course_id::text, created_at
		FROM students WHERE course_id = $1
		ORDER BY created_at, id`, courseID)
}

func (s *pgStore) queryStudents(ctx context.Context, sql string, args ...any) ([]Student, error) {
	rows, err := s.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	defer rows.Close()

	students := make([]Student, 0)
	for rows.Next() {
		var st Student
		if err := rows.Scan(&st.ID, &st.Name, &st.Email, &st.CourseID, &st.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan student: %w", err)
		}
		students = append(students, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	return students, nil
}

// classify maps constraint violations onto repository error kinds. fkErr is the
// error reported when a referenced parent row does not exist.
func classify(err error, fkErr error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case pgUniqueViolation:
		return ErrDuplicateStudent
	case pgForeignKeyViolation:
		return fkErr
	case pgCheckViolation, pgStringTooLong:
		return fmt.Errorf("%w: %s", ErrInvalidRecord, pgErr.Message)
	}
	return err
}

func isUUID(id string) bool {
	return uuid.Validate(id) == nil
}

package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/bassista/go_courses/internal/logger"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type memCourse struct {
	Course
	seq uint64
}

type memStudent struct {
	Student
	seq uint64
}

// MemoryRepository keeps courses and students in process memory. It enforces the
// same unique (email, course) and cascade-delete rules as the postgres schema and
// is used for the "memory" driver and in tests.
type MemoryRepository struct {
	mu        sync.RWMutex
	txMu      sync.Mutex
	courses   map[string]memCourse
	students  map[string]memStudent
	seq       uint64
	validator *validator.Validate
	now       func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		courses:   map[string]memCourse{},
		students:  map[string]memStudent{},
		validator: validator.New(),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// WithinTx serializes fn against every other transaction. Writes are applied as
// they happen, so fn must do its checks before its single write.
func (m *MemoryRepository) WithinTx(ctx context.Context, fn func(tx Store) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(m)
}

func (m *MemoryRepository) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (m *MemoryRepository) Close() {}

func (m *MemoryRepository) InsertCourse(_ context.Context, c *Course) error {
	if err := m.validator.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	c.ID = uuid.NewString()
	c.CreatedAt = now
	c.UpdatedAt = now
	c.Students = []Student{}

	m.seq++
	stored := *c
	stored.Students = nil
	m.courses[c.ID] = memCourse{Course: stored, seq: m.seq}
	logger.WithComponent("memory-repo").Debugf("course %s inserted", c.ID)
	return nil
}

func (m *MemoryRepository) FindCourse(_ context.Context, id string) (Course, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	mc, ok := m.courses[id]
	if !ok {
		return Course{}, ErrCourseNotFound
	}
	out := cloneCourse(mc.Course)
	out.Students = m.studentsOfLocked(id)
	return out, nil
}

func (m *MemoryRepository) ListCourses(_ context.Context) ([]Course, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ordered := make([]memCourse, 0, len(m.courses))
	for _, mc := range m.courses {
		ordered = append(ordered, mc)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].seq < ordered[j].seq })

	out := make([]Course, 0, len(ordered))
	for _, mc := range ordered {
		c := cloneCourse(mc.Course)
		c.Students = m.studentsOfLocked(c.ID)
		out = append(out, c)
	}
	return out, nil
}

func (m *MemoryRepository) ListCourseIDs(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.courses))
	for id := range m.courses {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (m *MemoryRepository) UpdateCourse(_ context.Context, c *Course) error {
	if err := m.validator.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	mc, ok := m.courses[c.ID]
	if !ok {
		return ErrCourseNotFound
	}
	mc.Name = c.Name
	mc.Description = c.Description
	mc.MaxCapacity = c.MaxCapacity
	mc.UpdatedAt = m.now()
	m.courses[c.ID] = mc

	c.CreatedAt = mc.CreatedAt
	c.UpdatedAt = mc.UpdatedAt
	return nil
}

func (m *MemoryRepository) DeleteCourse(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.courses[id]; !ok {
		return ErrCourseNotFound
	}
	removed := 0
	for sid, s := range m.students {
		if s.CourseID == id {
			delete(m.students, sid)
			removed++
		}
	}
	delete(m.courses, id)
	logger.WithComponent("memory-repo").Debugf("course %s deleted with %d students", id, removed)
	return nil
}

func (m *MemoryRepository) InsertStudent(_ context.Context, s *Student) error {
	if err := m.validator.Struct(s); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.courses[s.CourseID]; !ok {
		return ErrCourseNotFound
	}
	for _, existing := range m.students {
		if existing.CourseID == s.CourseID && existing.Email == s.Email {
			return ErrDuplicateStudent
		}
	}

	s.ID = uuid.NewString()
	s.CreatedAt = m.now()
	m.seq++
	m.students[s.ID] = memStudent{Student: *s, seq: m.seq}
	return nil
}

func (m *MemoryRepository) FindStudent(_ context.Context, id string) (Student, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.students[id]
	if !ok {
		return Student{}, ErrStudentNotFound
	}
	return s.Student, nil
}

func (m *MemoryRepository) StudentEmailExists(_ context.Context, courseID, email string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, s := range m.students {
		if s.CourseID == courseID && s.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (m *MemoryRepository) DeleteStudent(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.students[id]; !ok {
		return ErrStudentNotFound
	}
	delete(m.students, id)
	return nil
}

func (m *MemoryRepository) ListStudents(_ context.Context, courseID string) ([]Student, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.courses[courseID]; !ok {
		return nil, ErrCourseNotFound
	}
	return m.studentsOfLocked(courseID), nil
}

// studentsOfLocked returns the course's students in insertion order; caller holds mu.
func (m *MemoryRepository) studentsOfLocked(courseID string) []Student {
	members := make([]memStudent, 0)
	for _, s := range m.students {
		if s.CourseID == courseID {
			members = append(members, s)
		}
	}
	sort.Slice(members, func(i, j int) bool { return members[i].seq < members[j].seq })

	out := make([]Student, len(members))
	for i, s := range members {
		out[i] = s.Student
	}
	return out
}

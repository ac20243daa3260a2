package course

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/bassista/go_courses/internal/cache"
	"github.com/bassista/go_courses/internal/diversity"
	"github.com/bassista/go_courses/internal/repository"
	"github.com/containerd/errdefs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// spyCache records invalidations and counts calculator runs.
type spyCache struct {
	*cache.Store
	mu          sync.Mutex
	invalidated []string
	calcs       atomic.Int64
}

func newSpyCache() *spyCache {
	s := &spyCache{}
	s.Store = cache.NewStore(func(students []repository.Student) float64 {
		s.calcs.Add(1)
		return diversity.Index(students)
	}, nil)
	return s
}

func (s *spyCache) Invalidate(courseID string) {
	s.mu.Lock()
	s.invalidated = append(s.invalidated, courseID)
	s.mu.Unlock()
	s.Store.Invalidate(courseID)
}

func (s *spyCache) invalidations() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.invalidated...)
}

func newTestService() (*Service, *repository.MemoryRepository, *spyCache) {
	repo := repository.NewMemoryRepository()
	c := newSpyCache()
	return NewService(repo, c), repo, c
}

func intPtr(i int) *int       { return &i }
func strPtr(s string) *string { return &s }

func TestCreateCourse(t *testing.T) {
	svc, _, c := newTestService()
	ctx := context.Background()

	v, err := svc.CreateCourse(ctx, "Go", "Concurrency", 3)
	require.NoError(t, err)

	assert.NotEmpty(t, v.ID)
	assert.Equal(t, "Go", v.Name)
	assert.Equal(t, "Concurrency", v.Description)
	assert.Equal(t, 3, v.MaxCapacity)
	assert.Equal(t, 0, v.CurrentStudents)
	assert.Zero(t, v.DiversityIndex)
	assert.False(t, v.CreatedAt.IsZero())
	assert.Equal(t, []string{v.ID}, c.invalidations())

	_, cached := c.Peek(v.ID)
	assert.False(t, cached, "a new course must not have a pre-seeded cache entry")
}

func TestCreateCourse_InvalidCapacity(t *testing.T) {
	for _, capacity := range []int{0, -1} {
		t.Run(fmt.Sprint(capacity), func(t *testing.T) {
			svc, repo, c := newTestService()
			ctx := context.Background()

			_, err := svc.CreateCourse(ctx, "Go", "", capacity)

			assert.ErrorIs(t, err, ErrInvalidCapacity)
			assert.True(t, errdefs.IsInvalidArgument(err))
			courses, _ := repo.ListCourses(ctx)
			assert.Empty(t, courses)
			assert.Empty(t, c.invalidations())
		})
	}
}

func TestCreateCourse_InvalidRecord(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.CreateCourse(context.Background(), "", "", 1)

	assert.ErrorIs(t, err, repository.ErrInvalidRecord)
}

func TestCapacityScenario(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	v, err := svc.CreateCourse(ctx, "Go", "", 1)
	require.NoError(t, err)

	a, err := svc.AddStudent(ctx, v.ID, "A", "a@x.com")
	require.NoError(t, err)

	_, err = svc.AddStudent(ctx, v.ID, "B", "b@y.com")
	assert.ErrorIs(t, err, ErrCapacityExceeded)
	assert.True(t, errdefs.IsConflict(err))

	require.NoError(t, svc.RemoveStudent(ctx, a.ID))

	b, err := svc.AddStudent(ctx, v.ID, "B", "b@y.com")
	require.NoError(t, err)
	assert.Equal(t, v.ID, b.CourseID)

	got, err := svc.GetCourse(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.CurrentStudents)
	assert.Equal(t, 100.0, got.DiversityIndex)
}

func TestAddStudent_Duplicate(t *testing.T) {
	svc, _, c := newTestService()
	ctx := context.Background()

	v, _ := svc.CreateCourse(ctx, "Go", "", 5)
	original, err := svc.AddStudent(ctx, v.ID, "Alice", "alice@x.com")
	require.NoError(t, err)
	before := len(c.invalidations())

	_, err = svc.AddStudent(ctx, v.ID, "Alice Again", "alice@x.com")

	assert.ErrorIs(t, err, repository.ErrDuplicateStudent)
	assert.True(t, errdefs.IsAlreadyExists(err))
	assert.Len(t, c.invalidations(), before)

	students, err := svc.ListStudents(ctx, v.ID)
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, original.ID, students[0].ID)
	assert.Equal(t, "Alice", students[0].Name)
}

func TestAddStudent_SameEmailInOtherCourse(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	v1, _ := svc.CreateCourse(ctx, "Go", "", 5)
	v2, _ := svc.CreateCourse(ctx, "Rust", "", 5)

	_, err := svc.AddStudent(ctx, v1.ID, "Alice", "alice@x.com")
	require.NoError(t, err)
	_, err = svc.AddStudent(ctx, v2.ID, "Alice", "alice@x.com")
	assert.NoError(t, err)
}

func TestAddStudent_CourseNotFound(t *testing.T) {
	svc, _, c := newTestService()

	_, err := svc.AddStudent(context.Background(), "missing", "A", "a@x.com")

	assert.ErrorIs(t, err, repository.ErrCourseNotFound)
	assert.True(t, errdefs.IsNotFound(err))
	assert.Empty(t, c.invalidations())
}

func TestAddStudent_CapacityCheckedBeforeDuplicate(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	v, _ := svc.CreateCourse(ctx, "Go", "", 1)
	_, err := svc.AddStudent(ctx, v.ID, "A", "a@x.com")
	require.NoError(t, err)

	_, err = svc.AddStudent(ctx, v.ID, "A", "a@x.com")
	assert.ErrorIs(t, err, ErrCapacityExceeded)
}

func TestAddStudent_ConcurrentRespectsCapacity(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	v, _ := svc.CreateCourse(ctx, "Go", "", 5)

	var ok, full atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := svc.AddStudent(ctx, v.ID, "S", fmt.Sprintf("s%d@d%d.com", n, n))
			switch {
			case err == nil:
				ok.Add(1)
			case errdefs.IsConflict(err):
				full.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int64(5), ok.Load())
	assert.Equal(t, int64(15), full.Load())

	got, err := svc.GetCourse(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.CurrentStudents)
	assert.Equal(t, 100.0, got.DiversityIndex)
}

func TestUpdateCourse_BelowEnrollment(t *testing.T) {
	svc, _, c := newTestService()
	ctx := context.Background()

	v, _ := svc.CreateCourse(ctx, "Go", "desc", 3)
	_, _ = svc.AddStudent(ctx, v.ID, "A", "a@x.com")
	_, _ = svc.AddStudent(ctx, v.ID, "B", "b@x.com")
	before, _ := svc.GetCourse(ctx, v.ID)
	invalidations := len(c.invalidations())

	_, err := svc.UpdateCourse(ctx, v.ID, UpdateInput{Name: strPtr("New"), MaxCapacity: intPtr(1)})

	assert.ErrorIs(t, err, ErrCapacityBelowEnrollment)
	assert.True(t, errdefs.IsConflict(err))
	assert.Len(t, c.invalidations(), invalidations)

	after, _ := svc.GetCourse(ctx, v.ID)
	assert.Equal(t, before, after)
}

func TestUpdateCourse_ToCurrentEnrollment(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	v, _ := svc.CreateCourse(ctx, "Go", "", 3)
	_, _ = svc.AddStudent(ctx, v.ID, "A", "a@x.com")

	got, err := svc.UpdateCourse(ctx, v.ID, UpdateInput{MaxCapacity: intPtr(1)})
	require.NoError(t, err)
	assert.Equal(t, 1, got.MaxCapacity)

	_, err = svc.AddStudent(ctx, v.ID, "B", "b@x.com")
	assert.ErrorIs(t, err, ErrCapacityExceeded)
}

func TestUpdateCourse_PartialFields(t *testing.T) {
	svc, _, c := newTestService()
	ctx := context.Background()
	v, _ := svc.CreateCourse(ctx, "Go", "desc", 3)

	got, err := svc.UpdateCourse(ctx, v.ID, UpdateInput{Description: strPtr("new desc")})
	require.NoError(t, err)

	assert.Equal(t, "Go", got.Name)
	assert.Equal(t, "new desc", got.Description)
	assert.Equal(t, 3, got.MaxCapacity)
	assert.False(t, got.UpdatedAt.Before(v.UpdatedAt))
	assert.Equal(t, []string{v.ID, v.ID}, c.invalidations())
}

func TestUpdateCourse_Errors(t *testing.T) {
	svc, _, c := newTestService()
	ctx := context.Background()
	v, _ := svc.CreateCourse(ctx, "Go", "", 3)
	base := len(c.invalidations())

	tests := []struct {
		name  string
		id    string
		in    UpdateInput
		check func(error) bool
	}{
		{"not found", "missing", UpdateInput{Name: strPtr("x")}, errdefs.IsNotFound},
		{"zero capacity", v.ID, UpdateInput{MaxCapacity: intPtr(0)}, errdefs.IsInvalidArgument},
		{"missing course checked before capacity", "missing", UpdateInput{MaxCapacity: intPtr(0)}, errdefs.IsNotFound},
		{"empty name", v.ID, UpdateInput{Name: strPtr("")}, errdefs.IsInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.UpdateCourse(ctx, tt.id, tt.in)
			require.Error(t, err)
			assert.True(t, tt.check(err), "unexpected error kind: %v", err)
		})
	}
	assert.Len(t, c.invalidations(), base)
}

func TestDeleteCourse_CascadesAndInvalidates(t *testing.T) {
	svc, repo, c := newTestService()
	ctx := context.Background()

	v, _ := svc.CreateCourse(ctx, "Go", "", 3)
	a, _ := svc.AddStudent(ctx, v.ID, "A", "a@x.com")
	b, _ := svc.AddStudent(ctx, v.ID, "B", "b@y.com")
	_, err := svc.GetCourse(ctx, v.ID)
	require.NoError(t, err)
	_, cached := c.Peek(v.ID)
	require.True(t, cached)

	require.NoError(t, svc.DeleteCourse(ctx, v.ID))

	for _, id := range []string{a.ID, b.ID} {
		_, err := repo.FindStudent(ctx, id)
		assert.ErrorIs(t, err, repository.ErrStudentNotFound)
	}
	_, cached = c.Peek(v.ID)
	assert.False(t, cached)

	_, err = svc.GetCourse(ctx, v.ID)
	assert.ErrorIs(t, err, repository.ErrCourseNotFound)
}

func TestDeleteCourse_NotFound(t *testing.T) {
	svc, _, c := newTestService()

	err := svc.DeleteCourse(context.Background(), "missing")

	assert.True(t, errdefs.IsNotFound(err))
	assert.Empty(t, c.invalidations())
}

func TestRemoveStudent_NotFound(t *testing.T) {
	svc, _, c := newTestService()

	err := svc.RemoveStudent(context.Background(), "missing")

	assert.ErrorIs(t, err, repository.ErrStudentNotFound)
	assert.Empty(t, c.invalidations())
}

func TestRemoveStudent_InvalidatesOwningCourse(t *testing.T) {
	svc, _, c := newTestService()
	ctx := context.Background()

	v1, _ := svc.CreateCourse(ctx, "Go", "", 3)
	v2, _ := svc.CreateCourse(ctx, "Rust", "", 3)
	st, _ := svc.AddStudent(ctx, v2.ID, "A", "a@x.com")

	require.NoError(t, svc.RemoveStudent(ctx, st.ID))

	inv := c.invalidations()
	assert.Equal(t, v2.ID, inv[len(inv)-1])
	assert.NotContains(t, inv[2:], v1.ID)
}

func TestMutationsForceRecompute(t *testing.T) {
	svc, _, c := newTestService()
	ctx := context.Background()
	v, _ := svc.CreateCourse(ctx, "Go", "", 10)
	_, _ = svc.AddStudent(ctx, v.ID, "A", "a@x.com")

	_, _ = svc.GetCourse(ctx, v.ID)
	_, _ = svc.GetCourse(ctx, v.ID)
	require.Equal(t, int64(1), c.calcs.Load(), "unchanged membership must be served from cache")

	steps := []struct {
		name string
		run  func() error
	}{
		{"add student", func() error { _, err := svc.AddStudent(ctx, v.ID, "B", "b@x.com"); return err }},
		{"update course", func() error { _, err := svc.UpdateCourse(ctx, v.ID, UpdateInput{Name: strPtr("Go 2")}); return err }},
		{"remove student", func() error {
			students, _ := svc.ListStudents(ctx, v.ID)
			return svc.RemoveStudent(ctx, students[0].ID)
		}},
	}

	for _, step := range steps {
		t.Run(step.name, func(t *testing.T) {
			before := c.calcs.Load()
			require.NoError(t, step.run())
			inv := c.invalidations()
			assert.Equal(t, v.ID, inv[len(inv)-1])

			_, err := svc.GetCourse(ctx, v.ID)
			require.NoError(t, err)
			assert.Equal(t, before+1, c.calcs.Load(), "exactly one recomputation expected after %s", step.name)
		})
	}
}

func TestListCourses(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	v1, _ := svc.CreateCourse(ctx, "Go", "", 3)
	v2, _ := svc.CreateCourse(ctx, "Rust", "", 3)
	_, _ = svc.AddStudent(ctx, v2.ID, "A", "a@x.com")
	_, _ = svc.AddStudent(ctx, v2.ID, "B", "b@x.com")

	views, err := svc.ListCourses(ctx)
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, v1.ID, views[0].ID)
	assert.Equal(t, 0, views[0].CurrentStudents)
	assert.Zero(t, views[0].DiversityIndex)
	assert.Equal(t, 2, views[1].CurrentStudents)
	assert.Equal(t, 50.0, views[1].DiversityIndex)
}

func TestListStudents_CourseNotFound(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.ListStudents(context.Background(), "missing")

	assert.True(t, errdefs.IsNotFound(err))
}

func TestDiversityDetails(t *testing.T) {
	svc, _, c := newTestService()
	ctx := context.Background()

	v, _ := svc.CreateCourse(ctx, "Go", "", 5)
	for _, e := range []string{"a@x.com", "b@x.com", "c@y.com"} {
		_, err := svc.AddStudent(ctx, v.ID, "S", e)
		require.NoError(t, err)
	}

	d, err := svc.DiversityDetails(ctx, v.ID)
	require.NoError(t, err)

	assert.Equal(t, 3, d.TotalStudents)
	assert.Equal(t, 2, d.UniqueDomains)
	assert.Equal(t, 66.67, d.DiversityIndex)
	assert.Equal(t, []diversity.DomainCount{{Domain: "x.com", Count: 2}, {Domain: "y.com", Count: 1}}, d.Domains)

	entry, ok := c.Peek(v.ID)
	require.True(t, ok)
	assert.Equal(t, []string{"a@x.com", "b@x.com", "c@y.com"}, entry.Emails)

	_, err = svc.DiversityDetails(ctx, "missing")
	assert.True(t, errdefs.IsNotFound(err))
}

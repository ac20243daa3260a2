package repository

import (
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
)

func TestCourse_Enrolled(t *testing.T) {
	c := Course{MaxCapacity: 3}
	if c.Enrolled() != 0 {
		t.Errorf("expected 0 enrolled, got %d", c.Enrolled())
	}

	c.Students = []Student{{Email: "a@x.com"}, {Email: "b@x.com"}}
	if c.Enrolled() != 2 {
		t.Errorf("expected 2 enrolled, got %d", c.Enrolled())
	}
}

func TestSortedEmails(t *testing.T) {
	students := []Student{{Email: "c@z.com"}, {Email: "a@x.com"}, {Email: "b@y.com"}}
	assert.Equal(t, []string{"a@x.com", "b@y.com", "c@z.com"}, SortedEmails(students))
	assert.Equal(t, []string{}, SortedEmails(nil))
	// input untouched
	assert.Equal(t, "c@z.com", students[0].Email)
}

func TestCloneCourse_IndependentStudents(t *testing.T) {
	c := Course{ID: "c1", Students: []Student{{ID: "s1", Email: "a@x.com"}}}

	clone := cloneCourse(c)
	clone.Students[0].Email = "changed@x.com"

	if c.Students[0].Email != "a@x.com" {
		t.Error("expected clone to not share the students slice")
	}
	if cloneCourse(Course{}).Students != nil {
		t.Error("expected nil students to stay nil")
	}
}

func TestModel_ValidationTags(t *testing.T) {
	v := validator.New()
	valid := Student{Name: "A", Email: "a@x.com", CourseID: "c1"}

	tests := []struct {
		name    string
		value   any
		wantErr bool
	}{
		{"valid course", Course{Name: "Go", MaxCapacity: 1}, false},
		{"course without name", Course{MaxCapacity: 1}, true},
		{"course name too long", Course{Name: strings.Repeat("a", 256), MaxCapacity: 1}, true},
		{"course zero capacity", Course{Name: "Go"}, true},
		{"course with invalid student", Course{Name: "Go", MaxCapacity: 1, Students: []Student{{Name: "A"}}}, true},
		{"valid student", valid, false},
		{"student without email", Student{Name: "A", CourseID: "c1"}, true},
		{"student without course", Student{Name: "A", Email: "a@x.com"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Struct(tt.value)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

package repository

import (
	"sort"
	"time"
)

// Course is the aggregate root; it exclusively owns its Students.
type Course struct {
	ID          string    `json:"id"`
	Name        string    `json:"name" validate:"required,max=255"`
	Description string    `json:"description"`
	MaxCapacity int       `json:"maxCapacity" validate:"min=1"`
	Students    []Student `json:"students,omitempty" validate:"dive"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Student belongs to exactly one Course. (Email, CourseID) is unique.
type Student struct {
	ID        string    `json:"id"`
	Name      string    `json:"name" validate:"required,max=255"`
	Email     string    `json:"email" validate:"required,max=255"`
	CourseID  string    `json:"courseId" validate:"required"`
	CreatedAt time.Time `json:"createdAt"`
}

// Enrolled returns the number of students currently in the course.
func (c Course) Enrolled() int {
	return len(c.Students)
}

// SortedEmails returns the member emails in ascending order.
func SortedEmails(students []Student) []string {
	emails := make([]string, len(students))
	for i, s := range students {
		emails[i] = s.Email
	}
	sort.Strings(emails)
	return emails
}

func cloneCourse(c Course) Course {
	out := c
	if c.Students != nil {
		out.Students = make([]Student, len(c.Students))
		copy(out.Students, c.Students)
	}
	return out
}

package controller

// CreateCourseRequest is the body of POST /courses.
type CreateCourseRequest struct {
	Name        string `json:"name" validate:"required,max=255"`
	Description string `json:"description" validate:"required"`
	MaxCapacity int    `json:"maxCapacity" validate:"required,min=1"`
}

// UpdateCourseRequest is the body of PATCH /courses/:id. Absent fields are left unchanged.
type UpdateCourseRequest struct {
	Name        *string `json:"name" validate:"omitnil,min=1,max=255"`
	Description *string `json:"description"`
	MaxCapacity *int    `json:"maxCapacity" validate:"omitnil,min=1"`
}

// AddStudentRequest is the body of POST /courses/:id/students.
type AddStudentRequest struct {
	Name  string `json:"name" validate:"required,max=255"`
	Email string `json:"email" validate:"required,email,max=255"`
}

package integration_test

const (
	// Profile related constants
	TestStudentId       = 1
	TestStudentName     = "Jinho Park"
	TestStudentEmail    = "student@example.com"
	TestStudentPassword = "Test123!@#"

	TestAdminId       = 2
	TestAdminName     = "Academy Admin"
	TestAdminEmail    = "admin@example.com"
	TestAdminPassword = "Admin123!@#"

	// Catalog related constants
	TestCurriculumId    = 1
	TestCurriculumName  = "Robotics Foundations"
	TestCurriculumPrice = 500000

	TestCourseId    = 1
	TestCourseName  = "Intro to AI"
	TestCoursePrice = 150000
)

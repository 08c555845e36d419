package services

// ServiceContainer groups the application services for wiring at boot.
type ServiceContainer struct {
	Auth   AuthService
	Exam   ExamService
	Result ResultService
}

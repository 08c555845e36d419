package handlers

// AppHandlers groups the HTTP handlers for route registration.
type AppHandlers struct {
	Auth   *AuthHandler
	Exam   *ExamHandler
	Result *ResultHandler
}

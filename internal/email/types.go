package email

// Email is one outbound message. Text and HTML bodies are both set for
// verification mail; clients pick whichever they render.
type Email struct {
	To       string
	Subject  string
	Body     string
	HTMLBody string
}

// Config carries the SMTP transport settings.
type Config struct {
	Host      string
	Port      int
	Username  string
	Password  string
	FromEmail string
	FromName  string
}

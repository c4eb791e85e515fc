package core

// Logger is the application-wide structured logger.
// args may carry errors, map[string]interface{} extras and at most one Actor.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}

// Actor identifies the authenticated caller of a request, for error reports.
type Actor struct {
	ID    string
	Name  string
	Email string
}

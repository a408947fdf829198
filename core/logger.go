package core

// Logger is the app-wide logging & error reporting interface.
// args may hold errors, map[string]interface{} extras and key/value pairs.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}

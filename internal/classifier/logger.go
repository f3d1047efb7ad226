package classifier

import "log"

// Logf is the package diagnostic logger. It defaults to log.Printf and may be
// replaced by SetLogger so tests can mute or capture warnings.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil installs a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

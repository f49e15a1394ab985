// Package monitoring carries the package-level diagnostic logger shared by
// the library and its tools.
package monitoring

import "log"

// Logf is the diagnostic logger. It defaults to log.Printf; hosts embedding
// the component can redirect or mute it with SetLogger.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil installs a no-op.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

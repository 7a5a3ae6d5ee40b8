package common

import (
	"fmt"
	"log"
)

// Logger collects log entries so handlers can return them to the UI
type Logger struct {
	Entries []*LogEntry
	// FatalFunc overrides the exit behaviour of Fatal when set
	FatalFunc func(format string, v ...interface{})
}

// LogEntry contains the message and metadata
type LogEntry struct {
	IsError bool
	Msg     string
}

// NewLog creates a new logger
func NewLog() *Logger {
	return &Logger{}
}

// Dbg prints an informational message without collecting it
func (l *Logger) Dbg(format string, v ...interface{}) {
	log.Printf("%s\n", fmt.Sprintf(format, v...))
}

// Msg logs an informational message
func (l *Logger) Msg(format string, v ...interface{}) {
	msg := fmt.Sprintf(format, v...)
	log.Println(msg)
	l.Entries = append(l.Entries, &LogEntry{false, msg})
}

// Err logs an error message
func (l *Logger) Err(format string, v ...interface{}) {
	msg := fmt.Sprintf(format, v...)
	log.Printf("%s\n", fmt.Sprintf("Error: %s", msg))
	l.Entries = append(l.Entries, &LogEntry{true, msg})
}

// Fatal logs the message and exits unless FatalFunc is set
func (l *Logger) Fatal(format string, v ...interface{}) {
	if l.FatalFunc != nil {
		l.FatalFunc(format, v...)
		return
	}
	log.Fatalf(format, v...)
}

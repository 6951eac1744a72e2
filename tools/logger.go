package tools

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

const (
	TagCamera = "[Camera]"
	TagExport = "[Export]"
	TagSystem = "[System]"
	TagVerify = "[Verify]"
)

var (
	isEnabled      = true
	printTimestamp = true
	logWriter      io.Writer = os.Stdout
	logMu          sync.Mutex
)

func EnableLogger() {
	isEnabled = true
}

func DisableLogger() {
	isEnabled = false
}

func EnableLoggerTimestamp() {
	printTimestamp = true
}

func DisableLoggerTimestamp() {
	printTimestamp = false
}

// SetLogOutput redirects console messages, e.g. away from a full screen UI.
func SetLogOutput(w io.Writer) {
	logMu.Lock()
	defer logMu.Unlock()
	logWriter = w
}

// LogOutput prints a user facing message prefixed by tag.
func LogOutput(tag string, val ...interface{}) {
	if !isEnabled {
		return
	}
	logMu.Lock()
	defer logMu.Unlock()
	if printTimestamp {
		fmt.Fprint(logWriter, "["+time.Now().Format("2006-01-02 15.04:05.000")+"] ")
	}
	fmt.Fprintln(logWriter, append([]interface{}{tag}, val...)...)
}

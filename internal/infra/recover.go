package infra

import (
	"fmt"
	"runtime"
	"strings"

	log "github.com/sirupsen/logrus"
)

// GoRecoverable runs f and restarts it in a new goroutine when it panics.
// maxPanics limits the restarts, a negative value means no limit and zero
// makes the next panic fatal.
func GoRecoverable(maxPanics int, id string, f func()) {
	defer func() {
		err := recover()
		if err == nil {
			return
		}
		entry := log.WithField("job", id)
		entry.Errorf("panic: %s, %s", err, identifyPanic())
		switch {
		case maxPanics == 0:
			entry.Fatal("panics limit exceeded, exiting")
		case maxPanics > 0:
			maxPanics--
			entry.WithField("panics_left", maxPanics).Debug("recovering job")
		default:
			entry.Debug("recovering job")
		}
		go GoRecoverable(maxPanics, id, f)
	}()
	f()
}

// Recover logs and swallows a panic of job id. Use it as a deferred call.
func Recover(id string) {
	if err := recover(); err != nil {
		log.WithField("job", id).Errorf("panic: %s, %s", err, identifyPanic())
	}
}

func identifyPanic() string {
	var name, file string
	var line int
	var pc [16]uintptr

	n := runtime.Callers(3, pc[:])
	for _, pc := range pc[:n] {
		fn := runtime.FuncForPC(pc)
		if fn == nil {
			continue
		}
		file, line = fn.FileLine(pc)
		name = fn.Name()
		if !strings.HasPrefix(name, "runtime.") {
			break
		}
	}

	switch {
	case name != "":
		return fmt.Sprintf("%v:%v", name, line)
	case file != "":
		return fmt.Sprintf("%v:%v", file, line)
	}

	return fmt.Sprintf("pc:%x", pc)
}

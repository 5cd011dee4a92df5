package log

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/kataras/pio"
)

type Level uint32

const (
	DisableLevel Level = iota
	ErrorLevel
	WarnLevel
	InfoLevel
	DebugLevel
)

var levelName = map[Level]string{
	ErrorLevel: "ERRO",
	WarnLevel:  "WARN",
	InfoLevel:  "INFO",
	DebugLevel: "DBUG",
}

var (
	mu      sync.Mutex
	level   = InfoLevel
	printer = pio.NewPrinter("", os.Stdout)
)

func SetLevel(name string) {
	mu.Lock()
	defer mu.Unlock()
	switch strings.ToLower(name) {
	case "disable", "off":
		level = DisableLevel
	case "error":
		level = ErrorLevel
	case "warn", "warning":
		level = WarnLevel
	case "info":
		level = InfoLevel
	case "debug":
		level = DebugLevel
	}
}

func Debug(v ...interface{}) {
	print(DebugLevel, v...)
}

func Info(v ...interface{}) {
	print(InfoLevel, v...)
}

func Warn(v ...interface{}) {
	print(WarnLevel, v...)
}

func Error(v ...interface{}) {
	print(ErrorLevel, v...)
}

func print(l Level, v ...interface{}) {
	mu.Lock()
	enabled := l <= level
	mu.Unlock()
	if !enabled {
		return
	}
	line := fmt.Sprintf("%s [%s] %s",
		time.Now().Format("2006/01/02 15:04:05"), levelName[l], fmt.Sprint(v...))
	printer.Println(line)
}

package logger

import (
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

const timeLayout = "2006-01-02 15:04:05.000000"

// lineFormatter renders entries as "[time] LEVEL: name: message".
type lineFormatter struct {
	color bool
}

func (f *lineFormatter) Format(e *logrus.Entry) ([]byte, error) {
	return []byte(formatLine(e, f.color) + "\n"), nil
}

func formatLine(e *logrus.Entry, colored bool) string {
	level, _ := e.Data[keyLevel].(Level)
	tag := level.String()
	if c, ok := levelColors[level]; ok && colored {
		tag = c.Sprint(tag)
	}

	var b strings.Builder
	b.WriteString("[")
	b.WriteString(e.Time.UTC().Format(timeLayout))
	b.WriteString("] ")
	b.WriteString(tag)
	b.WriteString(": ")
	if name, ok := e.Data[keyName].(string); ok && name != "" {
		b.WriteString(name)
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	return b.String()
}

// fileHook appends the uncoloured line to the entry's file destination.
type fileHook struct {
	mu sync.Mutex
}

func (h *fileHook) Levels() []logrus.Level { return logrus.AllLevels }

func (h *fileHook) Fire(e *logrus.Entry) error {
	path, _ := e.Data[keyFile].(string)
	if path == "" {
		return nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.WriteString(formatLine(e, false) + "\n")
	return err
}

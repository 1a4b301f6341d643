package worker

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const LogFileName = "notifications.log"

var errEmptyLine = errors.New("пустая строка журнала")

// FileLog дописывает строки в <dir>/notifications.log.
// Файл только растёт: ротации и перезаписи нет
type FileLog struct {
	dir string
	mtx sync.Mutex
}

func NewFileLog(dir string) *FileLog {
	return &FileLog{dir: dir}
}

func (f *FileLog) Path() string {
	return filepath.Join(f.dir, LogFileName)
}

// Append создаёт каталог при необходимости, каталог могут удалить между вызовами
func (f *FileLog) Append(line string) error {
	line = strings.TrimRight(line, "\n")
	if line == "" {
		return errEmptyLine
	}

	f.mtx.Lock()
	defer f.mtx.Unlock()

	if err := os.MkdirAll(f.dir, 0o755); err != nil {
		return fmt.Errorf("создание каталога %s: %w", f.dir, err)
	}

	file, err := os.OpenFile(f.Path(), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("открытие журнала: %w", err)
	}

	if _, err := file.WriteString(line + "\n"); err != nil {
		_ = file.Close()
		return fmt.Errorf("запись строки: %w", err)
	}

	if err := file.Close(); err != nil {
		return fmt.Errorf("закрытие журнала: %w", err)
	}
	return nil
}

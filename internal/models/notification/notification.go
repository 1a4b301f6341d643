package notification

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"
)

const TypeDueSoon = "due_soon"

// ISO-8601 в UTC с миллисекундами
const TimeLayout = "2006-01-02T15:04:05.000Z07:00"

var ErrMalformed = errors.New("некорректное сообщение уведомления")

// Message - запись в очереди. Общая схема для API и воркера, других связей между ними нет
type Message struct {
	Type       string `json:"type"`
	TaskID     string `json:"taskId"`
	Title      string `json:"title"`
	DueDate    string `json:"dueDate"`
	EnqueuedAt string `json:"enqueuedAt"`
}

func NewDueSoon(taskID, title string, dueDate, enqueuedAt time.Time) Message {
	return Message{
		Type:       TypeDueSoon,
		TaskID:     taskID,
		Title:      title,
		DueDate:    FormatTime(dueDate),
		EnqueuedAt: FormatTime(enqueuedAt),
	}
}

func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

func (m Message) Encode() ([]byte, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("сериализация уведомления: %w", err)
	}
	return data, nil
}

func Decode(raw []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		return Message{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if msg.Type != TypeDueSoon {
		return Message{}, fmt.Errorf("%w: неизвестный тип %q", ErrMalformed, msg.Type)
	}
	if msg.TaskID == "" {
		return Message{}, fmt.Errorf("%w: пустой taskId", ErrMalformed)
	}
	// taskId и dueDate пишутся в журнал без кавычек, одна запись должна остаться одной строкой
	if hasControl(msg.TaskID) {
		return Message{}, fmt.Errorf("%w: управляющие символы в taskId", ErrMalformed)
	}
	if _, err := time.Parse(time.RFC3339Nano, msg.DueDate); err != nil || hasControl(msg.DueDate) {
		return Message{}, fmt.Errorf("%w: неверный dueDate %q", ErrMalformed, msg.DueDate)
	}
	return msg, nil
}

func hasControl(s string) bool {
	return strings.IndexFunc(s, unicode.IsControl) >= 0
}

// LogLine - строка журнала уведомлений, без перевода строки
func (m Message) LogLine(at time.Time) string {
	return fmt.Sprintf("[%s] type=%s taskId=%s title=%s dueDate=%s",
		FormatTime(at), m.Type, m.TaskID, quote(m.Title), m.DueDate)
}

// quote экранирует как JSON-строку, но без замены <, > и &
func quote(s string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return `""`
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n"))
}

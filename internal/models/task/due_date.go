package task

import (
	"errors"
	"strings"
	"time"
)

var ErrInvalidDueDate = errors.New("неверный формат дедлайна")

// форматы ISO-8601, которые принимает API; время без смещения считается UTC
var dueDateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
}

// DueDate вычисляется заново при каждом создании и обновлении и нигде не хранится
type DueDate struct {
	value time.Time
}

func ParseDueDate(input string) (*DueDate, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, ErrInvalidDueDate
	}

	for _, layout := range dueDateLayouts {
		parsed, err := time.Parse(layout, input)
		if err == nil {
			return DueDateFrom(parsed), nil
		}
	}
	return nil, ErrInvalidDueDate
}

func DueDateFrom(value time.Time) *DueDate {
	return &DueDate{value: value.UTC().Truncate(time.Microsecond)}
}

func (d *DueDate) Value() time.Time {
	return d.value
}

func (d *DueDate) IsWithinNextHours(hours int) bool {
	return d.isWithinNextHoursAt(time.Now(), hours)
}

// окно [now, now+hours], обе границы включены
func (d *DueDate) isWithinNextHoursAt(now time.Time, hours int) bool {
	limit := now.Add(time.Duration(hours) * time.Hour)
	return !d.value.Before(now) && !d.value.After(limit)
}

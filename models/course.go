package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Discipline string

const (
	DisciplineMath  Discipline = "Math"
	DisciplineCS    Discipline = "CS"
	DisciplineOther Discipline = "Other"
)

// Disciplines lists every accepted course discipline.
var Disciplines = []Discipline{DisciplineMath, DisciplineCS, DisciplineOther}

// ParseDiscipline matches value against the known disciplines ignoring case.
func ParseDiscipline(value string) (Discipline, bool) {
	value = strings.TrimSpace(value)
	for _, d := range Disciplines {
		if strings.EqualFold(string(d), value) {
			return d, true
		}
	}
	return "", false
}

// Course represents a completed course
type Course struct {
	ID         uuid.UUID  `json:"id" db:"id" gorm:"type:uuid;primaryKey;not null"`
	Code       string     `json:"code" db:"code" gorm:"type:text;not null"`
	Name       string     `json:"name" db:"name" gorm:"type:text;not null"`
	Discipline Discipline `json:"discipline" db:"discipline" gorm:"type:varchar(16);not null;index:courses_discipline_idx;check:courses_discipline_check,discipline IN ('Math','CS','Other')"`
	CreatedAt  time.Time  `json:"createdAt" db:"created_at" gorm:"not null"`
}

func (c *Course) BeforeCreate(_ *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

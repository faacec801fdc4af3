package models

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// IncidentStatus - статус жизненного цикла инцидента
type IncidentStatus string

const (
	StatusPending            IncidentStatus = "PENDING"
	StatusUnderInvestigation IncidentStatus = "UNDER_INVESTIGATION"
	StatusResolved           IncidentStatus = "RESOLVED"
)

// Human возвращает статус в читаемом виде для заметок и писем
func (s IncidentStatus) Human() string {
	return strings.ReplaceAll(string(s), "_", " ")
}

// Valid проверяет, что статус входит в известный набор
func (s IncidentStatus) Valid() bool {
	switch s {
	case StatusPending, StatusUnderInvestigation, StatusResolved:
		return true
	}
	return false
}

// Categories - фиксированный каталог категорий инцидентов
var Categories = []string{
	"Theft",
	"Assault",
	"Burglary",
	"Vandalism",
	"Fraud",
	"Harassment",
	"Other",
}

var ErrIncidentNotFound = errors.New("incident not found")

// StatusUpdate - запись аудита о смене статуса. Только добавление, без удаления и перестановок.
type StatusUpdate struct {
	Status    IncidentStatus `json:"status"`
	ChangedAt time.Time      `json:"changed_at"`
	Note      string         `json:"note,omitempty"`
}

type Incident struct {
	ID            uuid.UUID      `json:"id"`
	ReporterID    uuid.UUID      `json:"reporter_id"`
	ReporterEmail string         `json:"reporter_email"`
	Title         string         `json:"title"`
	Category      string         `json:"category"`
	Location      string         `json:"location"`
	Description   string         `json:"description"`
	Status        IncidentStatus `json:"status"`
	CreatedAt     time.Time      `json:"created_at"`
	LastUpdatedAt time.Time      `json:"last_updated_at"`
	// StatusHistory никогда не пуста: первая запись фиксирует PENDING в момент создания
	StatusHistory []StatusUpdate `json:"status_history"`
}

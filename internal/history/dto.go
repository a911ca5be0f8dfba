package history

import (
	"time"

	"github.com/google/uuid"

	"github.com/debugly/debugly-backend/pkg/db/models"
)

// ItemDTO is the transport shape for a recorded debug session.
type ItemDTO struct {
	ID        uuid.UUID `json:"id"`
	Code      string    `json:"code"`
	Result    string    `json:"result"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

func FromModel(item *models.DebugHistoryItem) *ItemDTO {
	if item == nil {
		return nil
	}
	return &ItemDTO{
		ID:        item.ID,
		Code:      item.Code,
		Result:    item.Result,
		Title:     item.Title,
		CreatedAt: item.CreatedAt,
	}
}

func FromModels(items []models.DebugHistoryItem) []ItemDTO {
	dtos := make([]ItemDTO, 0, len(items))
	for i := range items {
		dtos = append(dtos, *FromModel(&items[i]))
	}
	return dtos
}

package analysis

import (
	"strings"

	"github.com/samber/lo"
	"github.com/spacesedan/sentireport/internal/models"
)

// FilterByEntity keeps records whose text contains entity, ignoring case. The
// entity is matched literally. An empty entity keeps every record.
func FilterByEntity(records []models.Record, entity string) []models.Record {
	needle := strings.ToLower(strings.TrimSpace(entity))
	if needle == "" {
		return records
	}

	return lo.Filter(records, func(r models.Record, _ int) bool {
		return strings.Contains(strings.ToLower(r.Text), needle)
	})
}

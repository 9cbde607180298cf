package queries

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/felixgeelhaar/salonops/internal/blocking/application"
	"github.com/felixgeelhaar/salonops/internal/blocking/domain"
)

var ErrProfessionalRequired = errors.New("professional id is required")

// BlockDTO is a data transfer object for schedule blocks.
type BlockDTO struct {
	ID             string
	ProfessionalID string
	LocationID     string
	Date           time.Time
	StartTime      string
	EndTime        string
	Reason         string
	SeriesID       string
	Recurring      bool
}

// ListBlocksQuery contains the parameters for listing a professional's blocks.
// From and To are optional inclusive date bounds.
type ListBlocksQuery struct {
	Session        application.Session
	ProfessionalID string
	From           time.Time
	To             time.Time
}

// ListBlocksHandler handles the ListBlocksQuery.
type ListBlocksHandler struct {
	api application.BlockAPI
}

// NewListBlocksHandler creates a new ListBlocksHandler.
func NewListBlocksHandler(api application.BlockAPI) *ListBlocksHandler {
	return &ListBlocksHandler{api: api}
}

// Handle executes the ListBlocksQuery. Blocks are returned ordered by date
// and start time.
func (h *ListBlocksHandler) Handle(ctx context.Context, query ListBlocksQuery) ([]BlockDTO, error) {
	if strings.TrimSpace(query.ProfessionalID) == "" {
		return nil, ErrProfessionalRequired
	}

	blocks, err := h.api.ListBlocks(ctx, query.Session, query.ProfessionalID)
	if err != nil {
		return nil, err
	}

	from := domain.DateOnly(query.From)
	to := domain.DateOnly(query.To)
	dtos := make([]BlockDTO, 0, len(blocks))
	for _, b := range blocks {
		if !query.From.IsZero() && b.Date.Before(from) {
			continue
		}
		if !query.To.IsZero() && b.Date.After(to) {
			continue
		}
		dtos = append(dtos, toBlockDTO(b))
	}

	sort.SliceStable(dtos, func(i, j int) bool {
		if !dtos[i].Date.Equal(dtos[j].Date) {
			return dtos[i].Date.Before(dtos[j].Date)
		}
		return dtos[i].StartTime < dtos[j].StartTime
	})
	return dtos, nil
}

func toBlockDTO(b domain.ScheduleBlock) BlockDTO {
	dto := BlockDTO{
		ID:             b.ID,
		ProfessionalID: b.ProfessionalID,
		LocationID:     b.LocationID,
		Date:           b.Date,
		StartTime:      b.StartTime,
		EndTime:        b.EndTime,
		Reason:         b.Reason,
		Recurring:      b.IsRecurring(),
	}
	if b.Series != nil {
		dto.SeriesID = b.Series.ID
	}
	return dto
}

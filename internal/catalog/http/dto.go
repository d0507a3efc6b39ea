package http

import (
	"github.com/hmsaeedsiddiqui/wiwihood-sub002/internal/catalog"
)

type ServiceResponse struct {
	ID              string `json:"id"`
	ProviderID      string `json:"provider_id"`
	Name            string `json:"name"`
	BasePrice       string `json:"base_price"`
	DurationMinutes int    `json:"duration_minutes"`
	IsActive        bool   `json:"is_active"`
}

func NewServiceResponse(s *catalog.Service) ServiceResponse {
	return ServiceResponse{
		ID:              s.ID,
		ProviderID:      s.ProviderID,
		Name:            s.Name,
		BasePrice:       s.BasePrice.StringFixed(2),
		DurationMinutes: s.DurationMinutes,
		IsActive:        s.IsActive,
	}
}

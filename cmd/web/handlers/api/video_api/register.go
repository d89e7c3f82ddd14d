// package video_api manages the tracked video registry.
package video_api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"thirdcoast.systems/leadwatch/cmd/web/handlers/common"
	"thirdcoast.systems/leadwatch/internal/leads"
	"thirdcoast.systems/leadwatch/internal/registry"
)

type registerRequest struct {
	URL      string   `json:"url" validate:"required"`
	Keywords []string `json:"keywords" validate:"required,min=1,dive,max=200"`
}

// HandleRegister tracks a video, or updates keywords and reactivates it when
// the normalized URL is already known.
func HandleRegister(store registry.Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req registerRequest
		if err := common.BindAndValidate(c, &req); err != nil {
			return err
		}

		v, err := registry.Register(c.Request().Context(), store, req.URL, req.Keywords)
		if err != nil {
			return common.FromDomain(err)
		}
		return c.JSON(http.StatusOK, toVideoResponse(v))
	}
}

type videoResponse struct {
	ID            string   `json:"id"`
	SourceURL     string   `json:"source_url"`
	Keywords      []string `json:"keywords"`
	Active        bool     `json:"active"`
	LastCheckedAt *string  `json:"last_checked_at"`
	CreatedAt     string   `json:"created_at"`
}

func toVideoResponse(v leads.TrackedVideo) videoResponse {
	resp := videoResponse{
		ID:        v.ID.String(),
		SourceURL: v.SourceURL,
		Keywords:  v.Keywords,
		Active:    v.Active,
		CreatedAt: v.CreatedAt.UTC().Format(timeLayout),
	}
	if resp.Keywords == nil {
		resp.Keywords = []string{}
	}
	if v.LastCheckedAt != nil {
		s := v.LastCheckedAt.UTC().Format(timeLayout)
		resp.LastCheckedAt = &s
	}
	return resp
}

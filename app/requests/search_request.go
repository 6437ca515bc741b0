package requests

import "github.com/busvas-search/app/models"

type SearchRequest struct {
	Origin      string `json:"origin" form:"origin"`
	Destination string `json:"destination" form:"destination"`
	UseCache    *bool  `json:"use_cache,omitempty" form:"use_cache"`
}

// CacheEnabled defaults to true when the field is absent
func (r SearchRequest) CacheEnabled() bool {
	return r.UseCache == nil || *r.UseCache
}

type CreateSessionRequest struct {
	Owner string `json:"owner"`
}

type SelectRequest struct {
	ProvinceID string `json:"province_id"`
	TerminalID string `json:"terminal_id"`
}

type MapLinksRequest struct {
	IDs []string `json:"ids" binding:"required,min=1,max=500"`
}

type ToggleFavoriteRequest struct {
	Route models.FavoriteRoute `json:"route"`
}

type SetFlagRequest struct {
	Favorite bool `json:"favorito"`
}

type WarmRequest struct {
	Workers int `json:"workers" binding:"omitempty,min=1,max=64"`
}

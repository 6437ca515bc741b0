// Package search holds the in-memory route index and its optional Meilisearch mirror.
package search

import (
	"fmt"

	ms "github.com/meilisearch/meilisearch-go"
)

// ClientWrapper wraps the Meilisearch client with the few calls the mirror needs.
type ClientWrapper struct {
	cli ms.ServiceManager
}

func NewClientWrapper(url, key string) *ClientWrapper {
	return &ClientWrapper{cli: ms.New(url, ms.WithAPIKey(key))}
}

// SearchIndex runs a filtered query against one index
func (c *ClientWrapper) SearchIndex(index string, q string, filter string, limit int64) (*ms.SearchResponse, error) {
	req := &ms.SearchRequest{
		Limit: limit,
	}
	if filter != "" {
		req.Filter = filter
	}
	return c.cli.Index(index).Search(q, req)
}

// FilterTerminal restricts hits to one terminal, or to one province when terminalID is empty.
func FilterTerminal(provinceID, terminalID string) string {
	switch {
	case terminalID != "":
		return fmt.Sprintf("terminal_id = %q", terminalID)
	case provinceID != "":
		return fmt.Sprintf("province_id = %q", provinceID)
	default:
		return ""
	}
}

package external

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/busvas-search/app/models"
	"go.uber.org/zap"
)

var ErrEmptyResource = errors.New("resource is empty")

// ResourceLoader fetches the static JSON resources (dataset, cooperative
// metadata, synonyms) from local files or http(s) URLs.
type ResourceLoader struct {
	client *http.Client
	root   string
	logger *zap.Logger
}

// NewResourceLoader creates a loader; relative and root-anchored paths are resolved under root.
func NewResourceLoader(root string, timeout time.Duration, logger *zap.Logger) *ResourceLoader {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ResourceLoader{
		client: &http.Client{Timeout: timeout},
		root:   root,
		logger: logger,
	}
}

func isRemote(location string) bool {
	return strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://")
}

// Fetch returns the raw bytes at location.
func (rl *ResourceLoader) Fetch(ctx context.Context, location string) ([]byte, error) {
	if strings.TrimSpace(location) == "" {
		return nil, errors.New("empty resource location")
	}
	if isRemote(location) {
		return rl.fetchHTTP(ctx, location)
	}

	path := location
	if rl.root != "" {
		path = filepath.Join(rl.root, strings.TrimPrefix(location, "/"))
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return b, nil
}

func (rl *ResourceLoader) fetchHTTP(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request %s: %w", url, err)
	}
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Accept", "application/json")

	resp, err := rl.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", url, resp.StatusCode)
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body %s: %w", url, err)
	}
	return b, nil
}

// LoadDataset fetches and decodes the geographic dataset. The returned
// version is a content hash, used to key cached search results.
func (rl *ResourceLoader) LoadDataset(ctx context.Context, location string) (*models.Dataset, string, error) {
	b, err := rl.Fetch(ctx, location)
	if err != nil {
		return nil, "", err
	}
	var ds models.Dataset
	if err := json.Unmarshal(b, &ds); err != nil {
		return nil, "", fmt.Errorf("decode dataset %s: %w", location, err)
	}
	sum := sha256.Sum256(b)
	version := fmt.Sprintf("%x", sum[:6])

	rl.logger.Info("Dataset loaded",
		zap.String("location", location),
		zap.Int("provinces", len(ds.Provinces)),
		zap.Int("terminals", ds.TerminalCount()),
		zap.String("version", version))
	return &ds, version, nil
}

// LoadCooperativeInfo fetches coop.json: cooperative id → metadata.
func (rl *ResourceLoader) LoadCooperativeInfo(ctx context.Context, location string) (map[string]models.CooperativeInfo, error) {
	b, err := rl.Fetch(ctx, location)
	if err != nil {
		return nil, err
	}
	info := make(map[string]models.CooperativeInfo)
	if err := json.Unmarshal(b, &info); err != nil {
		return nil, fmt.Errorf("decode cooperative info %s: %w", location, err)
	}
	return info, nil
}

// LoadSynonyms accepts either a bare array of entries or {"entries": [...]}.
func (rl *ResourceLoader) LoadSynonyms(ctx context.Context, location string) ([]models.SynonymEntry, error) {
	b, err := rl.Fetch(ctx, location)
	if err != nil {
		return nil, err
	}
	entries, err := DecodeSynonyms(b)
	if err != nil {
		return nil, fmt.Errorf("decode synonyms %s: %w", location, err)
	}
	return entries, nil
}

func DecodeSynonyms(b []byte) ([]models.SynonymEntry, error) {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return nil, ErrEmptyResource
	}
	var entries []models.SynonymEntry
	if b[0] == '[' {
		if err := json.Unmarshal(b, &entries); err != nil {
			return nil, err
		}
	} else {
		var wrapped models.SynonymFile
		if err := json.Unmarshal(b, &wrapped); err != nil {
			return nil, err
		}
		entries = wrapped.Entries
	}
	if len(entries) == 0 {
		return nil, ErrEmptyResource
	}
	return entries, nil
}

// Package api CurseForge client.
// Handles mod, modpack, and resource pack searches against
// api.curseforge.com/v1. Unlike Modrinth, every request requires an API key
// (CurseForge's terms require one per consuming application), supplied at
// construction time rather than baked in.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const curseforgeBaseURL = "https://api.curseforge.com/v1"

// Minecraft's CurseForge game ID and the class IDs for the content types we
// care about; CurseForge namespaces everything under a game+class pair.
const (
	curseforgeGameIDMinecraft = 432
	curseforgeClassIDMod      = 6
	curseforgeClassIDModpack  = 4471
	curseforgeClassIDResource = 12
)

// CurseForgeClient handles CurseForge API interactions. apiKey is required —
// requests without one return 403 from CurseForge's edge.
type CurseForgeClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// NewCurseForgeClient creates a new CurseForge API client. apiKey typically
// comes from the CURSEFORGE_API_KEY environment variable at the call site.
func NewCurseForgeClient(apiKey string) *CurseForgeClient {
	return &CurseForgeClient{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    curseforgeBaseURL,
		apiKey:     apiKey,
	}
}

// CFMod represents a CurseForge mod/modpack/resource-pack listing.
type CFMod struct {
	ID            int          `json:"id"`
	GameID        int          `json:"gameId"`
	Name          string       `json:"name"`
	Slug          string       `json:"slug"`
	Summary       string       `json:"summary"`
	DownloadCount float64      `json:"downloadCount"`
	ClassID       int          `json:"classId"`
	Categories    []CFCategory `json:"categories"`
	Authors       []CFAuthor   `json:"authors"`
	Logo          CFAsset      `json:"logo"`
	LatestFiles   []CFFile     `json:"latestFiles"`
}

// CFCategory is a CurseForge content category.
type CFCategory struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// CFAuthor is a CurseForge mod author.
type CFAuthor struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// CFAsset is a CurseForge image asset (logo, screenshot).
type CFAsset struct {
	URL          string `json:"url"`
	ThumbnailURL string `json:"thumbnailUrl"`
}

// CFFile is a downloadable file attached to a mod.
type CFFile struct {
	ID              int      `json:"id"`
	ModID           int      `json:"modId"`
	FileName        string   `json:"fileName"`
	DisplayName     string   `json:"displayName"`
	DownloadURL     string   `json:"downloadUrl"`
	FileLength      int64    `json:"fileLength"`
	GameVersions    []string `json:"gameVersions"`
	ReleaseType     int      `json:"releaseType"` // 1=release, 2=beta, 3=alpha
	Hashes          []CFHash `json:"hashes"`
}

// CFHash is one checksum entry on a CFFile.
type CFHash struct {
	Value string `json:"value"`
	Algo  int    `json:"algo"` // 1=SHA1, 2=MD5
}

// CFSearchResult is the envelope CurseForge wraps list responses in.
type CFSearchResult struct {
	Data       []CFMod      `json:"data"`
	Pagination CFPagination `json:"pagination"`
}

// CFPagination is CurseForge's paging metadata.
type CFPagination struct {
	Index       int `json:"index"`
	PageSize    int `json:"pageSize"`
	ResultCount int `json:"resultCount"`
	TotalCount  int `json:"totalCount"`
}

// CFSearchOptions configures a mod search.
type CFSearchOptions struct {
	Query       string
	GameVersion string
	ModLoader   int // CurseForge mod loader type enum; 4 = Fabric, 1 = Forge, 5 = Quilt, 6 = NeoForge
	ClassID     int // defaults to curseforgeClassIDMod
	Index       int
	PageSize    int
}

func (c *CurseForgeClient) newRequest(ctx context.Context, method, reqURL string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	return req, nil
}

// Search searches CurseForge mods/modpacks/resource packs.
func (c *CurseForgeClient) Search(ctx context.Context, opts CFSearchOptions) (*CFSearchResult, error) {
	classID := opts.ClassID
	if classID == 0 {
		classID = curseforgeClassIDMod
	}

	params := url.Values{}
	params.Set("gameId", strconv.Itoa(curseforgeGameIDMinecraft))
	params.Set("classId", strconv.Itoa(classID))
	if opts.Query != "" {
		params.Set("searchFilter", opts.Query)
	}
	if opts.GameVersion != "" {
		params.Set("gameVersion", opts.GameVersion)
	}
	if opts.ModLoader != 0 {
		params.Set("modLoaderType", strconv.Itoa(opts.ModLoader))
	}
	if opts.PageSize > 0 {
		params.Set("pageSize", strconv.Itoa(opts.PageSize))
	} else {
		params.Set("pageSize", "20")
	}
	if opts.Index > 0 {
		params.Set("index", strconv.Itoa(opts.Index))
	}

	reqURL := fmt.Sprintf("%s/mods/search?%s", c.baseURL, params.Encode())
	req, err := c.newRequest(ctx, http.MethodGet, reqURL)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("searching: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var result CFSearchResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	return &result, nil
}

// GetMod fetches a single mod by its CurseForge numeric ID.
func (c *CurseForgeClient) GetMod(ctx context.Context, modID int) (*CFMod, error) {
	reqURL := fmt.Sprintf("%s/mods/%d", c.baseURL, modID)
	req, err := c.newRequest(ctx, http.MethodGet, reqURL)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching mod: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("mod not found: %d", modID)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var envelope struct {
		Data CFMod `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	return &envelope.Data, nil
}

// GetModFiles lists a mod's downloadable files, optionally filtered to one
// game version.
func (c *CurseForgeClient) GetModFiles(ctx context.Context, modID int, gameVersion string) ([]CFFile, error) {
	params := url.Values{}
	if gameVersion != "" {
		params.Set("gameVersion", gameVersion)
	}

	reqURL := fmt.Sprintf("%s/mods/%d/files", c.baseURL, modID)
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := c.newRequest(ctx, http.MethodGet, reqURL)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching files: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var envelope struct {
		Data []CFFile `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	return envelope.Data, nil
}

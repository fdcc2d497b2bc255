// Package content unifies Modrinth and CurseForge behind one search/install
// surface, so the UI and instance wizard don't need to know which backend a
// given mod came from.
package content

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/palethea/palethea-launcher/internal/api"
	"github.com/palethea/palethea-launcher/internal/download"
)

// Source identifies which backend a Result came from.
type Source string

const (
	SourceModrinth   Source = "modrinth"
	SourceCurseForge Source = "curseforge"
)

// Result is one search hit, normalized across both backends.
type Result struct {
	Source      Source
	ID          string
	Name        string
	Summary     string
	Downloads   int
	IconURL     string
	GameVersion []string
	Loaders     []string
}

// Browser searches both Modrinth and (when an API key is configured)
// CurseForge, merging results behind the normalized Result shape.
type Browser struct {
	modrinth   *api.ModrinthClient
	curseforge *api.CurseForgeClient
}

// NewBrowser builds a Browser. CurseForge is only queried when an API key
// is available (CURSEFORGE_API_KEY), matching CurseForge's terms that every
// consuming application carry its own key.
func NewBrowser() *Browser {
	b := &Browser{modrinth: api.NewModrinthClient()}
	if key := os.Getenv("CURSEFORGE_API_KEY"); key != "" {
		b.curseforge = api.NewCurseForgeClient(key)
	}
	return b
}

// Search queries every configured backend and returns normalized results.
// A backend error is not fatal to the overall search — the other backend's
// results are still returned — but is included so the caller can surface it.
func (b *Browser) Search(ctx context.Context, query, gameVersion, loader string) ([]Result, error) {
	var results []Result
	var errs []error

	mrRes, err := b.modrinth.Search(ctx, api.SearchOptions{
		Query:       query,
		GameVersion: gameVersion,
		Loaders:     loaderSlice(loader),
		ProjectType: "mod",
	})
	if err != nil {
		errs = append(errs, fmt.Errorf("modrinth: %w", err))
	} else {
		for _, hit := range mrRes.Hits {
			results = append(results, Result{
				Source:    SourceModrinth,
				ID:        hit.ProjectID,
				Name:      hit.Title,
				Summary:   hit.Description,
				Downloads: hit.Downloads,
				IconURL:   hit.IconURL,
				Loaders:   hit.Categories,
			})
		}
	}

	if b.curseforge != nil {
		cfRes, err := b.curseforge.Search(ctx, api.CFSearchOptions{
			Query:       query,
			GameVersion: gameVersion,
			ModLoader:   curseforgeLoaderID(loader),
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("curseforge: %w", err))
		} else {
			for _, mod := range cfRes.Data {
				results = append(results, Result{
					Source:    SourceCurseForge,
					ID:        fmt.Sprintf("%d", mod.ID),
					Name:      mod.Name,
					Summary:   mod.Summary,
					Downloads: int(mod.DownloadCount),
					IconURL:   mod.Logo.URL,
				})
			}
		}
	}

	if len(results) == 0 && len(errs) > 0 {
		return nil, errs[0]
	}
	return results, errors.Join(errs...)
}

// InstallItem resolves one Result into a download.Item the shared
// downloader can fetch into the instance's mods directory.
func (b *Browser) InstallItem(ctx context.Context, r Result, gameVersion, loader, destDir string) (*download.Item, error) {
	switch r.Source {
	case SourceModrinth:
		versions, err := b.modrinth.GetProjectVersions(ctx, r.ID, loaderSlice(loader), []string{gameVersion})
		if err != nil {
			return nil, err
		}
		if len(versions) == 0 {
			return nil, fmt.Errorf("no compatible version of %s for %s/%s", r.Name, gameVersion, loader)
		}
		file := primaryFile(versions[0].Files)
		if file == nil {
			return nil, fmt.Errorf("version %s has no downloadable file", versions[0].ID)
		}
		return &download.Item{
			URL:  file.URL,
			Path: destDir + "/" + file.Filename,
			SHA1: file.Hashes.SHA1,
			Size: file.Size,
		}, nil

	case SourceCurseForge:
		if b.curseforge == nil {
			return nil, fmt.Errorf("curseforge not configured")
		}
		modID, err := parseCFModID(r.ID)
		if err != nil {
			return nil, err
		}
		files, err := b.curseforge.GetModFiles(ctx, modID, gameVersion)
		if err != nil {
			return nil, err
		}
		if len(files) == 0 {
			return nil, fmt.Errorf("no compatible file for %s on %s", r.Name, gameVersion)
		}
		f := files[0]
		return &download.Item{
			URL:  f.DownloadURL,
			Path: destDir + "/" + f.FileName,
			Size: f.FileLength,
		}, nil

	default:
		return nil, fmt.Errorf("unknown content source %q", r.Source)
	}
}

func primaryFile(files []api.VersionFile) *api.VersionFile {
	for i := range files {
		if files[i].Primary {
			return &files[i]
		}
	}
	if len(files) > 0 {
		return &files[0]
	}
	return nil
}

func loaderSlice(loader string) []string {
	if loader == "" {
		return nil
	}
	return []string{loader}
}

// curseforgeLoaderID maps our loader name to CurseForge's modLoaderType enum.
func curseforgeLoaderID(loader string) int {
	switch loader {
	case "forge":
		return 1
	case "fabric":
		return 4
	case "quilt":
		return 5
	case "neoforge":
		return 6
	default:
		return 0
	}
}

func parseCFModID(id string) (int, error) {
	var n int
	_, err := fmt.Sscanf(id, "%d", &n)
	if err != nil {
		return 0, fmt.Errorf("invalid curseforge mod id %q: %w", id, err)
	}
	return n, nil
}

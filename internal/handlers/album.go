package handlers

import (
	"net/http"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gorilla/mux"

	"galry/internal/filesystem"
	"galry/internal/logging"
	"galry/internal/variant"
)

// albumSampleSize is how many image names are listed per sub-album.
const albumSampleSize = 3

// Crumb is one step of the breadcrumb trail from the root to an album.
type Crumb struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// AlbumEntry is a sub-album with a few image names to use as covers.
type AlbumEntry struct {
	Name    string   `json:"name"`
	Path    string   `json:"path"`
	Samples []string `json:"samples"`
}

// AlbumResponse lists one directory of the gallery.
type AlbumResponse struct {
	Root             string       `json:"root"`
	Path             string       `json:"path"`
	Crumbs           []Crumb      `json:"crumbs"`
	Albums           []AlbumEntry `json:"albums"`
	Images           []string     `json:"images"`
	ZoomShowsPreview bool         `json:"zoomShowsPreview"`
}

// ListAlbum handles GET /api/album and /api/album/{path}. Hidden entries
// and lost+found are not listed.
func (h *Handlers) ListAlbum(w http.ResponseWriter, r *http.Request) {
	rel := strings.Trim(mux.Vars(r)["path"], "/")

	dir := h.rootDir
	if rel != "" {
		clean, err := variant.CleanPath(rel)
		if err != nil {
			writeJSONError(w, variant.Detail(err), http.StatusBadRequest)
			return
		}
		rel = filepath.ToSlash(clean)
		dir = filepath.Join(h.rootDir, clean)
	}

	entries, err := filesystem.ReadDirWithRetry(dir, h.retry)
	if err != nil {
		if info, statErr := filesystem.StatWithRetry(dir, h.retry); statErr == nil && !info.IsDir() {
			writeJSONError(w, "not an album: "+rel, http.StatusBadRequest)
			return
		}
		logging.Debug("Album %q not readable: %v", rel, err)
		writeJSONError(w, "album not found: "+rel, http.StatusNotFound)
		return
	}

	resp := AlbumResponse{
		Root:             filepath.Base(h.rootDir),
		Path:             rel,
		Crumbs:           breadcrumbs(rel),
		Albums:           []AlbumEntry{},
		Images:           []string{},
		ZoomShowsPreview: h.zoomShowsPreview,
	}

	for _, e := range entries {
		name := e.Name()
		if isHidden(name) {
			continue
		}
		if !e.IsDir() {
			if e.Type().IsRegular() {
				resp.Images = append(resp.Images, name)
			}
			continue
		}
		if strings.EqualFold(name, "lost+found") {
			continue
		}
		resp.Albums = append(resp.Albums, AlbumEntry{
			Name:    name,
			Path:    path.Join(rel, name),
			Samples: h.sampleImages(filepath.Join(dir, name)),
		})
	}

	sort.Slice(resp.Albums, func(i, j int) bool { return resp.Albums[i].Path < resp.Albums[j].Path })
	sort.Strings(resp.Images)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	writeJSON(w, resp)
}

// sampleImages returns up to albumSampleSize file names from dir in name
// order. Unreadable albums have no samples.
func (h *Handlers) sampleImages(dir string) []string {
	samples := []string{}
	entries, err := filesystem.ReadDirWithRetry(dir, h.retry)
	if err != nil {
		logging.Debug("Album samples unavailable for %s: %v", dir, err)
		return samples
	}
	for _, e := range entries {
		if len(samples) == albumSampleSize {
			break
		}
		if e.Type().IsRegular() && !isHidden(e.Name()) {
			samples = append(samples, e.Name())
		}
	}
	return samples
}

func breadcrumbs(rel string) []Crumb {
	crumbs := []Crumb{}
	if rel == "" {
		return crumbs
	}
	soFar := ""
	for _, seg := range strings.Split(rel, "/") {
		soFar = path.Join(soFar, seg)
		crumbs = append(crumbs, Crumb{Name: seg, Path: soFar})
	}
	return crumbs
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

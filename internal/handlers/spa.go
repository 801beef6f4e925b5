package handlers

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"easynetes/internal/models"
)

var errAssetPath = errors.New("asset path outside console build")

// resolveAsset maps a request path onto a file under staticDir. Dot segments
// and backslashes are refused outright instead of being cleaned away.
func resolveAsset(staticDir, urlPath string) (string, error) {
	root, err := filepath.Abs(staticDir)
	if err != nil {
		return "", err
	}
	rel := strings.TrimLeft(urlPath, "/")
	if rel == "" {
		return root, nil
	}
	if strings.ContainsRune(rel, '\\') || strings.ContainsRune(rel, 0) {
		return "", errAssetPath
	}
	for _, seg := range strings.Split(rel, "/") {
		if seg == "." || seg == ".." {
			return "", errAssetPath
		}
	}
	target := filepath.Join(root, filepath.FromSlash(rel))
	if r, err := filepath.Rel(root, target); err != nil || r == ".." || strings.HasPrefix(r, ".."+string(filepath.Separator)) {
		return "", errAssetPath
	}
	return target, nil
}

// ServeSPA serves the built console from staticDir. Paths without a file on
// disk get index.html so the client router can take over. Unknown /api/
// paths and a missing build answer with a NotFound envelope.
func ServeSPA(staticDir string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api/") || strings.TrimSpace(staticDir) == "" {
			renderStatus(c, models.SCodeNotFound, nil, "")
			return
		}
		if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
			renderStatus(c, models.SCodeNotFound, nil, "")
			return
		}
		target, err := resolveAsset(staticDir, c.Request.URL.Path)
		if err != nil {
			renderStatus(c, models.SCodeNotFound, nil, "")
			return
		}
		if info, err := os.Stat(target); err == nil && !info.IsDir() {
			c.File(target)
			return
		}
		if filepath.Ext(target) != "" {
			renderStatus(c, models.SCodeNotFound, nil, "")
			return
		}
		index := filepath.Join(staticDir, "index.html")
		if _, err := os.Stat(index); err != nil {
			renderStatus(c, models.SCodeNotFound, nil, "console build not found")
			return
		}
		c.File(index)
	}
}

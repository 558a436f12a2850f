package server

import (
	"errors"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	logs "github.com/danmuck/smplog"
)

const indexFile = "index.html"

var contentTypes = map[string]string{
	".html": "text/html",
	".css":  "text/css",
	".js":   "application/javascript",
}

func contentTypeFor(name string) string {
	if ct, ok := contentTypes[strings.ToLower(filepath.Ext(name))]; ok {
		return ct
	}
	return "application/octet-stream"
}

// handleStatic serves files under StaticDir for GET and HEAD. Paths that
// resolve outside StaticDir, directly or through a symlink, get 403.
func (s *Server) handleStatic(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.NotFound(w, r)
		return
	}
	if s.opts.StaticDir == "" {
		http.NotFound(w, r)
		return
	}

	root, err := filepath.Abs(s.opts.StaticDir)
	if err != nil {
		logs.Errorf(err, "resolve static root %s", s.opts.StaticDir)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	urlPath := r.URL.Path
	if urlPath == "" || strings.HasSuffix(urlPath, "/") {
		urlPath += indexFile
	}
	target := filepath.Join(root, filepath.FromSlash(urlPath))
	if !within(root, target) {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	info, err := os.Stat(target)
	if err == nil && info.IsDir() {
		target = filepath.Join(target, indexFile)
		info, err = os.Stat(target)
	}
	if err != nil {
		if isNotFound(err) {
			http.NotFound(w, r)
			return
		}
		logs.Errorf(err, "stat static file %s (rid=%s)", target, requestIDFrom(r.Context()))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if info.IsDir() {
		http.NotFound(w, r)
		return
	}

	resolvedRoot, err := filepath.EvalSymlinks(root)
	if err == nil {
		var resolved string
		resolved, err = filepath.EvalSymlinks(target)
		if err == nil && !within(resolvedRoot, resolved) {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
	}
	if err != nil {
		logs.Errorf(err, "resolve static file %s (rid=%s)", target, requestIDFrom(r.Context()))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	data, err := os.ReadFile(target)
	if err != nil {
		logs.Errorf(err, "read static file %s (rid=%s)", target, requestIDFrom(r.Context()))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", contentTypeFor(target))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}
	w.Write(data)
}

func within(root, target string) bool {
	rel, err := filepath.Rel(root, target)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func isNotFound(err error) bool {
	return errors.Is(err, fs.ErrNotExist) || errors.Is(err, syscall.ENOTDIR)
}

// Package web serves the landing page and its static assets.
package web

import (
	"embed"
	"net/http"
)

//go:embed static/*
var fs embed.FS

// Register mounts the landing page at / and assets under /static/.
func Register(mux *http.ServeMux) {
	mux.Handle("GET /static/", http.FileServer(http.FS(fs)))
	mux.HandleFunc("GET /{$}", index)
}

func index(w http.ResponseWriter, r *http.Request) {
	page, err := fs.ReadFile("static/index.html")
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(page)
}

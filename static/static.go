package static

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed public
var public embed.FS

// Handler serves the front-end bundle from dir, or the embedded bundle if dir is empty.
func Handler(dir string) http.Handler {
	if dir != "" {
		return http.FileServer(http.Dir(dir))
	}
	sub, err := fs.Sub(public, "public")
	if err != nil {
		panic(err)
	}
	return http.FileServer(http.FS(sub))
}

package server

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"mime"
	"net/http"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/html"
	"github.com/tdewolff/minify/v2/js"
)

type asset struct {
	contentType string
	body        []byte
}

// Assets serves the embedded viewer from memory, minified once at load.
type Assets struct {
	files   map[string]asset
	modTime time.Time
}

func newMinifier() *minify.M {
	m := minify.New()
	m.AddFunc("text/html", html.Minify)
	m.AddFunc("text/css", css.Minify)
	m.AddFuncRegexp(regexp.MustCompile("^(application|text)/(x-)?(java|ecma)script$"), js.Minify)
	return m
}

// LoadAssets reads every file of fsys. Files of a type the minifier knows
// are minified when minified is set.
func LoadAssets(fsys fs.FS, minified bool) (*Assets, error) {
	m := newMinifier()
	a := &Assets{files: make(map[string]asset), modTime: time.Now()}
	err := fs.WalkDir(fsys, ".", func(name string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		body, err := fs.ReadFile(fsys, name)
		if err != nil {
			return err
		}
		ct := mime.TypeByExtension(path.Ext(name))
		if ct == "" {
			ct = http.DetectContentType(body)
		}
		if minified {
			mediatype, _, _ := strings.Cut(ct, ";")
			if out, err := m.Bytes(mediatype, body); err == nil {
				body = out
			} else if !errors.Is(err, minify.ErrNotExist) {
				return fmt.Errorf("minify %s: %w", name, err)
			}
		}
		a.files[name] = asset{contentType: ct, body: body}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (a *Assets) Has(name string) bool {
	_, ok := a.files[name]
	return ok
}

// ServeHTTP serves r.URL.Path relative to the asset root. The root maps to
// index.html.
func (a *Assets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(path.Clean("/"+r.URL.Path), "/")
	if name == "" {
		name = "index.html"
	}
	f, ok := a.files[name]
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", f.contentType)
	http.ServeContent(w, r, name, a.modTime, bytes.NewReader(f.body))
}

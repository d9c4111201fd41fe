// Copyright 2022 Harald Albrecht.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package spagate

import (
	"bytes"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"path"
	"sort"
	"strings"
	"text/template"
)

// DefaultAssetsPrefix is the URL path prefix the "assets" subdirectory of the
// static root gets mounted on, unless told otherwise.
const DefaultAssetsPrefix = "/assets"

// DefaultIndex is the name of the index template inside the static root.
const DefaultIndex = "index.html"

// RouteKind tells how a Gateway handles a particular request path.
type RouteKind int

const (
	IndexRoute RouteKind = iota // renders the index document.
	FileRoute                   // serves a file from the static root.
	AssetRoute                  // serves a file from a mounted asset directory.
)

func (k RouteKind) String() string {
	switch k {
	case IndexRoute:
		return "index"
	case FileRoute:
		return "file"
	case AssetRoute:
		return "asset"
	}
	return "unknown"
}

// Gateway implements an http.Handler serving an SPA: static assets from the
// mounted asset directories, files from the static root when the request path
// looks like a file name, and the rendered index document on all other
// paths. A Gateway doesn't change after creation and thus can serve requests
// concurrently.
type Gateway struct {
	root    fs.FS         // static root the index template and files live in.
	index   string        // unrooted path of the index template inside root.
	runtime RuntimeConfig // values to render into the index document.
	mounts  []mount       // asset mounts, longest prefix first.
	logger  *slog.Logger

	rootMountIgnored bool // an asset mount on "/" was requested and dropped.
}

// mount binds all request paths below prefix to files in fs.
type mount struct {
	prefix string // cleaned, rooted prefix without trailing "/".
	fs     fs.FS
}

// Option sets optional properties at the time of creating a Gateway.
type Option func(*Gateway)

// New returns a new Gateway serving the SPA from the specified static root
// and rendering the specified runtime configuration into the index document.
// Unless overridden by options, the index template is "index.html" and the
// "assets" subdirectory of root gets mounted on "/assets". The runtime
// configuration is used as is; use DefaultRuntimeConfig for defaults.
//
// In order to serve an SPA from a directory on the OS file system, use
// os.DirFS:
//
//	g := New(os.DirFS("/opt/data/myspa/dist"), spagate.DefaultRuntimeConfig())
func New(root fs.FS, rc RuntimeConfig, opts ...Option) *Gateway {
	g := &Gateway{
		root:    root,
		index:   DefaultIndex,
		runtime: rc,
		logger:  slog.Default(),
	}
	if assets, err := fs.Sub(root, "assets"); err == nil {
		g.mounts = []mount{{prefix: DefaultAssetsPrefix, fs: assets}}
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.rootMountIgnored {
		g.logger.Warn("ignoring asset mount on root path")
	}
	sort.SliceStable(g.mounts, func(i, j int) bool {
		return len(g.mounts[i].prefix) > len(g.mounts[j].prefix)
	})
	return g
}

// WithIndex sets the (unrooted, slash-separated) path of the index template
// inside the static root.
func WithIndex(index string) Option {
	return func(g *Gateway) {
		g.index = path.Clean("/" + index)[1:]
	}
}

// WithAssetMount binds all request paths below prefix to the files in fsys,
// replacing any existing mount for the same prefix. Mounting on "/" is
// ignored, as the static root already is served there.
func WithAssetMount(prefix string, fsys fs.FS) Option {
	return func(g *Gateway) {
		prefix = path.Clean("/" + prefix)
		if prefix == "/" {
			g.rootMountIgnored = true
			return
		}
		for idx := range g.mounts {
			if g.mounts[idx].prefix == prefix {
				g.mounts[idx].fs = fsys
				return
			}
		}
		g.mounts = append(g.mounts, mount{prefix: prefix, fs: fsys})
	}
}

// WithLogger sets the structured logger used for reporting failures.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Gateway) {
		g.logger = logger
	}
}

// Runtime returns the runtime configuration rendered into the index document.
func (g *Gateway) Runtime() RuntimeConfig { return g.runtime }

// Route returns how the specified request path gets handled.
func (g *Gateway) Route(reqPath string) RouteKind {
	kind, _, _ := g.resolve(path.Clean("/" + reqPath))
	return kind
}

// resolve returns the kind of route for an already cleaned and rooted request
// path, as well as the file system and unrooted file name to serve from for
// file and asset routes.
func (g *Gateway) resolve(cleanPath string) (RouteKind, fs.FS, string) {
	for _, m := range g.mounts {
		if cleanPath == m.prefix || strings.HasPrefix(cleanPath, m.prefix+"/") {
			return AssetRoute, m.fs, strings.TrimPrefix(cleanPath[len(m.prefix):], "/")
		}
	}
	if strings.Contains(cleanPath, ".") {
		return FileRoute, g.root, cleanPath[1:]
	}
	return IndexRoute, nil, ""
}

// ServeHTTP serves either a file from a mounted asset directory or the static
// root, or otherwise the rendered index document. Rendering the index
// document on all route-like paths is required for SPAs with client-side DOM
// routers, as otherwise bookmarking (router) links or reloading an SPA with
// the current route other than "/" would fail.
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, "405 Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	// Slapping "/" in front ensures that path.Clean never resolves relative
	// to whatever the current working directory might be, and clamps any
	// parent directory traversal at the root.
	r2 := new(http.Request)
	*r2 = *r
	u := *r.URL
	u.Path = path.Clean("/" + r.URL.Path)
	u.RawPath = ""
	r2.URL = &u

	kind, fsys, name := g.resolve(u.Path)
	switch kind {
	case FileRoute, AssetRoute:
		g.serveFile(w, r2, fsys, name)
	default:
		g.serveIndex(w, r2)
	}
}

// serveFile serves the regular file with the specified unrooted name from
// fsys, or 404 if there is no such regular file.
func (g *Gateway) serveFile(w http.ResponseWriter, r *http.Request, fsys fs.FS, name string) {
	if name == "" || !fs.ValidPath(name) {
		notFound(w)
		return
	}
	f, err := fsys.Open(name)
	if err != nil {
		g.fileError(w, name, err)
		return
	}
	defer func() { _ = f.Close() }()
	info, err := f.Stat()
	if err != nil {
		g.fileError(w, name, err)
		return
	}
	if !info.Mode().IsRegular() {
		notFound(w)
		return
	}
	// http.ServeContent needs to seek in order to sniff and to serve ranges;
	// files from os.DirFS and embed.FS can, others get buffered.
	content, ok := f.(io.ReadSeeker)
	if !ok {
		contents, err := io.ReadAll(f)
		if err != nil {
			g.fileError(w, name, err)
			return
		}
		content = bytes.NewReader(contents)
	}
	http.ServeContent(w, r, info.Name(), info.ModTime(), content)
}

func (g *Gateway) fileError(w http.ResponseWriter, name string, err error) {
	if !isNotFound(err) {
		g.logger.Warn("cannot serve file", "name", name, "error", err)
	}
	NormalizedHttpError(w, err)
}

// serveIndex renders the index template and serves the result, or an HTML
// error page describing the failure.
func (g *Gateway) serveIndex(w http.ResponseWriter, r *http.Request) {
	contents, err := g.render(IndexData{
		Env:        g.runtime.Env,
		APIBaseURL: g.runtime.APIBaseURL,
		Base:       basePath(r),
	})
	if err != nil {
		g.logger.Error("cannot render index", "path", r.URL.Path, "error", err)
		NormalizedHttpError(w, err)
		return
	}
	h := w.Header()
	h.Set("Content-Type", "text/html; charset=utf-8")
	h.Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	if r.Method != http.MethodHead {
		_, _ = w.Write(contents)
	}
}

// render loads the index template afresh from the static root and executes
// it. As the index is a build artifact of the SPA, loading it on every request
// picks up new SPA builds without restarting.
//
// The runtime values are rendered verbatim, so that they can be placed into
// script blocks such as "window.RUNTIME_CONFIG = {...}" as well as into
// markup; they come from the operator's configuration, not from clients. The
// only client-influenced value, Base, is path-escaped beforehand.
func (g *Gateway) render(data IndexData) ([]byte, error) {
	contents, err := fs.ReadFile(g.root, g.index)
	if err != nil {
		return nil, &RenderError{Template: g.index, Err: err}
	}
	tmpl, err := template.New(path.Base(g.index)).Parse(string(contents))
	if err != nil {
		return nil, &RenderError{Template: g.index, Err: err}
	}
	var buff bytes.Buffer
	if err := tmpl.Execute(&buff, data); err != nil {
		return nil, &RenderError{Template: g.index, Err: err}
	}
	return buff.Bytes(), nil
}

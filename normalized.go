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
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io/fs"
	"net/http"
)

// ErrNotFound signals that a requested file doesn't exist or isn't a regular
// file.
var ErrNotFound = errors.New("file not found")

// RenderError signals that the index template could not be loaded or
// executed.
type RenderError struct {
	Template string // name of the index template.
	Err      error  // underlying parse or execution error.
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("rendering %q failed: %s", e.Template, e.Err.Error())
}

func (e *RenderError) Unwrap() error { return e.Err }

// isNotFound returns true if err reports a missing or unusable file.
func isNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, fs.ErrNotExist) ||
		errors.Is(err, fs.ErrInvalid)
}

// NormalizedHttpError writes a normalized HTTP error message and HTTP status
// code based on the specified error, but not leaking any interesting internal
// server details from this specified error. The only exception are
// RenderErrors: these are shown in full, so that a broken index document
// results in a visible error page instead of an opaque error.
func NormalizedHttpError(w http.ResponseWriter, err error) {
	var renderErr *RenderError
	if errors.As(err, &renderErr) {
		renderFailure(w, renderErr)
		return
	}
	if isNotFound(err) {
		notFound(w)
		return
	}
	if errors.Is(err, fs.ErrPermission) {
		http.Error(w, "403 Forbidden", http.StatusForbidden)
		return
	}
	http.Error(w, "500 Internal Server Error", http.StatusInternalServerError)
}

// notFound writes a 404 response with a simple JSON detail message.
func notFound(w http.ResponseWriter) {
	h := w.Header()
	h.Del("Content-Length")
	h.Set("Content-Type", "application/json")
	h.Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusNotFound)
	_ = json.NewEncoder(w).Encode(struct {
		Detail string `json:"detail"`
	}{Detail: "File not found"})
}

// renderFailure writes a 500 response with an HTML body describing what went
// wrong when rendering the index template.
func renderFailure(w http.ResponseWriter, err *RenderError) {
	h := w.Header()
	h.Del("Content-Length")
	h.Set("Content-Type", "text/html; charset=utf-8")
	h.Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusInternalServerError)
	_, _ = fmt.Fprintf(w,
		"<!DOCTYPE html>\n<html><head><title>Template error</title></head>"+
			"<body><pre>Template error: %s</pre></body></html>\n",
		html.EscapeString(err.Error()))
}

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
	"net/http"
	"net/url"
	"path"
	"strings"
)

// ForwardedPrefixHeader, if present, specifies the prefix a path rewriting
// proxy stripped off the original request path.
const ForwardedPrefixHeader = "X-Forwarded-Prefix"

// ForwardedUriHeader, if present, specifies the original URI (or sometimes
// only the original URI path) of a request when it hit the first path
// rewriting proxy.
const ForwardedUriHeader = "X-Forwarded-Uri"

// clientPath returns the request path as originally sent by the client before
// passing any path rewriting proxies, as far as the forwarding headers tell.
// Without such headers, this is the (already cleaned) request URL path.
func clientPath(r *http.Request) string {
	if prefix := r.Header.Get(ForwardedPrefixHeader); prefix != "" {
		return path.Join(path.Clean("/"+prefix), r.URL.Path)
	}
	// Some proxies pass only the path, others the full URI.
	if fwuri := r.Header.Get(ForwardedUriHeader); fwuri != "" {
		if strings.HasPrefix(fwuri, "/") {
			return path.Clean(fwuri)
		}
		if u, err := url.Parse(fwuri); err == nil {
			return path.Clean("/" + u.Path)
		}
	}
	return r.URL.Path
}

// basePath returns the base path of the SPA from the client's perspective,
// always ending in "/" and with each path segment escaped. If the base cannot
// be derived, it is "/".
func basePath(r *http.Request) string {
	reqPath := r.URL.Path
	origPath := clientPath(r)
	// A proxy might have redirected /foo to /foo/ and then rewritten the path
	// to just /.
	if strings.HasSuffix(reqPath, "/") && !strings.HasSuffix(origPath, "/") {
		origPath += "/"
	}
	var base string
	if strings.HasSuffix(origPath, reqPath) {
		base = origPath[:len(origPath)-len(reqPath)]
	}
	// Browsers clip the last element of a base not ending in "/".
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return escapePath(base)
}

// escapePath path-escapes each segment of p, so that the result can neither
// break out of an HTML attribute nor out of a script string literal.
func escapePath(p string) string {
	segments := strings.Split(p, "/")
	for idx, segment := range segments {
		segments[idx] = url.PathEscape(segment)
	}
	return strings.Join(segments, "/")
}

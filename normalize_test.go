// Copyright 2022 Harald Albrecht.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not
// use this file except in compliance with the License. You may obtain a copy
// of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS, WITHOUT
// WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the
// License for the specific language governing permissions and limitations
// under the License.

package spagate

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"

	"github.com/thediveo/spagate/test/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("normalize errors into HTTP status codes", func() {

	DescribeTable("normalize errors",
		func(err error, expected int) {
			w := httptest.NewRecorder()
			NormalizedHttpError(w, err)
			Expect(w.Result().StatusCode).To(Equal(expected))
		},
		Entry("file not found", fmt.Errorf("foo.js: %w", ErrNotFound),
			http.StatusNotFound),
		Entry("something's missing", fmt.Errorf("foobar mistake %w", fs.ErrNotExist),
			http.StatusNotFound),
		Entry("something's invalid", &fs.PathError{Op: "open", Path: "../foo", Err: fs.ErrInvalid},
			http.StatusNotFound),
		Entry("something's out of reach", fmt.Errorf("finger wech! %w", fs.ErrPermission),
			http.StatusForbidden),
		Entry("broken index", &RenderError{Template: "index.html", Err: errors.New("foobar")},
			http.StatusInternalServerError),
		Entry("else it's a server error", errors.New("foobar"),
			http.StatusInternalServerError),
	)

	It("reports missing files with a detail message", func() {
		w := httptest.NewRecorder()
		NormalizedHttpError(w, ErrNotFound)
		Expect(w.Header().Get("Content-Type")).To(Equal("application/json"))
		Expect(w.Body.String()).To(MatchJSON(`{"detail":"File not found"}`))
	})

	It("doesn't leak internal server errors", func() {
		w := httptest.NewRecorder()
		NormalizedHttpError(w, errors.New("/secret/path is broken"))
		Expect(w.Body.String()).NotTo(ContainSubstring("/secret/path"))
	})

	It("describes render failures in an HTML error page", func() {
		w := httptest.NewRecorder()
		NormalizedHttpError(w, fmt.Errorf("serving: %w",
			&RenderError{Template: "index.html", Err: errors.New("<unexpected> EOF")}))
		Expect(w.Header().Get("Content-Type")).To(HavePrefix("text/html"))
		Expect(w.Body.String()).To(And(
			ContainSubstring("Template error: "),
			ContainSubstring("index.html"),
			ContainSubstring("&lt;unexpected&gt; EOF")))
		Expect(w.Document().Find("pre").Text()).To(ContainSubstring("<unexpected> EOF"))
	})

	It("unwraps render errors", func() {
		cause := errors.New("foobar")
		Expect(&RenderError{Template: "index.html", Err: cause}).To(MatchError(cause))
	})

})

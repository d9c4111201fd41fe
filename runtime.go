// Copyright 2023 Harald Albrecht.
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

// DefaultEnv is the environment name used when none has been configured.
const DefaultEnv = "DEV"

// DefaultAPIBaseURL is the API base URL handed to the SPA when none has been
// configured.
const DefaultAPIBaseURL = "https://vapp-dev-som-01.msc01.nonprod.dot.ga.gov/api/v1"

// RuntimeConfig is the read-only configuration handed to the SPA through its
// index document. It is set up once at startup and never changes afterwards.
type RuntimeConfig struct {
	Env        string // name of the deployment environment, such as "DEV".
	APIBaseURL string // base URL of the backend API the SPA talks to.
}

// DefaultRuntimeConfig returns a RuntimeConfig with default values.
func DefaultRuntimeConfig() RuntimeConfig {
	return RuntimeConfig{
		Env:        DefaultEnv,
		APIBaseURL: DefaultAPIBaseURL,
	}
}

// IndexData is passed to the index template when rendering it. Templates
// refer to its fields as {{.Env}}, {{.APIBaseURL}}, and {{.Base}}.
type IndexData struct {
	Env        string
	APIBaseURL string
	// Base is the path the SPA is served from as seen by the client, always
	// ending in "/" and with its segments path-escaped; it is meant for the
	// index document's <base href="..."> element.
	Base string
}

/*

Package spagate serves "Single Page Applications" (SPAs) together with a small
amount of server-side runtime configuration, so that the very same production
build of an SPA can be deployed to different environments without rebuilding.

The Gateway type implements http.Handler. Requests below a mounted asset
prefix (by default "/assets") are served from the corresponding asset
directory. All other requests are classified by their path: a path containing
a "." asks for a file in the static root, everything else gets the SPA's index
document. The index document is a Go text/template that gets rendered on each
request with the environment name and API base URL from a RuntimeConfig, both
inserted verbatim so that they can go into inline scripts, as well as the base path the SPA is served from when behind path rewriting
proxies.

Unknown routes never fail: deciding that a route doesn't exist is left to the
SPA's client-side router.

*/
package spagate

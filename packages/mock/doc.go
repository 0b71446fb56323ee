// Package mock serves canned HTTP responses for exercising suites.
//
// Routes come from a YAML file or from Fixtures, which reproduces the
// /hello, /lotto and /greet endpoints the bundled examples run against.
// Response bodies may contain templates: {{path.name}} for a path variable,
// {{query.name}} for a query parameter and any registered function such as
// {{uuid()}}.
package mock

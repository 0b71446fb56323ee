// Package env resolves {{template}} expressions in suite files.
//
// It provides:
//   - Loading .env files and named environments
//   - Variable interpolation using {{variable}} syntax
//   - Built-in function evaluation ({{uuid()}}, {{timestamp()}})
//   - Captured values from earlier requests ({{login.token}})
package env

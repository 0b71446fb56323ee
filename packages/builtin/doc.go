// Package builtin provides template functions for suite files.
//
// Available functions:
//   - uuid(): random UUID v4
//   - now(), date(layout): current time
//   - timestamp(), timestampMs(): Unix time
//   - random(min, max), randomString(length)
//   - base64(value), base64Decode(value), urlEncode(value)
//   - env(name, fallback)
//
// Functions are invoked as {{uuid()}} inside any templated value.
package builtin

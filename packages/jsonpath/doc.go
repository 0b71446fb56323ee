// Package jsonpath resolves dot/bracket path expressions against a parsed
// JSON response body.
//
// Supported syntax:
//   - Field access: lotto.lottoId, winning-numbers
//   - Explicit index: winners[0], winners[-1]
//   - Wildcard: winners[*].winnerId
//   - Quoted keys: ['key.with.dots']
//
// A field applied to an array is applied to every element and the results
// are flattened, so lotto.winners.winnerId collects winnerId from each
// winner. An empty path (or "$") is the whole document.
package jsonpath

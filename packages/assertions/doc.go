// Package assertions verifies HTTP responses against declared expectations.
//
// Expectations are declared with a chain:
//
//	err := assertions.Expect().
//		StatusCode(matchers.AllOf(matchers.GreaterThanOrEqualTo(200), matchers.LessThan(300))).
//		Header("Content-Type", matchers.ContainsString("application/json")).
//		Body("lotto.winners.winnerId", matchers.HasItems(23, 54)).
//		Verify(resp)
//
// Verify stops at the first mismatch and returns a *Failure whose message
// is the rendered diagnostic. Evaluate checks everything and returns one
// Result per expectation.
package assertions

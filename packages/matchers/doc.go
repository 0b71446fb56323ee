// Package matchers provides composable predicates for response values and
// the engine that applies them to resolved JSON paths.
//
// Available matchers:
//   - Equality: Equals (deep, numeric-aware)
//   - Collections: HasItems, HasItem, HasSize
//   - Strings: ContainsString, StartsWith, EndsWith, MatchesPattern
//   - Ordering: GreaterThan, GreaterThanOrEqualTo, LessThan, LessThanOrEqualTo, Between
//   - Composition: AllOf, AnyOf, Not
//   - Shape: IsType, Present, Missing, MatchesSchema
//
// Custom matchers implement Matcher, or wrap a function with Func.
package matchers

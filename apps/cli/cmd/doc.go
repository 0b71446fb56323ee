// Package cmd implements the hitassert CLI commands using Cobra.
//
// Available commands:
//   - run: Send the requests of suite files and check the responses
//   - validate: Check suite files without sending requests
//   - list: Display the requests and expectations of suite files
//   - mock: Serve canned responses from a route file
//   - history: Show runs recorded with run --history
//   - init: Create a config file and an example suite
//   - version: Show version information
//
// Settings come from the config file, HITASSERT_* environment variables and
// flags, in increasing precedence.
package cmd

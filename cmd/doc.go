// Package cmd implements the CLI commands for cmd-sage.
//
// # Architecture
//
// This package is organized into the following logical groups:
//
// ## Core CLI
//
//   - root.go: Main entry point, App struct, cobra command setup, and shared flags
//   - session.go: Wiring of the credential store, generation service, renderer and executors
//   - errors.go: Mapping of error kinds to user-facing titles, hints and exit codes
//
// ## Commands
//
//   - suggest.go: The suggestion conversation (run, revise, explain, copy, cancel)
//   - explain.go: One-off explanation of a command
//   - configure.go: Interactive setup of provider, credential, model and default action
//   - models.go: Model catalog listing
//   - login.go: Authentication commands (login, logout, status)
//
// # Exit codes
//
// A command that succeeds exits 0. Any reported error exits 1, an interrupt
// exits 130, and a suggested command run by the user passes its own exit
// status through.
//
// # Usage
//
//	// Main entry point
//	func main() {
//	    cmd.Execute()
//	}
package cmd

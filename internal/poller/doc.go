// Package poller runs the external status command for pjsipwatch.
//
// This package is internal to pjsipwatch and owns the process-spawning side
// of a poll cycle: building the command, bounding it with a timeout, capturing
// its output, and classifying failures.
//
// The main components are:
//
//   - [Runner]: runs a fixed command line with a per-invocation timeout
//   - [Result]: captured output, exit code and latency of one invocation
//   - [ExecError]: a command that could not be run to a successful exit
//
// Users of the pjsipwatch library should not need to interact with this
// package directly. The command is configured through the main package.
package poller

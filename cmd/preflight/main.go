// Package main is the entry point for the dutchbay preflight bootstrap.
//
// preflight brings the working directory into a known-good state before the
// validation pipeline runs: it normalizes the stray-file anomaly at the
// reserved sandbox path, detects CI vs. workstation execution, acquires an
// isolated dependency sandbox when one is required, prepares the run output
// directory, and validates the optional input archive.
package main

func main() {
	Execute()
}

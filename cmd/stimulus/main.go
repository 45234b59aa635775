package main

import "github.com/gopheryan/stimulus/cmd/stimulus/commands"

// Writes "testing.." to stdout, then a "." every second, then "done".
// Every fragment is flushed as soon as it is written. Pipe it into a
// program to check that the program forwards output as it arrives:
//
//	stimulus | consumer
func main() {
	commands.Execute()
}

package main

import "github.com/docpilot/docpilot/cmd"

func main() {
	cmd.Execute()
}

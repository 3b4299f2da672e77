package main

import "github.com/tanq16/pulldown/cmd"

func main() {
	cmd.Execute()
}

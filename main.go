package main

import "github.com/sw33tLie/spoilerguard/cmd"

func main() {
	cmd.Execute()
}

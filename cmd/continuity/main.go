package main

import "github.com/felixgeelhaar/continuity/cmd/continuity/cli"

func main() {
	cli.Execute()
}

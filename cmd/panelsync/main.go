package main

import "panelsync/cmd/cli"

func main() {
	cli.Execute()
}

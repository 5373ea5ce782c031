package main

import "funcfleet/internal/cli"

func main() {
	cli.Execute()
}

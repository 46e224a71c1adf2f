package main

import "resolvent/internal/cli"

func main() {
	cli.Execute()
}

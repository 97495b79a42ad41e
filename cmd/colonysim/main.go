package main

import "github.com/andrescamacho/colonysim/internal/adapters/cli"

func main() {
	cli.Execute()
}

package main

import "github.com/mikeday37/maneuver-autothrottle/internal/adapters/cli"

func main() {
	cli.Execute()
}

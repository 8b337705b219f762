package main

import "github.com/crimson-sun/recap/internal/cli"

func main() {
	cli.Execute()
}

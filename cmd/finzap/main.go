package main

import "github.com/finzap/finzap/internal/cli"

func main() {
	cli.Execute()
}

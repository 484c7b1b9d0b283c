package main

import "pairs-server/cli"

func main() {
	cli.Execute()
}

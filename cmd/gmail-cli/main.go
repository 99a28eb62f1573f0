package main

import "gmailcli/internal/cli"

func main() {
	cli.Execute()
}

package main

import "smartstay-cli/cmd"

func main() {
	cmd.Execute()
}

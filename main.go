package main

import "togimport/cmd"

func main() {
	cmd.Execute()
}

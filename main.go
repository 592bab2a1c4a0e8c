package main

import "bibsync/cmd"

func main() {
	cmd.Execute()
}

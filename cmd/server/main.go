package main

import "github.com/happenit/server/cmd/server/cmd"

func main() {
	cmd.Execute()
}

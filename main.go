package main

import "github.com/endorses/flowcat/cmd"

func main() {
	cmd.Execute()
}

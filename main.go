package main

import "github.com/goosewin/visionquest/cmd"

func main() {
	cmd.Execute()
}

package main

import "github.com/kerfcam/kerf/cmd/kerf/cmd"

func main() {
	cmd.Execute()
}

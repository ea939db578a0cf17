package main

import "patchlink/cmd/patchlink/cmd"

func main() {
	cmd.Execute()
}

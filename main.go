package main

import "github.com/KaramelBytes/asdp-cli/cmd"

func main() {
	cmd.Execute()
}

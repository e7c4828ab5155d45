package main

import "github.com/KaramelBytes/prism-cli/cmd"

func main() {
	cmd.Execute()
}

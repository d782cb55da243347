package main

import "github.com/KaramelBytes/datasummary-cli/cmd"

func main() {
	cmd.Execute()
}

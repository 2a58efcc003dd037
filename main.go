package main

import "github.com/KaramelBytes/tabula-cli/cmd"

func main() {
	cmd.Execute()
}

package main

import "github.com/KaramelBytes/autoanalyst/cmd"

func main() {
	cmd.Execute()
}

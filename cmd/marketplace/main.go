package main

import "github.com/Skotchmaster/marketplace/internal/cmd"

func main() {
	cmd.Execute()
}

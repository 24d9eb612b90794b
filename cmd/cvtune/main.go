package main

import "github.com/talentforge/cvtune/internal/cli"

func main() {
	cli.Execute()
}

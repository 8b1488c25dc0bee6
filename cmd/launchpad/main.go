package main

import "github.com/santiagomed/launchpad/cli"

func main() {
	cli.Execute()
}

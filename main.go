package main

import "github.com/theirongolddev/garage/cmd"

func main() {
	cmd.Execute()
}

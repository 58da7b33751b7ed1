package main

import "github.com/lepinkainen/alexandria/cmd"

var execute = cmd.Execute

func main() {
	execute()
}

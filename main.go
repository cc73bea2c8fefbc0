package main

import "github.com/blitztech/access-management/cmd"

func main() {
	cmd.Execute()
}

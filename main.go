package main

import "github.com/henderiw/rxcore/cmd"

func main() {
	cmd.Execute()
}

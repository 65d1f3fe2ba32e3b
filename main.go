package main

import "github.com/curaious/folio/cmd"

func main() {
	cmd.Execute()
}

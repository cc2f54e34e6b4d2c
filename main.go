package main

import "docquery/cmd"

func main() {
	cmd.Execute()
}

package main

import "github.com/stackvista/snapshot-reconciler/cmd"

func main() {
	cmd.Execute()
}

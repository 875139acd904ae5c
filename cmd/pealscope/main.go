package main

import "github.com/dbsmedya/pealscope/cmd/pealscope/cmd"

func main() {
	cmd.Execute()
}

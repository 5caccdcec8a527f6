package main

import "github.com/hoopscope/hoopscope/cmd"

func main() {
	cmd.Execute()
}

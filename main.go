package main

import "github.com/shaharia-lab/pushrelay/cmd"

func main() {
	cmd.Execute()
}

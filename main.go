package main

import "github.com/encodeous/gospf/cmd"

func main() {
	cmd.Execute()
}

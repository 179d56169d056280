package main

import "github.com/wkalt/treeviz/cmd"

func main() {
	cmd.Execute()
}

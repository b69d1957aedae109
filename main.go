package main

import "github.com/quocvuong92/cmd-sage/cmd"

func main() {
	cmd.Execute()
}

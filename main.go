package main

import "smartcopy/cmd"

func main() {
	cmd.Execute()
}

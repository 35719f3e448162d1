package main

import "github.com/iksnae/phone-core/cmd"

func main() {
	cmd.Execute()
}

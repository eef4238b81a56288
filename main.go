package main

import "github.com/vibast-solutions/ms-go-hackauth/cmd"

func main() {
	cmd.Execute()
}

package main

import "github.com/pbrane/newts/cmd"

func main() { cmd.Execute() }

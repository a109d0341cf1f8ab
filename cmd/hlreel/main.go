package main

import "github.com/forPelevin/hlreel/internal/cli"

func main() { cli.Main() }

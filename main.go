package main

import (
	"github.com/gptscript-ai/shellexec/pkg/cli"
)

func main() {
	cli.Main()
}

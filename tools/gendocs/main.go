package main

import (
	"fmt"
	"log"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gptscript-ai/shellexec/pkg/cli"
	"github.com/gptscript-ai/shellexec/pkg/version"
	"github.com/spf13/cobra/doc"
)

const (
	docsDir    = "docs/cli"
	fmTemplate = `---
title: "%s"
---
`
)

func main() {
	cmd := cli.New()
	cmd.DisableAutoGenTag = true

	if err := os.MkdirAll(docsDir, 0755); err != nil {
		log.Fatal(err)
	}

	files, err := filepath.Glob(filepath.Join(docsDir, version.ProgramName+"*.md"))
	if err != nil {
		log.Fatal(err)
	}
	for _, f := range files {
		if err := os.Remove(f); err != nil {
			log.Fatal(err)
		}
	}

	if err := doc.GenMarkdownTreeCustom(cmd, docsDir, filePrepender, linkHandler); err != nil {
		log.Fatal(err)
	}
}

func filePrepender(filename string) string {
	name := filepath.Base(filename)
	base := strings.TrimSuffix(name, path.Ext(name))
	return fmt.Sprintf(fmTemplate, strings.ReplaceAll(base, "_", " "))
}

func linkHandler(name string) string {
	return name
}

package main

import (
	"golang.org/x/tools/go/analysis/singlechecker"

	"github.com/hhuzhang0517/genrtl-saas/tools/linters/enumvalidator"
)

func main() {
	singlechecker.Main(enumvalidator.Analyzer)
}

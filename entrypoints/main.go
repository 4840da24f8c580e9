package main

import (
	"github.com/Laisky/multilingual-news/cmd"
)

func main() {
	cmd.Execute()
}

package main

import "github.com/nikogura/site-audit/cmd"

func main() {
	cmd.Execute()
}

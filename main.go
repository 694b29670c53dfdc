package main

import "github.com/FiligranHQ/xtm-browser-extension-sub003/cmd"

func main() {
	cmd.Execute()
}

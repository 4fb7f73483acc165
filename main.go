package main

import "github.com/frahmantamala/workforce-authz/cmd"

func main() {
	cmd.Execute()
}

package main

import "github.com/clinicheck/clinicheck_backend/cmd"

func main() {
	cmd.Execute()
}

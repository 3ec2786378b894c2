package main

import "github.com/aTrapDeer/portfolio-admin/cmd"

func main() {
	cmd.Execute()
}

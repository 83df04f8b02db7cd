package main

import "github.com/joshdurbin/stryd-dashboard/internal/cmd"

func main() {
	cmd.Execute()
}

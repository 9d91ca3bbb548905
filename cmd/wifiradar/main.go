package main

import "github.com/lcalzada-xor/wifiradar/cmd/cli"

var (
	version   = "dev"
	commit    = "none"
	buildTime = "unknown"
)

func main() {
	cli.SetVersion(version, commit, buildTime)
	cli.Execute()
}

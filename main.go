package main

import "kudos-bot/cli"

func main() {
	cli.Execute()
}

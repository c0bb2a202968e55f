package main

import "stock_sim/internal/cli"

func main() {
	cli.Execute()
}

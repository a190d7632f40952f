package main

import "github.com/Mohsinsiddi/swapflow/cmd"

func main() {
	cmd.Execute()
}

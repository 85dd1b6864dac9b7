package main

import "github.com/ValentinKolb/kvmarket/cmd"

func main() {
	cmd.Execute()
}

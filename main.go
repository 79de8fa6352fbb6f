package main

import "github.com/ValentinKolb/ncpr/cmd"

func main() {
	cmd.Execute()
}

package main

import "github.com/techchallenge/vitibrasil-etl/cmd"

func main() {
	cmd.Execute()
}

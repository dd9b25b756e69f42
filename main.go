package main

import "github.com/klaxis/CryptoTaxes/cmd"

func main() {
	cmd.Execute()
}

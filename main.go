// Package main is a placeholder entry point.
//
// For the actual simulator CLI, use: go run ./cmd/simulate
package main

import "fmt"

func main() {
	fmt.Println("tomasulo-rv32 - cycle-accurate RV32I Tomasulo core simulator")
	fmt.Println("Run 'go run ./cmd/simulate [-v] <image-file>' to simulate a memory image.")
}

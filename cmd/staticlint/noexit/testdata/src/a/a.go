package main

import (
	"log"
	"os"
)

func helper() {
	os.Exit(2)
}

func main() {
	defer helper()

	if len(os.Args) > 3 {
		log.Fatal("too many arguments") // want `прямой вызов log.Fatal в функции main запрещен`
	}
	if len(os.Args) > 2 {
		log.Fatalf("unexpected %s", os.Args[2]) // want `прямой вызов log.Fatalf в функции main запрещен`
	}

	func() {
		os.Exit(1) // want `прямой вызов os.Exit в функции main запрещен`
	}()

	os.Exit(0) // want `прямой вызов os.Exit в функции main запрещен`
}

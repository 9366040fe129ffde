// cmd/sqlbackup/main.go
package main

import (
	"log"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Fatalf("Error: %v\n", err)
	}
}

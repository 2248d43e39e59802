package main

import (
	"context"
	"log"
	"os"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		log.Printf("app error: %v", err)
		os.Exit(1)
	}
}

// cmd/formdrop/main.go
package main

import (
	"context"
	"log"

	"github.com/dalemusser/formdrop/app"
	"github.com/dalemusser/formdrop/internal/app/bootstrap"
)

func main() {
	if err := app.Run(context.Background(), bootstrap.Hooks); err != nil {
		log.Fatal(err)
	}
}

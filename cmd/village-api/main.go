package main

import (
	"os"

	"github.com/noah-isme/village-api/internal/cli"
)

// @title Village API
// @version 1.0.0
// @description Classroom village economy: villagers, bank ledgers, daily task logs, shop and payroll.
// @BasePath /api/v1
// @schemes http

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}

package main

import (
	"context"
	"os"

	_ "pmis/api/swagger" // swagger docs
)

// @title           PMIS API
// @version         1.0
// @description     Project management information system: payment approvals, documents, reports and planning records.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

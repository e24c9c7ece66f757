package main

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/cobra"

	"github.com/propfolio/propfolio/internal/http/router"
	"github.com/propfolio/propfolio/internal/security"
)

// routesCmd prints the mounted route table without starting a server.
func routesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "routes",
		Short: "Print the HTTP route table",
		RunE: func(cmd *cobra.Command, args []string) error {
			h := router.NewRouter(router.Dependencies{
				JWTManager:       security.NewJWTManager("propfolio", "propfolio-api", "route-listing-placeholder-secret"),
				APIRateLimitRPM:  1,
				AuthRateLimitRPM: 1,
				EnableOTelHTTP:   false,
			})
			mux, ok := h.(*chi.Mux)
			if !ok {
				return fmt.Errorf("router is not walkable")
			}
			return chi.Walk(mux, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
				fmt.Printf("%-7s %s\n", method, route)
				return nil
			})
		},
	}
}

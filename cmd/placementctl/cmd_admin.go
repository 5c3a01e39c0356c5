package main

import (
	"context"
	"fmt"
	"time"

	"github.com/dalemusser/placementhub/internal/app/bootstrap"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
)

var seedAdminCmd = &cobra.Command{
	Use:     "seed-admin",
	Short:   "Create an admin, or promote and re-enable an existing one",
	Example: `  placementctl seed-admin --email tpo@college.edu --name "TPO" --password 's3cret-pass' --super`,
	RunE:    runSeedAdmin,
}

var ensureSchemaCmd = &cobra.Command{
	Use:   "ensure-schema",
	Short: "Create collections, validators and indexes",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
		defer cancel()
		return withDB(ctx, func(ctx context.Context, db *mongo.Database) error {
			if err := bootstrap.SetupSchema(ctx, db, logger); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema is up to date")
			return nil
		})
	},
}

func init() {
	f := seedAdminCmd.Flags()
	f.String("email", "", "admin email (required)")
	f.String("name", "", "display name")
	f.String("password", "", "password; blank leaves an existing one and creates new admins without one")
	f.Bool("super", false, "grant superadmin")
	_ = seedAdminCmd.MarkFlagRequired("email")
}

func runSeedAdmin(cmd *cobra.Command, args []string) error {
	email, _ := cmd.Flags().GetString("email")
	name, _ := cmd.Flags().GetString("name")
	password, _ := cmd.Flags().GetString("password")
	super, _ := cmd.Flags().GetBool("super")

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()
	return withDB(ctx, func(ctx context.Context, db *mongo.Database) error {
		a, created, err := bootstrap.SeedAdmin(ctx, db, email, name, password, super, logger)
		if err != nil {
			return err
		}
		verb := "updated"
		if created {
			verb = "created"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s admin %s (%s) super=%v\n", verb, a.Email, a.ID.Hex(), a.SuperAdmin)
		return nil
	})
}

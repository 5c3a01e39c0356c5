// Command placementctl performs admin chores against the placement database:
// seeding admins, importing problems and creating the schema.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/dalemusser/placementhub/internal/app/bootstrap"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

var (
	mongoURI string
	mongoDB  string
	verbose  bool
	logger   = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:           "placementctl",
	Short:         "Admin tasks for the placement portal",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if !verbose {
			return nil
		}
		l, err := zap.NewDevelopment()
		if err != nil {
			return err
		}
		logger = l
		return nil
	},
}

func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	rootCmd.PersistentFlags().StringVar(&mongoURI, "mongo-uri", envOr("PLACEMENT_MONGO_URI", "mongodb://localhost:27017"), "MongoDB connection URI")
	rootCmd.PersistentFlags().StringVar(&mongoDB, "db", envOr("PLACEMENT_MONGO_DATABASE", "placement_portal"), "MongoDB database name")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log progress to stderr")

	rootCmd.AddCommand(seedAdminCmd, importProblemsCmd, ensureSchemaCmd, languagesCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// withDB connects, runs fn and disconnects.
func withDB(ctx context.Context, fn func(context.Context, *mongo.Database) error) error {
	client, err := bootstrap.ConnectMongo(ctx, bootstrap.AppConfig{MongoURI: mongoURI})
	if err != nil {
		return err
	}
	defer func() {
		dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = client.Disconnect(dctx)
	}()
	return fn(ctx, client.Database(mongoDB))
}

package main

import (
	"pmis/internal/logging"
	"pmis/internal/repository"
	"pmis/internal/service"

	"github.com/spf13/cobra"
)

var seedFile string

func init() {
	rootCmd.AddCommand(seedCmd)

	seedCmd.Flags().StringVar(&seedFile, "file", "configs/seed.yaml", "seed file with roles, approval levels and users")
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load roles, privileges, the approval chain and initial users",
	Long: `Load roles, privileges, the approval chain and initial users from a YAML file.

Seeding is idempotent: existing roles and levels are reused and existing
users are left untouched.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		seed, err := service.LoadSeedFile(seedFile)
		if err != nil {
			return err
		}
		db, err := openDatabase(cfg)
		if err != nil {
			return err
		}
		defer closeDatabase(db)

		svc := service.NewSeedService(
			repository.NewTransactionManager(db),
			repository.NewRoleRepository(db),
			repository.NewApprovalRepository(db),
			repository.NewUserRepository(db),
		)
		if err := svc.Seed(cmd.Context(), seed); err != nil {
			return err
		}
		log := logging.Component("seed")
		log.Info().Str("file", seedFile).Msg("seed complete")
		return nil
	},
}

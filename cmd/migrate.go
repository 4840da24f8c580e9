package cmd

import (
	"context"

	"github.com/Laisky/errors/v2"
	gconfig "github.com/Laisky/go-config/v2"
	gcmd "github.com/Laisky/go-utils/v6/cmd"
	"github.com/Laisky/zap"
	"github.com/spf13/cobra"

	"github.com/Laisky/multilingual-news/library/log"
)

var migrateCMD = &cobra.Command{
	Use:   "migrate",
	Short: "migrate",
	Long:  `create indexes, seed the default language and optionally an admin`,
	Args:  gcmd.NoExtraArgs,
	PreRun: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		if err := initialize(ctx, cmd); err != nil {
			log.Logger.Panic("init", zap.Error(err))
		}
	},
	Run: func(cmd *cobra.Command, args []string) {
		if err := runMigrate(cmd.Context()); err != nil {
			log.Logger.Panic("migrate", zap.Error(err))
		}
	},
}

func runMigrate(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	b, err := setupBackends(ctx)
	if err != nil {
		return err
	}
	defer b.Close(context.Background())

	if err = b.dao.EnsureIndexes(ctx); err != nil {
		return errors.Wrap(err, "ensure indexes")
	}
	log.Logger.Info("indexes ensured")

	svc, err := setupServices(b)
	if err != nil {
		return err
	}

	seeded, err := svc.Languages.SeedDefault(ctx, "en", "English")
	if err != nil {
		return errors.Wrap(err, "seed default language")
	}
	log.Logger.Info("default language", zap.Bool("seeded", seeded))

	email := gconfig.Shared.GetString("admin-email")
	password := gconfig.Shared.GetString("admin-password")
	if email == "" && password == "" {
		return nil
	}

	created, err := svc.Users.EnsureAdmin(ctx,
		stringOr(gconfig.Shared.GetString("admin-name"), "Admin"), email, password)
	if err != nil {
		return errors.Wrap(err, "ensure admin")
	}
	log.Logger.Info("admin account", zap.String("email", email), zap.Bool("created", created))

	return nil
}

func init() {
	migrateCMD.Flags().String("admin-email", "", "create an admin with this email when missing")
	migrateCMD.Flags().String("admin-password", "", "password of the created admin")
	migrateCMD.Flags().String("admin-name", "Admin", "name of the created admin")
	rootCMD.AddCommand(migrateCMD)
}

package cmd

import (
	"fmt"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/estate-ordinals/common/errs"
	"github.com/gaze-network/estate-ordinals/internal/config"
	"github.com/gaze-network/estate-ordinals/internal/postgres"
	estatepostgres "github.com/gaze-network/estate-ordinals/modules/estate/repository/postgres"
	"github.com/gaze-network/estate-ordinals/modules/estate/usecase"
	"github.com/gaze-network/estate-ordinals/pkg/broadcast"
	"github.com/gaze-network/estate-ordinals/pkg/logger"
	"github.com/gaze-network/estate-ordinals/pkg/logger/slogx"
	"github.com/gaze-network/estate-ordinals/pkg/objectstore"
	"github.com/spf13/cobra"
)

func NewExportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export ledgers as files",
	}
	cmd.AddCommand(NewExportIncomesCommand())
	return cmd
}

type exportIncomesCmdOptions struct {
	Kind   string
	Out    string
	Upload bool
}

func (o exportIncomesCmdOptions) Validate() error {
	if !usecase.IncomeKind(o.Kind).IsValid() {
		return errors.Wrapf(errs.InvalidArgument, "--kind must be %q or %q, got %q", usecase.IncomeKindUser, usecase.IncomeKindProperty, o.Kind)
	}
	return nil
}

func NewExportIncomesCommand() *cobra.Command {
	opts := &exportIncomesCmdOptions{}

	cmd := &cobra.Command{
		Use:     "incomes",
		Short:   "Export user or property incomes as a parquet file",
		Example: `estate export incomes --kind user --out ./user-incomes.parquet`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := opts.Validate(); err != nil {
				return errors.WithStack(err)
			}
			return exportIncomesHandler(opts, cmd)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.Kind, "kind", string(usecase.IncomeKindUser), `Income ledger to export: "user" or "property"`)
	flags.StringVar(&opts.Out, "out", "", "Output file path. Default is ./<kind>-incomes.parquet")
	flags.BoolVar(&opts.Upload, "upload", false, "Upload the export to the configured object store instead of writing a file")

	return cmd
}

func exportIncomesHandler(opts *exportIncomesCmdOptions, cmd *cobra.Command) error {
	ctx := logger.WithContext(cmd.Context(), slogx.String("command", "export_incomes"))
	conf := config.Load()
	moduleConf := conf.Modules.Estate

	pg, err := postgres.NewPool(ctx, moduleConf.Postgres)
	if err != nil {
		return errors.Wrap(err, "can't create Postgres connection pool")
	}
	defer pg.Close()

	var store usecase.ObjectStore
	if opts.Upload {
		objectStore, err := objectstore.New(ctx, moduleConf.ObjectStore)
		if err != nil {
			return errors.Wrap(err, "can't create object store")
		}
		store = objectStore
	}

	estateUsecase := usecase.New(estatepostgres.NewRepository(pg), broadcast.NewHub(nil), store, conf.Network)
	export, err := estateUsecase.ExportIncomes(ctx, usecase.IncomeKind(opts.Kind))
	if err != nil {
		return errors.WithStack(err)
	}

	if opts.Upload {
		url, err := estateUsecase.UploadIncomeExport(ctx, export)
		if err != nil {
			return errors.WithStack(err)
		}
		logger.InfoContext(ctx, "Uploaded income export", slogx.Int("count", export.Count), slogx.String("url", url))
		fmt.Fprintln(cmd.OutOrStdout(), url)
		return nil
	}

	out := opts.Out
	if out == "" {
		out = export.Filename()
	}
	if err := os.WriteFile(out, export.Data, 0o644); err != nil {
		return errors.Wrapf(err, "can't write %q", out)
	}
	logger.InfoContext(ctx, "Wrote income export", slogx.Int("count", export.Count), slogx.String("path", out))
	return nil
}

package cli

import (
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/spf13/cobra"

	"github.com/stefando/ingestGatewayAWS/internal/transform"
)

func newTransformCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transform",
		Short: "Clean a catalog table into parquet",
		Long: `Read the ';' separated CSV files of one catalog table, normalise the amount
columns, drop rows without a positive order value and write one parquet file to
clean_data/{tenant}/.`,
		Args: cobra.NoArgs,
		RunE: runTransform,
	}
	cmd.Flags().String("tenant", "", "Tenant ID (required)")
	cmd.Flags().String("table", "", "Catalog table (default from config)")
	cmd.Flags().Int("skip-rows", 1, "Junk rows to skip after the header (exports carry one)")
	cmd.Flags().String("tmp-dir", "", "Scratch directory for the parquet file")
	_ = cmd.MarkFlagRequired("tenant")
	return cmd
}

func runTransform(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	tenant, _ := flags.GetString("tenant")
	table, _ := flags.GetString("table")
	skipRows, _ := flags.GetInt("skip-rows")
	tmpDir, _ := flags.GetString("tmp-dir")
	if table == "" {
		table = cfg.CatalogTable
	}
	if skipRows < 0 {
		return fmt.Errorf("--skip-rows must not be negative")
	}
	if cfg.Bucket == "" {
		return fmt.Errorf("S3_TARGET_BUCKET is not set")
	}

	awsCfg, err := awsConfig(cmd.Context())
	if err != nil {
		return err
	}
	job := transform.NewJob(s3.NewFromConfig(awsCfg), cfg.Bucket, tmpDir, logger)
	res, err := job.Run(cmd.Context(), tenant, table, skipRows)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if res.OutputKey == "" {
		fmt.Fprintf(out, "no rows left after cleaning %d file(s)\n", len(res.Sources))
		return nil
	}
	fmt.Fprintf(out, "wrote %d row(s) from %d file(s) to %s (dropped %d)\n",
		res.Stats.Written, len(res.Sources), res.OutputKey, res.Stats.Dropped)
	return nil
}
